package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

var (
	// ErrRouting marks a failed request to the routing service
	ErrRouting = errors.New("routing request failed")
	// ErrNoRoute marks a response without a usable geometry
	ErrNoRoute = errors.New("no route in response")
)

const (
	defaultRoutingTimeout = 5 * time.Second
	maxRouteResponse      = 16 << 20
)

// Router turns a closed waypoint list into a road-following path
type Router interface {
	Route(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error)
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// OSRMClient queries an OSRM-compatible driving route service
type OSRMClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOSRMClient creates a routing client. Each lookup is bounded by timeout.
func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	if timeout <= 0 {
		timeout = defaultRoutingTimeout
	}
	return &OSRMClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// RouteURL builds the lookup URL. OSRM expects lng,lat order.
func (c *OSRMClient) RouteURL(waypoints []models.LatLng) string {
	coords := make([]string, len(waypoints))
	for i, w := range waypoints {
		coords[i] = strconv.FormatFloat(w.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(w.Lat, 'f', -1, 64)
	}
	return fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=geojson", c.baseURL, strings.Join(coords, ";"))
}

// Route looks up a driving route through waypoints in order
func (c *OSRMClient) Route(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrNoRoute, len(waypoints))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RouteURL(waypoints), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrRouting, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRouting, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrRouting, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRouteResponse)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrNoRoute, err)
	}
	if body.Code != "" && body.Code != "Ok" {
		return nil, fmt.Errorf("%w: service returned code %q", ErrNoRoute, body.Code)
	}
	if len(body.Routes) == 0 {
		return nil, ErrNoRoute
	}

	coords := body.Routes[0].Geometry.Coordinates
	path := make([]models.LatLng, 0, len(coords))
	for _, pt := range coords {
		if len(pt) < 2 {
			return nil, fmt.Errorf("%w: malformed coordinate %v", ErrNoRoute, pt)
		}
		path = append(path, models.LatLng{Lat: pt[1], Lng: pt[0]})
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: geometry has %d coordinates", ErrNoRoute, len(path))
	}
	return path, nil
}
