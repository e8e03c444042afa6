// Package presets holds the named point sets an operator can load instead of
// placing points by hand. The registry is populated once at startup and is
// read-only afterwards.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

//go:embed default_presets.yaml
var defaultPresets []byte

var ErrPresetNotFound = errors.New("preset not found")

type presetFile struct {
	Presets map[string][]models.Point `yaml:"presets"`
}

// Registry maps a preset name to its ordered point list
type Registry struct {
	names   []string
	presets map[string][]models.Point
}

// Parse builds a registry from YAML bytes and validates every preset
func Parse(data []byte) (*Registry, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets yaml: %w", err)
	}

	r := &Registry{presets: make(map[string][]models.Point, len(f.Presets))}
	for name, points := range f.Presets {
		if err := validatePreset(name, points); err != nil {
			return nil, err
		}
		r.presets[name] = models.ClonePoints(points)
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Load reads the registry from path; an empty path selects the embedded defaults
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets file %s: %w", path, err)
	}
	return r, nil
}

// Default returns the registry built from the embedded preset set
func Default() (*Registry, error) {
	return Parse(defaultPresets)
}

// Names returns the preset names in sorted order
func (r *Registry) Names() []string {
	return append([]string{}, r.names...)
}

// Lookup returns a copy of the named preset's points
func (r *Registry) Lookup(name string) ([]models.Point, error) {
	points, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return models.ClonePoints(points), nil
}

// Next returns the name following current in sorted order, wrapping around.
// step may be negative. An unknown current yields the first name.
func (r *Registry) Next(current string, step int) string {
	if len(r.names) == 0 {
		return ""
	}
	idx := sort.SearchStrings(r.names, current)
	if idx >= len(r.names) || r.names[idx] != current {
		return r.names[0]
	}
	n := len(r.names)
	return r.names[((idx+step)%n+n)%n]
}

func validatePreset(name string, points []models.Point) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	seen := make(map[int]bool, len(points))
	for i, p := range points {
		if seen[p.ID] {
			return fmt.Errorf("preset %s: duplicate point id %d", name, p.ID)
		}
		seen[p.ID] = true
		if p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("preset %s: point %d latitude %f out of range", name, i, p.Lat)
		}
		if p.Lng < -180 || p.Lng > 180 {
			return fmt.Errorf("preset %s: point %d longitude %f out of range", name, i, p.Lng)
		}
	}
	return nil
}
