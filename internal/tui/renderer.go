// Package tui renders the session onto a terminal map and turns key presses
// and mouse clicks into session commands.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/GoSim-25-26J-441/tourviz/internal/geo"
	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

const (
	panelWidth     = 30
	minMapWidth    = 20
	heatmapColumns = 5
	panStep        = 4
	zoomStep       = 1.5
	noticeTTL      = 3 * time.Second
	refreshEvery   = 200 * time.Millisecond

	// Berlin, where the bundled presets live
	defaultLat       = 52.52
	defaultLng       = 13.405
	defaultDegPerCol = 0.002
)

var (
	styleHeader  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy).Bold(true)
	styleHint    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorBlack)
	stylePanel   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePoint   = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed).Bold(true)
	stylePointID = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	stylePath    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleRouting = tcell.StyleDefault.Foreground(tcell.ColorYellow).Blink(true)
	styleSpark   = tcell.StyleDefault.Foreground(tcell.ColorLime)
	styleNotice  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
)

// Controls is the run controller as seen from the terminal
type Controls interface {
	CanStart() bool
	StartRun(ctx context.Context) bool
	Reset()
	ToggleMode() error
	CyclePreset(step int) error
}

// Renderer draws the session and handles operator input. All drawing happens
// on the goroutine running Run.
type Renderer struct {
	screen tcell.Screen
	store  *session.Store
	ctrl   Controls
	log    *slog.Logger

	ctx         context.Context
	viewport    Viewport
	lastButtons tcell.ButtonMask
	notice      string
	noticeAt    time.Time
	now         func() time.Time
}

// NewRenderer creates a renderer for an initialized screen
func NewRenderer(screen tcell.Screen, store *session.Store, ctrl Controls, log *slog.Logger) *Renderer {
	r := &Renderer{
		screen:   screen,
		store:    store,
		ctrl:     ctrl,
		log:      log,
		ctx:      context.Background(),
		viewport: NewViewport(defaultLat, defaultLng, defaultDegPerCol, 0, 0),
		now:      time.Now,
	}
	r.layout()
	return r
}

// Viewport returns the current map viewport
func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// mapArea is the rectangle the map occupies, below the header and above the hint bar
func (r *Renderer) mapArea() (x0, y0, x1, y1 int) {
	w, h := r.screen.Size()
	x1 = w
	if w-panelWidth >= minMapWidth {
		x1 = w - panelWidth
	}
	return 0, 1, x1, max(h-1, 1)
}

func (r *Renderer) layout() {
	x0, y0, x1, y1 := r.mapArea()
	r.viewport = r.viewport.Resize(x1-x0, y1-y0)
}

// Run processes input and store changes until ctx is done or the operator quits
func (r *Renderer) Run(ctx context.Context) error {
	r.ctx = ctx
	r.screen.EnableMouse()
	r.screen.HideCursor()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	changes, unsubscribe := r.store.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(refreshEvery)
	defer ticker.Stop()

	r.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !r.HandleEvent(ev) {
				return nil
			}
		case ev, ok := <-changes:
			if !ok {
				return nil
			}
			if ev.Kind == session.EventMode {
				r.recenter()
			}
		case <-ticker.C:
		}
		r.Draw()
	}
}

// HandleEvent applies one terminal event. It returns false when the operator quits.
func (r *Renderer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return r.Apply(KeyAction(ev.Key(), ev.Rune()))
	case *tcell.EventMouse:
		buttons := ev.Buttons()
		pressed := buttons&tcell.Button1 != 0 && r.lastButtons&tcell.Button1 == 0
		r.lastButtons = buttons
		if pressed {
			x, y := ev.Position()
			r.Click(x, y)
		}
	case *tcell.EventResize:
		r.screen.Sync()
		r.layout()
	}
	return true
}

// Apply performs an action. It returns false for quit.
func (r *Renderer) Apply(a Action) bool {
	switch a {
	case ActionQuit:
		return false
	case ActionRun:
		if !r.ctrl.CanStart() {
			r.setNotice("need 3+ points and no active run")
			return true
		}
		go r.ctrl.StartRun(r.ctx)
	case ActionReset:
		r.ctrl.Reset()
	case ActionToggleMode:
		if err := r.ctrl.ToggleMode(); err != nil {
			r.log.Warn("mode switch failed", "error", err)
			r.setNotice(err.Error())
		}
	case ActionPrevPreset, ActionNextPreset:
		step := 1
		if a == ActionPrevPreset {
			step = -1
		}
		if err := r.ctrl.CyclePreset(step); err != nil {
			r.log.Warn("preset switch failed", "error", err)
			r.setNotice(err.Error())
		}
	case ActionPanUp:
		r.viewport = r.viewport.Pan(0, -panStep)
	case ActionPanDown:
		r.viewport = r.viewport.Pan(0, panStep)
	case ActionPanLeft:
		r.viewport = r.viewport.Pan(-panStep*2, 0)
	case ActionPanRight:
		r.viewport = r.viewport.Pan(panStep*2, 0)
	case ActionZoomIn:
		r.viewport = r.viewport.Zoom(1 / zoomStep)
	case ActionZoomOut:
		r.viewport = r.viewport.Zoom(zoomStep)
	case ActionRecenter:
		r.recenter()
	}
	return true
}

// Click handles a left click at screen cell (x, y). In manual mode a click on
// a point removes it and a click elsewhere on the map adds one.
func (r *Renderer) Click(x, y int) {
	x0, y0, x1, y1 := r.mapArea()
	if x < x0 || x >= x1 || y < y0 || y >= y1 {
		return
	}
	if r.store.Mode() != models.ModeManual {
		r.setNotice("switch to manual mode (m) to edit points")
		return
	}
	mx, my := x-x0, y-y0

	for _, p := range r.store.Points() {
		px, py, ok := r.viewport.Project(p.Lat, p.Lng)
		if ok && px == mx && py == my {
			r.store.RemovePoint(p.ID)
			r.log.Debug("point removed", "id", p.ID)
			return
		}
	}

	lat, lng := r.viewport.Unproject(mx, my)
	if p, ok := r.store.AddPoint(lat, lng); ok {
		r.log.Debug("point added", "id", p.ID, "lat", p.Lat, "lng", p.Lng)
	}
}

func (r *Renderer) recenter() {
	points := r.store.Points()
	if len(points) == 0 {
		return
	}
	coords := make([]models.LatLng, len(points))
	for i, p := range points {
		coords[i] = p.LatLng()
	}
	r.viewport = r.viewport.Fit(coords)
}

func (r *Renderer) setNotice(msg string) {
	r.notice = msg
	r.noticeAt = r.now()
}

// Draw paints the whole screen from a consistent view of the session
func (r *Renderer) Draw() {
	v := r.store.View()
	r.screen.Clear()
	r.drawHeader(v)
	r.drawMap(v)
	r.drawPanel(v)
	r.drawHints(v)
	r.screen.Show()
}

func (r *Renderer) drawHeader(v session.View) {
	w, _ := r.screen.Size()
	fill(r.screen, 0, 0, w, 1, styleHeader)

	x := drawText(r.screen, 1, 0, w, styleHeader, "TOURVIZ  ")
	x = drawText(r.screen, x, 0, w, styleHeader, "SYS.STATUS: ")
	x = drawText(r.screen, x, 0, w, styleHeader.Foreground(statusColor(v.Status)), strings.ToUpper(string(v.Status)))

	mode := "MANUAL"
	if v.Mode == models.ModePreset {
		mode = "PRESET " + v.Preset
	}
	drawText(r.screen, x, 0, w, styleHeader, fmt.Sprintf("  MODE: %s  POINTS: %d", mode, len(v.Points)))
}

func statusColor(s models.RunStatus) tcell.Color {
	switch s {
	case models.RunStatusStarting, models.RunStatusRunning:
		return tcell.ColorYellow
	case models.RunStatusComplete:
		return tcell.ColorLime
	case models.RunStatusError:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

func (r *Renderer) drawMap(v session.View) {
	x0, y0, _, _ := r.mapArea()
	vp := r.viewport
	limit := 4 * (vp.Width + vp.Height)

	for i := 1; i < len(v.Path); i++ {
		ax, ay, aok := vp.Project(v.Path[i-1].Lat, v.Path[i-1].Lng)
		bx, by, bok := vp.Project(v.Path[i].Lat, v.Path[i].Lng)
		if !aok && !bok {
			continue
		}
		if abs(bx-ax) > limit || abs(by-ay) > limit {
			continue
		}
		for _, c := range Line(ax, ay, bx, by) {
			if vp.Contains(c.X, c.Y) {
				r.screen.SetContent(x0+c.X, y0+c.Y, '•', nil, stylePath)
			}
		}
	}

	for _, p := range v.Points {
		px, py, ok := vp.Project(p.Lat, p.Lng)
		if !ok {
			continue
		}
		r.screen.SetContent(x0+px, y0+py, '●', nil, stylePoint)
		drawText(r.screen, x0+px+1, y0+py, x0+vp.Width, stylePointID, fmt.Sprint(p.ID))
	}
}

func (r *Renderer) drawPanel(v session.View) {
	w, h := r.screen.Size()
	_, _, x1, _ := r.mapArea()
	if x1 == w {
		return
	}
	x := x1 + 1
	y := 1
	width := w - x - 1

	row := func(label, value string) {
		nx := drawText(r.screen, x, y, w, styleLabel, fmt.Sprintf("%-12s", label))
		drawText(r.screen, nx, y, w, stylePanel, value)
		y++
	}

	snap := v.Snapshot
	row("ITERATION", fmt.Sprint(snap.IterationNumber))
	row("BEST DIST", fmt.Sprintf("%.2f", snap.BestDistance))
	row("LAST GOAL", fmt.Sprintf("%.2f", snap.LastGoal()))
	row("ROUTE KM", fmt.Sprintf("%.2f", geo.PathLengthKm(v.Path)))
	y++

	distances := make([]float64, len(snap.DistanceHistory))
	for i, s := range snap.DistanceHistory {
		distances[i] = s.Distance
	}
	goals := make([]float64, len(snap.GoalHistory))
	for i, s := range snap.GoalHistory {
		goals[i] = s.Goal
	}
	drawText(r.screen, x, y, w, styleLabel, "DISTANCE")
	drawText(r.screen, x, y+1, w, styleSpark, Sparkline(distances, width))
	drawText(r.screen, x, y+3, w, styleLabel, "GOAL")
	drawText(r.screen, x, y+4, w, styleSpark, Sparkline(goals, width))
	y += 6

	drawText(r.screen, x, y, w, styleLabel, "POPULATION")
	y++
	for i, cell := range snap.PopulationHeatmap {
		cy := y + i/heatmapColumns
		if cy >= h-2 {
			break
		}
		ch, color := Shade(cell.Score)
		cx := x + (i%heatmapColumns)*2
		style := tcell.StyleDefault.Foreground(color)
		r.screen.SetContent(cx, cy, ch, nil, style)
		r.screen.SetContent(cx+1, cy, ch, nil, style)
	}

	if v.Routing {
		drawText(r.screen, x, h-2, w, styleRouting, "computing route…")
	}
}

func (r *Renderer) drawHints(v session.View) {
	w, h := r.screen.Size()
	if h < 2 {
		return
	}
	fill(r.screen, 0, h-1, w, h, styleHint)

	if r.notice != "" && r.now().Sub(r.noticeAt) < noticeTTL {
		drawText(r.screen, 1, h-1, w, styleNotice, r.notice)
		return
	}

	run := "r run"
	if !r.ctrl.CanStart() {
		run = "r ---"
	}
	hints := run + "  x reset  m mode  [ ] preset  arrows pan  +/- zoom  c center  q quit"
	if v.Mode == models.ModeManual {
		hints = "click add/remove  " + hints
	}
	drawText(r.screen, 1, h-1, w, styleHint, hints)
}
