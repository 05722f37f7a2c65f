// Package ui is the vizsync terminal dashboard. One Bubble Tea model drives
// a sunburst view, a treemap view, the timeline controller and chart, the
// map view and the selection broadcaster, so a zoom, a year change or a
// picked entity shows up in every panel at once.
package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/vizsync/pkg/config"
	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/geo"
	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/selection"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
	"github.com/vanderheijden86/vizsync/pkg/watcher"
)

// frameInterval paces transition frames, roughly 60 per second.
const frameInterval = 16 * time.Millisecond

// frameTickMsg advances running zoom transitions.
type frameTickMsg time.Time

// playTickMsg advances timeline playback by one period. Ticks scheduled
// before the latest play or pause carry an old generation and are dropped.
type playTickMsg struct {
	gen uint64
}

// DatasetChangedMsg is sent when a watched dataset file changes on disk.
type DatasetChangedMsg struct {
	Dataset string
}

// DatasetReloadedMsg carries the result of reloading one dataset.
type DatasetReloadedMsg struct {
	Dataset string
	Bundle  *loader.Bundle
	Err     error
}

func frameTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func playTickCmd(period time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(period, func(time.Time) tea.Msg {
		return playTickMsg{gen: gen}
	})
}

// WatchDatasetsCmd waits for the next dataset change and sends
// DatasetChangedMsg.
func WatchDatasetsCmd(s *watcher.Set) tea.Cmd {
	return func() tea.Msg {
		name, ok := <-s.Events()
		if !ok {
			return nil
		}
		return DatasetChangedMsg{Dataset: name}
	}
}

// ReloadDatasetCmd reloads a single dataset off the UI goroutine.
func ReloadDatasetCmd(dataset string, all loader.Paths, specs []loader.SeriesSpec) tea.Cmd {
	var only loader.Paths
	switch dataset {
	case loader.DatasetTree:
		only.Tree = all.Tree
	case loader.DatasetTimeline:
		only.Timeline = all.Timeline
	case loader.DatasetGeo:
		only.Geo = all.Geo
	default:
		return nil
	}
	return func() tea.Msg {
		b, err := loader.LoadBundle(context.Background(), only, specs)
		return DatasetReloadedMsg{Dataset: dataset, Bundle: b, Err: err}
	}
}

// Options wires a Model.
type Options struct {
	Config config.Config
	// Bundle holds the datasets loaded at startup. Nil fields leave their
	// panels empty.
	Bundle *loader.Bundle
	// Paths are the dataset files, used for reloads.
	Paths loader.Paths
	// Watcher reports dataset changes. Nil disables live reload.
	Watcher *watcher.Set
	// Theme overrides the default theme.
	Theme *Theme
}

// Model is the dashboard state.
type Model struct {
	cfg   config.Config
	theme Theme
	paths loader.Paths
	watch *watcher.Set

	width  int
	height int

	tree     *hierarchy.Tree
	sunburst *hierarchy.View
	treemap  *hierarchy.View
	mode     hierarchy.Mode
	cursor   int

	ctrl        *timeline.Controller
	chart       *timeline.Chart
	unbindChart func()

	mapView   *geo.View
	unbindMap func()

	sel *selection.Broadcaster

	picker     EntityPickerModel
	showPicker bool

	framing     bool
	lastFrame   time.Time
	playGen     uint64

	// warnings per dataset; a reload replaces its dataset's entry.
	warnings map[string][]string
	statusMsg     string
	statusIsError bool
}

// NewModel builds the dashboard from the loaded datasets.
func NewModel(opts Options) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	m := Model{
		cfg:    opts.Config,
		theme:  theme,
		paths:  opts.Paths,
		watch:  opts.Watcher,
		width:  100,
		height: 30,
		mode:   hierarchy.Sunburst,
		sel:      selection.New(opts.Config.Selection.Topic),
		warnings: make(map[string][]string),
	}
	if opts.Config.UI.DefaultView == hierarchy.Treemap.String() {
		m.mode = hierarchy.Treemap
	}

	if b := opts.Bundle; b != nil {
		if b.Tree != nil {
			m.setTree(*b.Tree)
		}
		if b.Series != nil {
			m.setSeries(b.Series)
		}
		if b.Markers != nil {
			m.setMarkers(b.Markers)
		}
		for _, err := range b.Failures {
			m.setError(err)
		}
	}

	m.picker = NewEntityPickerModel(m.entities(), theme)
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watch != nil {
		return WatchDatasetsCmd(m.watch)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.picker.SetSize(msg.Width, msg.Height)
		return m, nil

	case frameTickMsg:
		return m.handleFrame(time.Time(msg))

	case playTickMsg:
		return m.handlePlayTick(msg)

	case DatasetChangedMsg:
		debug.Log("ui: %s changed, reloading", msg.Dataset)
		cmds := []tea.Cmd{ReloadDatasetCmd(msg.Dataset, m.paths, m.cfg.Timeline.Series)}
		if m.watch != nil {
			cmds = append(cmds, WatchDatasetsCmd(m.watch))
		}
		return m, tea.Batch(cmds...)

	case DatasetReloadedMsg:
		m.applyReload(msg)
		return m, nil

	case tea.KeyMsg:
		if m.showPicker {
			return m.handlePickerKeys(msg), nil
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.toggleMode()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "enter":
		m.zoomIn()
		return m, m.startFrames()
	case "backspace", "esc":
		m.zoomOut()
		return m, m.startFrames()
	case " ", "space":
		return m, m.togglePlay()
	case "left":
		m.stepYear(-1)
	case "right":
		m.stepYear(1)
	case "s":
		m.cycleSeries()
	case "/":
		m.picker.SetEntities(m.entities())
		m.picker.Reset()
		m.picker.SetSize(m.width, m.height)
		m.showPicker = true
	}
	return m, nil
}

func (m Model) handlePickerKeys(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.showPicker = false
	case "down", "ctrl+n":
		m.picker.MoveDown()
	case "up", "ctrl+p":
		m.picker.MoveUp()
	case "enter":
		if name := m.picker.Selected(); name != "" {
			m.sel.Emit(name)
			m.setStatus(fmt.Sprintf("Selected %s", name))
		}
		m.showPicker = false
	default:
		m.picker.UpdateInput(msg)
	}
	return m
}

// activeView returns the hierarchy view shown in the current mode.
func (m Model) activeView() *hierarchy.View {
	if m.mode == hierarchy.Treemap {
		return m.treemap
	}
	return m.sunburst
}

// focusChildren lists the zoom candidates: visible children of the focus.
func (m Model) focusChildren() []hierarchy.NodeID {
	v := m.activeView()
	if v == nil {
		return nil
	}
	var out []hierarchy.NodeID
	for _, id := range m.tree.Children(v.Focus()) {
		if v.ArcVisible(v.Target(id)) {
			out = append(out, id)
		}
	}
	return out
}

func (m *Model) toggleMode() {
	if m.mode == hierarchy.Sunburst {
		m.mode = hierarchy.Treemap
	} else {
		m.mode = hierarchy.Sunburst
	}
	m.cursor = 0
	m.setStatus(fmt.Sprintf("%s view", m.mode))
}

func (m *Model) moveCursor(delta int) {
	n := len(m.focusChildren())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
}

func (m *Model) zoomIn() {
	children := m.focusChildren()
	if len(children) == 0 {
		m.setStatus("Nothing to zoom into")
		return
	}
	id := children[min(m.cursor, len(children)-1)]
	v := m.activeView()
	if err := v.ZoomIn(id); err != nil {
		m.setError(err)
		return
	}
	m.cursor = 0
	m.setStatus(m.tree.Path(id))
}

func (m *Model) zoomOut() {
	v := m.activeView()
	if v == nil {
		return
	}
	from := v.Focus()
	if !v.Back() {
		m.setStatus("Already at the root")
		return
	}
	m.cursor = 0
	for i, id := range m.focusChildren() {
		if id == from {
			m.cursor = i
			break
		}
	}
	m.setStatus(m.tree.Path(v.Focus()))
}

// startFrames schedules a frame tick when a transition is running and none
// is outstanding.
func (m *Model) startFrames() tea.Cmd {
	if m.framing || !m.animating() {
		return nil
	}
	m.framing = true
	m.lastFrame = time.Time{}
	return frameTickCmd()
}

func (m Model) animating() bool {
	return (m.sunburst != nil && m.sunburst.Animating()) || (m.treemap != nil && m.treemap.Animating())
}

func (m Model) handleFrame(now time.Time) (tea.Model, tea.Cmd) {
	m.framing = false
	dt := frameInterval
	if !m.lastFrame.IsZero() {
		if d := now.Sub(m.lastFrame); d > 0 {
			dt = d
		}
	}
	m.lastFrame = now

	running := false
	for _, v := range []*hierarchy.View{m.sunburst, m.treemap} {
		if v != nil && v.Tick(dt) {
			running = true
		}
	}
	if !running {
		m.lastFrame = time.Time{}
		return m, nil
	}
	m.framing = true
	return m, frameTickCmd()
}

func (m *Model) togglePlay() tea.Cmd {
	if m.ctrl == nil {
		m.setStatus("No timeline loaded")
		return nil
	}
	m.ctrl.Toggle()
	m.playGen++
	if !m.ctrl.Playing() {
		m.setStatus("Paused")
		return nil
	}
	m.setStatus("Playing")
	return playTickCmd(m.ctrl.Period(), m.playGen)
}

func (m Model) handlePlayTick(msg playTickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.playGen || m.ctrl == nil || !m.ctrl.Playing() {
		return m, nil
	}
	if !m.ctrl.Tick(m.ctrl.Period()) {
		m.setStatus(fmt.Sprintf("Reached %d", m.ctrl.Year()))
		return m, nil
	}
	return m, playTickCmd(m.ctrl.Period(), m.playGen)
}

func (m *Model) stepYear(delta int) {
	if m.ctrl == nil {
		return
	}
	m.ctrl.Step(delta)
}

// cycleSeries walks the active series through every key and back to all.
func (m *Model) cycleSeries() {
	if m.ctrl == nil || m.chart == nil {
		return
	}
	keys := m.chart.Table().Keys()
	if len(keys) == 0 {
		return
	}
	active := m.ctrl.State().ActiveSeries
	idx := -1
	for i, k := range keys {
		if k == active {
			idx = i
			break
		}
	}
	if idx == len(keys)-1 {
		m.ctrl.ToggleSeries(active)
	} else {
		m.ctrl.ToggleSeries(keys[idx+1])
	}
	m.setStatus(fmt.Sprintf("Series: %s", m.ctrl.State().ActiveSeries))
}

// entities is the picker option list: node names and map regions.
func (m Model) entities() []string {
	var names []string
	if m.tree != nil {
		names = append(names, m.tree.Names()...)
	}
	if m.mapView != nil {
		names = append(names, m.mapView.Regions()...)
	}
	return names
}

func (m *Model) setTree(root loader.TreeNode) {
	t, report := hierarchy.Build(root)
	var warned []string
	for _, p := range report.Missing {
		warned = append(warned, fmt.Sprintf("%s has no value, using 0", p))
	}
	m.warnings[loader.DatasetTree] = warned
	m.tree = t
	m.sunburst = hierarchy.NewView(t, m.cfg.ViewOptions(hierarchy.Sunburst)...)
	m.treemap = hierarchy.NewView(t, m.cfg.ViewOptions(hierarchy.Treemap)...)
	m.cursor = 0

	sb, tm := m.sunburst, m.treemap
	m.sel.Subscribe("sunburst", func(name string) error {
		sb.Highlight(name)
		return nil
	})
	m.sel.Subscribe("treemap", func(name string) error {
		tm.Highlight(name)
		return nil
	})
}

func (m *Model) setSeries(table *loader.SeriesTable) {
	if m.ctrl == nil {
		ctrl, err := timeline.NewController(table.MinYear, table.MaxYear, timeline.WithPeriod(m.cfg.Timeline.Period))
		if err != nil {
			m.setError(err)
			return
		}
		m.ctrl = ctrl
		if m.mapView != nil {
			m.unbindMap()
			m.unbindMap = m.mapView.Bind(m.ctrl, m.sel)
		}
	} else if err := m.ctrl.Reset(table.MinYear, table.MaxYear); err != nil {
		m.setError(err)
		return
	}

	if m.unbindChart != nil {
		m.unbindChart()
	}
	m.chart = timeline.NewChart(table)
	m.unbindChart = m.chart.Bind(m.ctrl)
	m.warnings[loader.DatasetTimeline] = table.Warnings
}

func (m *Model) setMarkers(table *loader.MarkerTable) {
	if m.unbindMap != nil {
		m.unbindMap()
	}
	m.mapView = geo.NewView(table)
	m.unbindMap = m.mapView.Bind(m.ctrl, m.sel)
	m.warnings[loader.DatasetGeo] = table.Warnings
}

// warningCount totals the data warnings of the datasets on screen.
func (m Model) warningCount() int {
	n := 0
	for _, w := range m.warnings {
		n += len(w)
	}
	return n
}

// applyReload swaps in a reloaded dataset. A failed reload keeps the data
// already on screen.
func (m *Model) applyReload(msg DatasetReloadedMsg) {
	if msg.Err != nil {
		m.setError(fmt.Errorf("reload %s: %w", msg.Dataset, msg.Err))
		return
	}
	if msg.Bundle == nil {
		m.setError(fmt.Errorf("reload %s: no data", msg.Dataset))
		return
	}
	b := msg.Bundle
	switch msg.Dataset {
	case loader.DatasetTree:
		if b.Tree == nil {
			return
		}
		var sbPath, tmPath, mark string
		if m.tree != nil {
			sbPath = m.tree.Path(m.sunburst.Focus())
			tmPath = m.tree.Path(m.treemap.Focus())
			mark = m.sunburst.HighlightedName()
		}
		m.setTree(*b.Tree)
		// The old focus survives when its path still exists.
		if sbPath != "" {
			_ = m.sunburst.FocusPath(sbPath)
			m.sunburst.Finish()
		}
		if tmPath != "" {
			_ = m.treemap.FocusPath(tmPath)
			m.treemap.Finish()
		}
		m.sunburst.Highlight(mark)
		m.treemap.Highlight(mark)
	case loader.DatasetTimeline:
		if b.Series != nil {
			m.setSeries(b.Series)
		}
	case loader.DatasetGeo:
		if b.Markers != nil {
			m.setMarkers(b.Markers)
		}
	}
	m.setStatus(fmt.Sprintf("Reloaded %s", msg.Dataset))
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	debug.Warn("ui: %v", err)
	m.statusMsg = err.Error()
	m.statusIsError = true
}
