package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/vizsync/pkg/config"
	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/testutil"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
	"github.com/vanderheijden86/vizsync/pkg/watcher"
)

const seriesCSV = `Year,< 5,> 70
1990,10,40
1991,9,38
1992,8,36
`

const markersCSV = `geoAreaName,parentName,X,Y,value_latest_year,value_1990,value_1991,value_1992
India,Asia,78.9,20.6,199,210,204,199
Chad,Africa,18.7,15.4,142,150,0,142
`

var twoSeries = []loader.SeriesSpec{
	{Key: "< 5", Color: "purple"},
	{Key: "> 70", Color: "#ff0000"},
}

func testBundle(t *testing.T) *loader.Bundle {
	t.Helper()
	series, err := loader.ParseSeries(strings.NewReader(seriesCSV), twoSeries, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseSeries: %v", err)
	}
	markers, err := loader.ParseMarkers(strings.NewReader(markersCSV), loader.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseMarkers: %v", err)
	}
	tree := testutil.World()
	return &loader.Bundle{Tree: &tree, Series: series, Markers: markers}
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Timeline.Series = twoSeries
	return cfg
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	theme := TestTheme()
	return NewModel(Options{Config: testConfig(), Bundle: testBundle(t), Theme: &theme})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func childNames(m Model) []string {
	var out []string
	for _, id := range m.focusChildren() {
		out = append(out, m.tree.Node(id).Name)
	}
	return out
}

func TestNewModel_WiresEveryDataset(t *testing.T) {
	m := newTestModel(t)

	if m.mode != hierarchy.Sunburst {
		t.Errorf("default mode = %s, want sunburst", m.mode)
	}
	// Antarctica has no value, so its arc is invisible and not a zoom target.
	testutil.AssertStrings(t, "focus children", childNames(m), []string{"Asia", "Africa"})

	if m.ctrl == nil || m.ctrl.Year() != 1992 {
		t.Fatalf("controller should start at the last year")
	}
	if m.chart.EndYear() != 1992 {
		t.Errorf("chart end year = %d, want 1992", m.chart.EndYear())
	}
	if m.mapView.Year() != 1992 {
		t.Errorf("map year = %d, want 1992", m.mapView.Year())
	}
	if m.sel.Topic() != "countrySelected" {
		t.Errorf("topic = %q", m.sel.Topic())
	}
}

func TestNewModel_DefaultViewFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.UI.DefaultView = "treemap"
	theme := TestTheme()
	m := NewModel(Options{Config: cfg, Bundle: testBundle(t), Theme: &theme})
	if m.mode != hierarchy.Treemap {
		t.Errorf("mode = %s, want treemap", m.mode)
	}
}

func TestZoomInAndOut(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, "j")
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("zoom should schedule a frame tick")
	}
	if got := m.tree.Path(m.sunburst.Focus()); got != "World/Africa" {
		t.Fatalf("focus = %q, want World/Africa", got)
	}
	if m.statusMsg != "World/Africa" {
		t.Errorf("status = %q", m.statusMsg)
	}
	testutil.AssertStrings(t, "children after zoom", childNames(m), []string{"WesternAfrica", "SouthernAfrica"})

	// The treemap view keeps its own focus.
	if !m.treemap.AtRoot() {
		t.Error("treemap focus should not follow the sunburst")
	}

	m, _ = press(t, m, "esc")
	if !m.sunburst.AtRoot() {
		t.Fatal("esc should zoom back to the root")
	}
	if m.cursor != 1 {
		t.Errorf("cursor should return to Africa, got %d", m.cursor)
	}

	m, _ = press(t, m, "backspace")
	if m.statusMsg != "Already at the root" {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestZoomIntoLeafIsRejected(t *testing.T) {
	m := newTestModel(t)
	// World -> Asia -> SouthAsia, then India is a leaf.
	m, _ = press(t, m, "enter", "enter", "enter")
	if got := m.tree.Path(m.sunburst.Focus()); got != "World/Asia/SouthAsia" {
		t.Fatalf("focus = %q", got)
	}
	if !m.statusIsError || !strings.Contains(m.statusMsg, "India") {
		t.Errorf("zooming into a leaf should report an error, got %q", m.statusMsg)
	}
	if got := m.tree.Path(m.sunburst.Focus()); got != "World/Asia/SouthAsia" {
		t.Errorf("focus moved to %q", got)
	}
}

func TestFrameTicksFinishTransition(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, "enter")
	if cmd == nil || !m.framing {
		t.Fatal("expected an outstanding frame tick")
	}

	// A second zoom key while framing must not schedule another tick.
	_, cmd = press(t, m, "esc")
	if cmd != nil {
		t.Error("only one frame tick may be outstanding")
	}

	t0 := time.Now()
	m, cmd = send(t, m, frameTickMsg(t0))
	if cmd == nil || !m.sunburst.Animating() {
		t.Fatal("transition should still be running after one frame")
	}
	m, cmd = send(t, m, frameTickMsg(t0.Add(time.Second)))
	if cmd != nil {
		t.Error("no frame tick after the transition finished")
	}
	if m.sunburst.Animating() || m.framing {
		t.Error("transition should be finished")
	}
}

func TestTabSwitchesView(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "tab")
	if m.mode != hierarchy.Treemap {
		t.Fatalf("mode = %s, want treemap", m.mode)
	}
	if !strings.Contains(m.View(), "treemap") {
		t.Error("header should name the treemap view")
	}
	m, _ = press(t, m, "enter")
	if got := m.tree.Path(m.treemap.Focus()); got != "World/Asia" {
		t.Errorf("treemap focus = %q", got)
	}
	if !m.sunburst.AtRoot() {
		t.Error("sunburst should stay at the root")
	}
	m, _ = press(t, m, "tab")
	if m.mode != hierarchy.Sunburst {
		t.Errorf("mode = %s, want sunburst", m.mode)
	}
}

func TestPlayback(t *testing.T) {
	m := newTestModel(t)

	m, cmd := press(t, m, "space")
	if cmd == nil {
		t.Fatal("play should schedule a play tick")
	}
	if !m.ctrl.Playing() || m.ctrl.Year() != 1990 {
		t.Fatalf("play at the last year should rewind, year = %d", m.ctrl.Year())
	}

	m, cmd = send(t, m, playTickMsg{gen: m.playGen})
	if m.ctrl.Year() != 1991 || cmd == nil {
		t.Fatalf("tick should advance to 1991 and reschedule, year = %d", m.ctrl.Year())
	}
	if m.chart.EndYear() != 1991 || m.mapView.Year() != 1991 {
		t.Error("chart and map should follow the controller")
	}

	m, cmd = send(t, m, playTickMsg{gen: m.playGen})
	if m.ctrl.Year() != 1992 || cmd == nil {
		t.Fatalf("year = %d, want 1992", m.ctrl.Year())
	}
	m, cmd = send(t, m, playTickMsg{gen: m.playGen})
	if cmd != nil || m.ctrl.Playing() {
		t.Error("playback should stop at the last year")
	}
	if m.ctrl.Year() != 1992 {
		t.Errorf("year = %d, want 1992", m.ctrl.Year())
	}
}

func TestPlayTickFromBeforePauseIsDropped(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, "space")
	if cmd == nil {
		t.Fatal("expected a play tick")
	}
	stale := m.playGen
	m, _ = press(t, m, "space")
	if m.ctrl.Playing() {
		t.Fatal("second space should pause")
	}
	m, cmd = press(t, m, "space")
	if cmd == nil {
		t.Fatal("resuming should schedule a fresh tick")
	}
	year := m.ctrl.Year()

	m, cmd = send(t, m, playTickMsg{gen: stale})
	if cmd != nil || m.ctrl.Year() != year {
		t.Errorf("stale tick moved the year to %d or rescheduled", m.ctrl.Year())
	}
	m, cmd = send(t, m, playTickMsg{gen: m.playGen})
	if cmd == nil || m.ctrl.Year() != year+1 {
		t.Errorf("current tick should advance to %d, got %d", year+1, m.ctrl.Year())
	}
}

func TestArrowsStepYearAndStopPlayback(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "space", "right")
	if m.ctrl.Playing() {
		t.Error("stepping should stop playback")
	}
	if m.ctrl.Year() != 1991 {
		t.Errorf("year = %d, want 1991", m.ctrl.Year())
	}
	m, _ = press(t, m, "left", "left", "left")
	if m.ctrl.Year() != 1990 {
		t.Errorf("year should clamp at 1990, got %d", m.ctrl.Year())
	}
}

func TestCycleSeries(t *testing.T) {
	m := newTestModel(t)
	want := []string{"< 5", "> 70", timeline.AllSeries, "< 5"}
	for _, w := range want {
		m, _ = press(t, m, "s")
		if got := m.ctrl.State().ActiveSeries; got != w {
			t.Fatalf("active series = %q, want %q", got, w)
		}
	}
	if m.chart.Opacity("> 70") != timeline.Dimmed {
		t.Error("inactive series should be dimmed")
	}
}

func TestPickerEmitsSelection(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "/")
	if !m.showPicker {
		t.Fatal("/ should open the picker")
	}
	m, _ = press(t, m, "A", "f", "r", "i", "c", "a")
	if got := m.picker.Selected(); got != "Africa" {
		t.Fatalf("picker selection = %q, want Africa", got)
	}
	m, _ = press(t, m, "enter")
	if m.showPicker {
		t.Error("enter should close the picker")
	}
	if m.sunburst.HighlightedName() != "Africa" || m.treemap.HighlightedName() != "Africa" {
		t.Error("hierarchy views should highlight the selection")
	}
	if m.mapView.Highlighted() != "Africa" {
		t.Error("map should highlight the selection")
	}
	if !strings.Contains(m.View(), "selected: Africa") {
		t.Error("panels should show the selection")
	}

	// A year change clears the map highlight only.
	m, _ = press(t, m, "left")
	if m.mapView.Highlighted() != "" {
		t.Error("map highlight should clear on a year change")
	}
	if m.sunburst.HighlightedName() != "Africa" {
		t.Error("hierarchy highlight should survive a year change")
	}
}

func TestPickerEscCancels(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "/", "down", "esc")
	if m.showPicker {
		t.Error("esc should close the picker")
	}
	if m.sunburst.HighlightedName() != "" {
		t.Error("cancel must not emit")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestEmptyBundle(t *testing.T) {
	theme := TestTheme()
	m := NewModel(Options{Config: testConfig(), Theme: &theme})
	m, cmd := press(t, m, "space", "enter", "esc", "j", "s", "left", "tab")
	if cmd != nil {
		t.Error("no commands expected without data")
	}
	view := m.View()
	for _, want := range []string{"no tree loaded", "no timeline loaded", "no map loaded"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLoadFailuresShowInStatus(t *testing.T) {
	theme := TestTheme()
	b := &loader.Bundle{Failures: []error{&loader.LoadError{Dataset: loader.DatasetGeo, Path: "geo.csv", Err: os.ErrNotExist}}}
	m := NewModel(Options{Config: testConfig(), Bundle: b, Theme: &theme})
	if !m.statusIsError || !strings.Contains(m.statusMsg, "geo") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestViewRendersPanels(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	view := m.View()
	for _, want := range []string{"Hierarchy (sunburst)", "Asia", "4,501", "Timeline", "year 1992", "-20.0%", "Map 1992", "India"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})
	if !strings.Contains(m.View(), "Timeline") {
		t.Error("narrow layout should still render the timeline")
	}
}

func TestReloadTreeKeepsFocusAndHighlight(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "enter")
	m.sunburst.Finish()
	m.sel.Emit("India")

	updated := testutil.Branch("World",
		testutil.Branch("Asia", testutil.Leaf("India", 10), testutil.Leaf("Nepal", 5)),
		testutil.Leaf("Europe", 3),
	)
	m, _ = send(t, m, DatasetReloadedMsg{Dataset: loader.DatasetTree, Bundle: &loader.Bundle{Tree: &updated}})

	if got := m.tree.Path(m.sunburst.Focus()); got != "World/Asia" {
		t.Errorf("focus after reload = %q, want World/Asia", got)
	}
	if m.sunburst.HighlightedName() != "India" {
		t.Error("highlight should survive a reload")
	}
	testutil.AssertStrings(t, "children", childNames(m), []string{"India", "Nepal"})

	// New views are subscribed under the same keys.
	m.sel.Emit("Nepal")
	if m.treemap.HighlightedName() != "Nepal" {
		t.Error("reloaded treemap should receive selections")
	}
	if m.statusMsg != "Reloaded tree" {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestReloadTimelineResetsController(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, "space")

	table, err := loader.ParseSeries(strings.NewReader("Year,< 5,> 70\n2000,1,2\n2001,2,3\n"), twoSeries, loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m, _ = send(t, m, DatasetReloadedMsg{Dataset: loader.DatasetTimeline, Bundle: &loader.Bundle{Series: table}})

	st := m.ctrl.State()
	if st.Min != 2000 || st.Max != 2001 || st.Year != 2001 || st.Playing {
		t.Errorf("state after reload = %+v", st)
	}
	if m.chart.Table() != table || m.chart.EndYear() != 2001 {
		t.Error("chart should be rebuilt and bound")
	}
	if m.mapView.Year() != 2001 {
		t.Errorf("map year = %d, want 2001", m.mapView.Year())
	}
}

func TestReloadFailureKeepsData(t *testing.T) {
	m := newTestModel(t)
	before := m.tree
	m, _ = send(t, m, DatasetReloadedMsg{Dataset: loader.DatasetTree, Err: errors.New("boom")})
	if m.tree != before {
		t.Error("failed reload must keep the current tree")
	}
	if !m.statusIsError || !strings.Contains(m.statusMsg, "boom") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestReloadWithoutBundleReportsNoData(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(t, m, DatasetReloadedMsg{Dataset: loader.DatasetGeo})
	if !m.statusIsError || !strings.Contains(m.statusMsg, "reload geo: no data") {
		t.Errorf("status = %q", m.statusMsg)
	}
	if strings.Contains(m.statusMsg, "%!") {
		t.Errorf("status has a formatting artefact: %q", m.statusMsg)
	}
	if m.mapView == nil {
		t.Error("the map should keep its data")
	}
}

func TestSeriesWarningsCountedOnce(t *testing.T) {
	const gappy = "Year,< 5,> 70\n1990,10,40\n1991,,38\n1992,8,36\n"
	series, err := loader.ParseSeries(strings.NewReader(gappy), twoSeries, loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Warnings) != 1 {
		t.Fatalf("fixture should carry one warning, got %v", series.Warnings)
	}
	b := testBundle(t)
	b.Series = series
	b.Warnings = append(b.Warnings, series.Warnings...)
	theme := TestTheme()
	m := NewModel(Options{Config: testConfig(), Bundle: b, Theme: &theme})

	want := len(m.warnings[loader.DatasetTree]) + 1
	if got := m.warningCount(); got != want {
		t.Errorf("warnings = %d, want %d", got, want)
	}
	m, _ = send(t, m, DatasetReloadedMsg{Dataset: loader.DatasetTimeline, Bundle: &loader.Bundle{Series: series, Warnings: series.Warnings}})
	if got := m.warningCount(); got != want {
		t.Errorf("after reload warnings = %d, want %d", got, want)
	}
	if !strings.Contains(m.View(), fmt.Sprintf("%d warnings", want)) {
		t.Error("header should show the warning count")
	}
}

func TestReloadDatasetCmd(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "tree.json", `{"name":"root","children":[{"name":"a","value":1}]}`)

	cmd := ReloadDatasetCmd(loader.DatasetTree, loader.Paths{Tree: path, Timeline: filepath.Join(dir, "missing.csv")}, nil)
	msg, ok := cmd().(DatasetReloadedMsg)
	if !ok {
		t.Fatalf("unexpected message %T", cmd())
	}
	if msg.Err != nil {
		t.Fatalf("only the changed dataset should load: %v", msg.Err)
	}
	if msg.Bundle.Tree == nil || msg.Bundle.Tree.Name != "root" {
		t.Error("tree not reloaded")
	}

	if ReloadDatasetCmd(loader.DatasetGenotype, loader.Paths{}, nil) != nil {
		t.Error("genotype has no dashboard panel to reload")
	}
}

func TestDatasetChangedTriggersReload(t *testing.T) {
	m := newTestModel(t)
	_, cmd := send(t, m, DatasetChangedMsg{Dataset: loader.DatasetTimeline})
	if cmd == nil {
		t.Fatal("a dataset change should start a reload")
	}
}

func TestWatchDatasetsCmd(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "tree.json", `{"name":"root"}`)
	set, err := watcher.NewSet(map[string]string{loader.DatasetTree: path},
		watcher.WithForcePoll(true),
		watcher.WithPollInterval(20*time.Millisecond),
		watcher.WithDebounceDuration(10*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := set.Start(); err != nil {
		t.Fatal(err)
	}
	defer set.Stop()

	done := make(chan tea.Msg, 1)
	go func() { done <- WatchDatasetsCmd(set)() }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"name":"root","value":2}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-done:
		if got, ok := msg.(DatasetChangedMsg); !ok || got.Dataset != loader.DatasetTree {
			t.Errorf("msg = %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for DatasetChangedMsg")
	}
}
