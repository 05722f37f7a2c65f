package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

// wideLayout is the terminal width from which panels sit side by side.
const wideLayout = 100

func (m Model) View() string {
	if m.showPicker {
		return m.picker.View()
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	if m.width >= wideLayout {
		left := m.width / 2
		right := m.width - left
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderHierarchyPanel(left),
			lipgloss.JoinVertical(lipgloss.Left,
				m.renderTimelinePanel(right),
				m.renderMapPanel(right),
			),
		)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.renderHierarchyPanel(m.width),
			m.renderTimelinePanel(m.width),
			m.renderMapPanel(m.width),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("vizsync · %s", m.mode)
	if v := m.activeView(); v != nil {
		title += " · " + m.tree.Path(v.Focus())
	}
	header := m.theme.Header.Render(truncate(title, max(m.width-2, 1)))
	if n := m.warningCount(); n > 0 {
		header += " " + m.theme.Renderer.NewStyle().Foreground(ColorWarning).Render(fmt.Sprintf("⚠ %d warnings", n))
	}
	return header
}

// panel frames content with a title. inner is the content width.
func (m Model) panel(title string, width int, lines []string) string {
	inner := max(width-4, 1)
	body := append([]string{m.theme.PrimaryBold.Render(truncate(title, inner))}, lines...)
	return m.theme.Panel.Width(inner + 2).Render(strings.Join(body, "\n"))
}

func (m Model) renderHierarchyPanel(width int) string {
	inner := max(width-4, 1)
	v := m.activeView()
	if v == nil {
		return m.panel("Hierarchy", width, []string{m.theme.MutedText.Render("no tree loaded")})
	}

	focus := m.tree.Node(v.Focus())
	lines := []string{
		m.theme.SecondaryText.Render(truncate(fmt.Sprintf("%s  %s", m.tree.Path(focus.ID), formatValue(focus.Value)), inner)),
	}

	nameW := min(18, inner/3)
	valueW := 9
	barW := max(inner-nameW-valueW-6, 4)

	children := m.focusChildren()
	if len(children) == 0 {
		lines = append(lines, m.theme.MutedText.Render("(no children)"))
	}
	for i, id := range children {
		st := v.NodeState(id)
		n := m.tree.Node(id)

		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		zoom := " "
		if v.Zoomable(id) {
			zoom = "▸"
		}

		name := fitCell(n.Name, nameW)
		switch {
		case st.Highlighted:
			name = m.theme.Marked.Render(name)
		case i == m.cursor:
			name = m.theme.PrimaryBold.Render(name)
		}

		// Current spans are relative to the focus, so their angular width is
		// the share of the focus and animates with the zoom.
		share := st.Current.Width() / hierarchy.FullAngle
		bar := RenderMiniBar(share, barW, m.theme.NodeColor(n.Leaf(), st.Highlighted), m.theme)
		value := fmt.Sprintf("%*s", valueW, formatValue(n.Value))
		lines = append(lines, marker+name+" "+bar+" "+value+" "+zoom)
	}

	if mark := v.HighlightedName(); mark != "" {
		lines = append(lines, m.theme.Marked.Render(truncate("selected: "+mark, inner)))
	}
	if v.Animating() {
		lines = append(lines, m.theme.MutedText.Render(fmt.Sprintf("zooming %3.0f%%", v.Progress()*100)))
	}
	return m.panel(fmt.Sprintf("Hierarchy (%s)", m.mode), width, lines)
}

func (m Model) renderTimelinePanel(width int) string {
	inner := max(width-4, 1)
	if m.ctrl == nil || m.chart == nil {
		return m.panel("Timeline", width, []string{m.theme.MutedText.Render("no timeline loaded")})
	}

	st := m.ctrl.State()
	state := m.theme.Renderer.NewStyle().Foreground(m.theme.Paused).Render("❚❚ paused")
	if st.Playing {
		state = m.theme.Renderer.NewStyle().Foreground(m.theme.Playing).Render("▶ playing")
	}

	sliderW := max(inner-14, 4)
	lines := []string{
		fmt.Sprintf("%d %s %d", st.Min, RenderSlider(st.Min, st.Max, st.Year, sliderW), st.Max),
		fmt.Sprintf("year %d  %s", st.Year, state),
	}

	table := m.chart.Table()
	hi := m.chart.Extent(table.MaxYear)
	rates := m.chart.RelativeRates(st.Year)
	keyW := min(10, inner/4)
	rateW := 9
	sparkW := max(inner-keyW-rateW-2, 4)

	for i, s := range m.chart.Truncated(st.Year) {
		values := make([]float64, len(s.Points))
		for j, p := range s.Points {
			values[j] = p.Value
		}
		if len(values) > sparkW {
			values = values[len(values)-sparkW:]
		}

		style := m.theme.Renderer.NewStyle().Foreground(ThemeFg(seriesHex(s.Color)))
		if m.chart.Opacity(s.Key) < 1 {
			style = m.theme.MutedText
		}
		rate := rates[i].Percent
		rateText := m.theme.Renderer.NewStyle().Foreground(m.theme.RateColor(rate)).
			Render(fmt.Sprintf("%*s", rateW, formatRate(rate)))
		lines = append(lines, style.Render(fitCell(s.Key, keyW)+" "+padRight(Sparkline(values, hi), sparkW))+" "+rateText)
	}

	title := "Timeline"
	if st.ActiveSeries != timeline.AllSeries {
		title += " · " + st.ActiveSeries
	}
	return m.panel(title, width, lines)
}

func (m Model) renderMapPanel(width int) string {
	inner := max(width-4, 1)
	if m.mapView == nil {
		return m.panel("Map", width, []string{m.theme.MutedText.Render("no map loaded")})
	}

	topN := m.cfg.Network.TopN
	if topN <= 0 {
		topN = 10
	}
	nameW := min(20, inner/2)
	parentW := max(inner-nameW-14, 4)

	var lines []string
	for _, p := range m.mapView.Top(topN) {
		swatch := m.theme.Renderer.NewStyle().Foreground(DataFg(p.Color)).Render("●")
		value := "-"
		if p.OK {
			value = formatValue(p.Value)
		}
		name := fitCell(p.Name, nameW)
		if p.Highlighted {
			name = m.theme.Marked.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %8s", swatch, name, m.theme.SecondaryText.Render(fitCell(p.Parent, parentW)), value))
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.MutedText.Render("(no markers)"))
	}
	if h := m.mapView.Highlighted(); h != "" {
		lines = append(lines, m.theme.Marked.Render(truncate("selected: "+h, inner)))
	}
	return m.panel(fmt.Sprintf("Map %d", m.mapView.Year()), width, lines)
}

func (m Model) renderFooter() string {
	keys := "tab view · j/k move · enter zoom · esc back · space play · ←/→ year · s series · / pick · q quit"
	line := m.theme.MutedText.Render(truncate(keys, max(m.width, 1)))
	if m.statusMsg == "" {
		return lipgloss.JoinVertical(lipgloss.Left, RenderDivider(m.width), line)
	}
	style := m.theme.InfoText
	if m.statusIsError {
		style = m.theme.ErrorText
	}
	return lipgloss.JoinVertical(lipgloss.Left, RenderDivider(m.width), style.Render(truncate(m.statusMsg, max(m.width, 1))), line)
}

// seriesHex resolves a configured series colour to hex for the terminal.
// Names the terminal cannot take directly fall back to the primary colour.
func seriesHex(c string) string {
	if strings.HasPrefix(c, "#") {
		return c
	}
	if hex, ok := namedColors[strings.ToLower(c)]; ok {
		return hex
	}
	return ColorPrimary.Dark
}

var namedColors = map[string]string{
	"purple": "#800080",
	"red":    "#ff0000",
	"blue":   "#0000ff",
	"green":  "#008000",
	"orange": "#ffa500",
	"yellow": "#ffff00",
	"grey":   "#808080",
	"gray":   "#808080",
	"black":  "#000000",
}
