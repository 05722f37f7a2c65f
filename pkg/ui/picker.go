package ui

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// EntityPickerModel is the fuzzy search popup behind the entity dropdown.
// Picking an entry emits it on the selection broadcaster.
type EntityPickerModel struct {
	all           []string
	filtered      []string
	input         textinput.Model
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewEntityPickerModel creates a picker over names, deduplicated and sorted.
func NewEntityPickerModel(names []string, theme Theme) EntityPickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30
	ti.Focus()

	m := EntityPickerModel{input: ti, theme: theme}
	m.SetEntities(names)
	return m
}

// SetSize updates the picker dimensions
func (m *EntityPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetEntities replaces the option list.
func (m *EntityPickerModel) SetEntities(names []string) {
	seen := make(map[string]bool, len(names))
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			sorted = append(sorted, n)
		}
	}
	sort.Strings(sorted)
	m.all = sorted
	m.filter()
}

// MoveUp moves selection up
func (m *EntityPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *EntityPickerModel) MoveDown() {
	if m.selectedIndex < len(m.filtered)-1 {
		m.selectedIndex++
	}
}

// Selected returns the highlighted entry, or "" when nothing matches.
func (m *EntityPickerModel) Selected() string {
	if len(m.filtered) == 0 || m.selectedIndex >= len(m.filtered) {
		return ""
	}
	return m.filtered[m.selectedIndex]
}

// UpdateInput processes a key message for the text input
func (m *EntityPickerModel) UpdateInput(msg interface{}) {
	m.input, _ = m.input.Update(msg)
	m.filter()
}

// Reset clears the input and resets selection
func (m *EntityPickerModel) Reset() {
	m.input.SetValue("")
	m.filter()
}

// InputValue returns the current input value
func (m *EntityPickerModel) InputValue() string {
	return m.input.Value()
}

// FilteredCount returns the number of matching entries
func (m *EntityPickerModel) FilteredCount() int {
	return len(m.filtered)
}

func (m *EntityPickerModel) filter() {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if query == "" {
		m.filtered = m.all
		m.selectedIndex = 0
		return
	}

	type scored struct {
		name  string
		score int
	}

	var matches []scored
	for _, name := range m.all {
		if score := fuzzyScore(name, query); score > 0 {
			matches = append(matches, scored{name, score})
		}
	}

	// Sort by score (higher is better), then alphabetically
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	m.filtered = make([]string, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.name
	}

	if m.selectedIndex >= len(m.filtered) {
		m.selectedIndex = len(m.filtered) - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
}

// fuzzyScore returns a score for how well query matches name (0 = no match).
// Exact, prefix and substring matches rank above a scattered subsequence,
// which earns bonuses for consecutive runs and word starts.
func fuzzyScore(name, query string) int {
	name = strings.ToLower(name)
	query = strings.ToLower(query)

	if name == query {
		return 1000
	}
	if strings.HasPrefix(name, query) {
		return 500 + len(query)
	}
	if strings.Contains(name, query) {
		return 200 + len(query)
	}

	li, qi := 0, 0
	score := 0
	consecutive := 0
	lastMatchIdx := -1

	for li < len(name) && qi < len(query) {
		if name[li] == query[qi] {
			qi++
			matchScore := 10

			if lastMatchIdx == li-1 {
				consecutive++
				matchScore += consecutive * 5
			} else {
				consecutive = 0
			}

			if li == 0 || !unicode.IsLetter(rune(name[li-1])) {
				matchScore += 15
			}

			score += matchScore
			lastMatchIdx = li
		}
		li++
	}

	if qi == len(query) {
		return score
	}
	return 0
}

// View renders the picker overlay
func (m *EntityPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 40
	if m.width < 50 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	maxVisible := 10
	if m.height < 15 {
		maxVisible = m.height - 7
	}
	if maxVisible < 3 {
		maxVisible = 3
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Select Entity"))
	lines = append(lines, "")

	inputStyle := t.Renderer.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.Secondary).
		Padding(0, 1).
		Width(boxWidth - 6)
	lines = append(lines, inputStyle.Render(m.input.View()))
	lines = append(lines, "")

	if len(m.filtered) == 0 {
		dimStyle := t.Renderer.NewStyle().
			Foreground(t.Secondary).
			Italic(true)
		lines = append(lines, dimStyle.Render("  No matching entities"))
	} else {
		start := 0
		if m.selectedIndex >= maxVisible {
			start = m.selectedIndex - maxVisible + 1
		}
		end := min(start+maxVisible, len(m.filtered))

		for i := start; i < end; i++ {
			isSelected := i == m.selectedIndex

			itemStyle := t.Renderer.NewStyle()
			prefix := "  "
			if isSelected {
				itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
				prefix = "> "
			} else {
				itemStyle = itemStyle.Foreground(t.Base.GetForeground())
			}

			lines = append(lines, itemStyle.Render(prefix+truncateRunesHelper(m.filtered[i], boxWidth-8, "...")))
		}

		if len(m.filtered) > maxVisible {
			countStyle := t.Renderer.NewStyle().
				Foreground(t.Secondary).
				Italic(true)
			lines = append(lines, "")
			lines = append(lines, countStyle.Render(
				"  "+strings.Repeat(" ", boxWidth/2-10)+
					fmt.Sprintf("(%d/%d)", m.selectedIndex+1, len(m.filtered)),
			))
		}
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("↑/↓: navigate | enter: select | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
