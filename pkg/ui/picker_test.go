package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeInto(p *EntityPickerModel, s string) {
	for _, r := range s {
		p.UpdateInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestEntityPicker_DedupesAndSorts(t *testing.T) {
	p := NewEntityPickerModel([]string{"India", "Asia", "", "India", "Africa"}, TestTheme())
	if got := p.FilteredCount(); got != 3 {
		t.Fatalf("FilteredCount = %d, want 3", got)
	}
	if got := p.Selected(); got != "Africa" {
		t.Errorf("Selected = %q, want Africa", got)
	}
}

func TestEntityPicker_Navigation(t *testing.T) {
	p := NewEntityPickerModel([]string{"a", "b", "c"}, TestTheme())
	p.MoveUp()
	if p.Selected() != "a" {
		t.Errorf("MoveUp at top should stay, got %q", p.Selected())
	}
	p.MoveDown()
	p.MoveDown()
	p.MoveDown()
	if p.Selected() != "c" {
		t.Errorf("MoveDown should clamp at the end, got %q", p.Selected())
	}
}

func TestEntityPicker_Filter(t *testing.T) {
	p := NewEntityPickerModel([]string{"Africa", "SouthernAfrica", "WesternAfrica", "Asia", "Nigeria"}, TestTheme())

	typeInto(&p, "africa")
	if p.InputValue() != "africa" {
		t.Fatalf("InputValue = %q", p.InputValue())
	}
	if got := p.FilteredCount(); got != 3 {
		t.Errorf("FilteredCount = %d, want 3", got)
	}
	if got := p.Selected(); got != "Africa" {
		t.Errorf("exact match should rank first, got %q", got)
	}

	p.Reset()
	if p.InputValue() != "" || p.FilteredCount() != 5 {
		t.Error("Reset should clear the filter")
	}

	typeInto(&p, "zzz")
	if p.Selected() != "" {
		t.Errorf("no match should select nothing, got %q", p.Selected())
	}
}

func TestFuzzyScore(t *testing.T) {
	exact := fuzzyScore("Asia", "asia")
	prefix := fuzzyScore("AsiaPacific", "asia")
	contains := fuzzyScore("EastAsia", "asia")
	subseq := fuzzyScore("America South", "ams")

	if !(exact > prefix && prefix > contains && contains > subseq && subseq > 0) {
		t.Errorf("unexpected ranking: exact=%d prefix=%d contains=%d subseq=%d", exact, prefix, contains, subseq)
	}
	if fuzzyScore("Chad", "xyz") != 0 {
		t.Error("non-matching query should score 0")
	}
}

func TestEntityPicker_View(t *testing.T) {
	p := NewEntityPickerModel([]string{"Chad", "India"}, TestTheme())
	p.SetSize(80, 24)
	view := p.View()
	for _, want := range []string{"Select Entity", "Chad", "India"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
