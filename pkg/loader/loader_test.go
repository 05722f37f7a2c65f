package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTree = `{
  "name": "World",
  "children": [
    {"name": "Asia", "children": [
      {"name": "India", "value": 2690},
      {"name": "China", "value": "780"}
    ]},
    {"name": "Africa", "children": [
      {"name": "Nigeria", "value": null},
      {"name": "SouthAfrica"}
    ]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseTree(t *testing.T) {
	root, err := ParseTree(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	if root.Name != "World" || len(root.Children) != 2 {
		t.Fatalf("unexpected root: %+v", root)
	}
	asia := root.Children[0]
	if asia.Value != nil {
		t.Errorf("internal node without value should have nil Value")
	}
	if v := asia.Children[0].Value; v == nil || *v != 2690 {
		t.Errorf("India value = %v, want 2690", v)
	}
	if v := asia.Children[1].Value; v == nil || *v != 780 {
		t.Errorf("numeric string value = %v, want 780", v)
	}
	africa := root.Children[1]
	if africa.Children[0].Value != nil || africa.Children[1].Value != nil {
		t.Errorf("null and absent values should both be nil")
	}
	if got := root.Count(); got != 7 {
		t.Errorf("Count = %d, want 7", got)
	}
}

func TestParseTreeStripsBOM(t *testing.T) {
	data := "\xEF\xBB\xBF" + `{"name":"root","value":1}`
	root, err := ParseTree(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseTree with BOM: %v", err)
	}
	if root.Name != "root" || !root.Leaf() {
		t.Errorf("unexpected root %+v", root)
	}
}

func TestParseTreeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"malformed", `{"name": "x", "children": [}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTree(strings.NewReader(tt.in)); err == nil {
				t.Errorf("expected error for %q", tt.in)
			}
		})
	}
}

func TestLoadTreeMissingFile(t *testing.T) {
	_, err := LoadTree(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsLoadFailure(err) {
		t.Errorf("expected *LoadError, got %T", err)
	}
	var le *LoadError
	if errors.As(err, &le) && le.Dataset != DatasetTree {
		t.Errorf("dataset = %q, want %q", le.Dataset, DatasetTree)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

const sampleSeries = `Year,< 5,> 70,5 - 14,15 - 49,50 - 69
1991,10,200,3,40,80
1990,12,210,4,,85
bad,1,1,1,1,1
`

func TestParseSeries(t *testing.T) {
	var warned []string
	tbl, err := ParseSeries(strings.NewReader(sampleSeries), nil, ParseOptions{
		WarningHandler: func(msg string) { warned = append(warned, msg) },
	})
	if err != nil {
		t.Fatalf("ParseSeries: %v", err)
	}
	if tbl.MinYear != 1990 || tbl.MaxYear != 1991 {
		t.Errorf("year range = %d..%d, want 1990..1991", tbl.MinYear, tbl.MaxYear)
	}
	if len(tbl.Series) != len(DefaultSeries) {
		t.Fatalf("series count = %d, want %d", len(tbl.Series), len(DefaultSeries))
	}
	under5 := tbl.Series[0]
	if under5.Points[0].Year != 1990 || under5.Points[0].Value != 12 {
		t.Errorf("points should be sorted by year, got %+v", under5.Points)
	}
	adults := tbl.Series[3]
	if v, ok := adults.ValueAt(1990); !ok || v != 0 {
		t.Errorf("missing cell should default to 0, got %v (%v)", v, ok)
	}
	if len(tbl.Warnings) != 2 || len(warned) != 2 {
		t.Errorf("expected 2 warnings (bad year, missing cell), got %v", tbl.Warnings)
	}
}

func TestParseSeriesRequiresYear(t *testing.T) {
	_, err := ParseSeries(strings.NewReader("a,b\n1,2\n"), nil, ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), YearColumn) {
		t.Errorf("expected missing Year column error, got %v", err)
	}
}

func TestParseSeriesMissingColumnWarns(t *testing.T) {
	specs := []SeriesSpec{{Key: "ghost", Color: "grey"}}
	tbl, err := ParseSeries(strings.NewReader("Year\n2000\n"), specs, ParseOptions{})
	if err != nil {
		t.Fatalf("ParseSeries: %v", err)
	}
	if len(tbl.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", tbl.Warnings)
	}
	if v, _ := tbl.Series[0].ValueAt(2000); v != 0 {
		t.Errorf("absent column should read as 0, got %v", v)
	}
}

const sampleGeo = `geoAreaName,parentName,X,Y,value_latest_year,value_2000,value_2017
India,Asia,78.9,20.6,199,289,
China,Asia,104.2,35.9,63,,63
,Asia,0,0,1,1,1
`

func TestParseMarkers(t *testing.T) {
	tbl, err := ParseMarkers(strings.NewReader(sampleGeo), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseMarkers: %v", err)
	}
	if len(tbl.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(tbl.Markers))
	}
	if got := tbl.Years; len(got) != 2 || got[0] != 2000 || got[1] != 2017 {
		t.Errorf("years = %v, want [2000 2017]", got)
	}
	india := tbl.Markers[0]
	if india.Parent != "Asia" || india.Lon != 78.9 || india.Latest != 199 {
		t.Errorf("unexpected marker %+v", india)
	}
	if _, ok := india.ValueFor(2017); ok {
		t.Errorf("empty cell should be absent, not zero")
	}
	if v, ok := tbl.Markers[1].ValueFor(2017); !ok || v != 63 {
		t.Errorf("China 2017 = %v (%v), want 63", v, ok)
	}
	if len(tbl.Warnings) != 1 {
		t.Errorf("expected one skipped-row warning, got %v", tbl.Warnings)
	}
}

const sampleStrains = `Strain ID,NCD_Status,match distance #1,best matching database-strain species #1,best matching database-strain lineage #1
1,NCD,0.01,M. tuberculosis,L2
2,non-NCD,0.02,M. tuberculosis,L2
x,NCD,0.1,M. bovis,L1
`

func TestParseStrains(t *testing.T) {
	strains, warnings, err := ParseStrains(strings.NewReader(sampleStrains), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseStrains: %v", err)
	}
	if len(strains) != 2 {
		t.Fatalf("strains = %d, want 2", len(strains))
	}
	if strains[0].ID != 1 || strains[0].Status != "NCD" || strains[0].Lineage != "L2" {
		t.Errorf("unexpected strain %+v", strains[0])
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestLoadBundlePartialFailure(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Tree:     writeFile(t, dir, "tree.json", sampleTree),
		Timeline: writeFile(t, dir, "series.csv", sampleSeries),
		Geo:      filepath.Join(dir, "missing.csv"),
	}

	b, err := LoadBundle(context.Background(), paths, nil)
	if err == nil {
		t.Fatal("expected joined error for missing geo dataset")
	}
	if !IsLoadFailure(err) {
		t.Errorf("joined error should wrap *LoadError: %v", err)
	}
	if b.Tree == nil || b.Series == nil {
		t.Errorf("successful datasets should still load: tree=%v series=%v", b.Tree != nil, b.Series != nil)
	}
	if b.Markers != nil {
		t.Errorf("failed dataset should be nil")
	}
	if !b.Failed(DatasetGeo) || b.Failed(DatasetTree) {
		t.Errorf("Failed() mismatch: %v", b.Failures)
	}
	if b.Strains != nil {
		t.Errorf("unconfigured dataset should be skipped")
	}
}

func TestLoadBundleCancelledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := LoadBundle(ctx, Paths{Tree: writeFile(t, dir, "tree.json", sampleTree)}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if b.Tree != nil {
		t.Errorf("tree should not load after cancel")
	}
}
