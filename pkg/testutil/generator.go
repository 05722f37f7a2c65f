// Package testutil provides fixture generators for hierarchies, series tables
// and marker tables. All generators produce deterministic output for
// reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed       int64   // Random seed for determinism (0 = 42)
	NamePrefix string  // Prefix for generated names (default: "n")
	MaxValue   float64 // Upper bound for leaf values (default: 1000)
	MissingPct float64 // Probability that a leaf value is omitted
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		NamePrefix: "n",
		MaxValue:   1000,
	}
}

// Generator creates tree and table fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "n"
	}
	if cfg.MaxValue <= 0 {
		cfg.MaxValue = 1000
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Value returns a pointer to v, for building TreeNode literals.
func Value(v float64) *float64 {
	return &v
}

// Leaf builds a leaf node.
func Leaf(name string, v float64) loader.TreeNode {
	return loader.TreeNode{Name: name, Value: Value(v)}
}

// Branch builds an internal node without an explicit value.
func Branch(name string, children ...loader.TreeNode) loader.TreeNode {
	return loader.TreeNode{Name: name, Children: children}
}

// Tree creates a complete tree of the given depth and breadth. Every leaf
// gets a random integral value; names encode the path ("n0.2.1").
func (g *Generator) Tree(depth, breadth int) loader.TreeNode {
	return g.tree(g.cfg.NamePrefix+"0", depth, breadth)
}

func (g *Generator) tree(name string, depth, breadth int) loader.TreeNode {
	if depth == 0 {
		return g.leaf(name)
	}
	n := loader.TreeNode{Name: name}
	for i := 0; i < breadth; i++ {
		n.Children = append(n.Children, g.tree(fmt.Sprintf("%s.%d", name, i), depth-1, breadth))
	}
	return n
}

// Random creates an irregular tree with up to maxDepth levels below the root
// and up to maxBreadth children per internal node.
func (g *Generator) Random(maxDepth, maxBreadth int) loader.TreeNode {
	return g.random(g.cfg.NamePrefix+"0", maxDepth, maxBreadth)
}

func (g *Generator) random(name string, depth, maxBreadth int) loader.TreeNode {
	if depth == 0 || (depth < 3 && g.rng.Intn(3) == 0) {
		return g.leaf(name)
	}
	n := loader.TreeNode{Name: name}
	k := 1 + g.rng.Intn(maxBreadth)
	for i := 0; i < k; i++ {
		n.Children = append(n.Children, g.random(fmt.Sprintf("%s.%d", name, i), depth-1, maxBreadth))
	}
	return n
}

func (g *Generator) leaf(name string) loader.TreeNode {
	if g.cfg.MissingPct > 0 && g.rng.Float64() < g.cfg.MissingPct {
		return loader.TreeNode{Name: name}
	}
	return Leaf(name, float64(1+g.rng.Intn(int(g.cfg.MaxValue))))
}

// SeriesCSV renders a wide age-band table covering years minYear..maxYear
// with one column per key.
func (g *Generator) SeriesCSV(minYear, maxYear int, keys ...string) string {
	var sb strings.Builder
	sb.WriteString(loader.YearColumn)
	for _, k := range keys {
		sb.WriteString(",")
		sb.WriteString(k)
	}
	sb.WriteString("\n")
	for y := minYear; y <= maxYear; y++ {
		fmt.Fprintf(&sb, "%d", y)
		for range keys {
			fmt.Fprintf(&sb, ",%.1f", g.rng.Float64()*g.cfg.MaxValue)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// MarkersCSV renders a marker table with per-year value columns. parents maps
// each country to its region.
func (g *Generator) MarkersCSV(parents map[string]string, years ...int) string {
	names := make([]string, 0, len(parents))
	for n := range parents {
		names = append(names, n)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("geoAreaName,parentName,X,Y,value_latest_year")
	for _, y := range years {
		fmt.Fprintf(&sb, ",value_%d", y)
	}
	sb.WriteString("\n")
	for _, n := range names {
		fmt.Fprintf(&sb, "%s,%s,%.2f,%.2f,%.1f", n, parents[n],
			g.rng.Float64()*360-180, g.rng.Float64()*180-90, g.rng.Float64()*100)
		for range years {
			fmt.Fprintf(&sb, ",%.1f", g.rng.Float64()*100)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// QuickTree builds a depth×breadth tree with the default generator.
func QuickTree(depth, breadth int) loader.TreeNode {
	return NewDefault().Tree(depth, breadth)
}

// QuickRandom builds an irregular tree with the default generator.
func QuickRandom(maxDepth, maxBreadth int) loader.TreeNode {
	return NewDefault().Random(maxDepth, maxBreadth)
}

// SixtyForty is the canonical zoom fixture: root 100 split into a 60 branch
// (itself split 40/20) and a 40 leaf.
func SixtyForty() loader.TreeNode {
	return loader.TreeNode{
		Name:  "root",
		Value: Value(100),
		Children: []loader.TreeNode{
			Leaf("forty", 40),
			Branch("sixty", Leaf("a", 40), Leaf("b", 20)),
		},
	}
}

// World is a small three-level geography used across view tests.
func World() loader.TreeNode {
	return Branch("World",
		Branch("Asia",
			Branch("SouthAsia", Leaf("India", 2690), Leaf("Pakistan", 570), Leaf("Bangladesh", 360)),
			Branch("EastAsia", Leaf("China", 866), Leaf("Japan", 15)),
		),
		Branch("Africa",
			Branch("SouthernAfrica", Leaf("SouthAfrica", 301), Leaf("Botswana", 6)),
			Branch("WesternAfrica", Leaf("Nigeria", 429)),
		),
		Leaf("Antarctica", 0),
	)
}
