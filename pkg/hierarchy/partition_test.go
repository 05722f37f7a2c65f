package hierarchy

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/vizsync/pkg/testutil"
)

func TestPartitionSixtyForty(t *testing.T) {
	tree, _ := Build(testutil.SixtyForty())
	layout := Partition(tree, 0)

	third := 1.0 / 3
	want := map[string]Span{
		"root":         {0, FullAngle, 0, third},
		"root/sixty":   {0, 0.6 * FullAngle, third, 2 * third},
		"root/sixty/a": {0, 0.4 * FullAngle, 2 * third, 1},
		"root/sixty/b": {0.4 * FullAngle, 0.6 * FullAngle, 2 * third, 1},
		"root/forty":   {0.6 * FullAngle, FullAngle, third, 2 * third},
	}
	for path, span := range want {
		id, ok := tree.Find(path)
		if !ok {
			t.Fatalf("Find(%q) failed", path)
		}
		assertSpan(t, path, layout[id], span)
	}
	if problems := CheckPartition(tree, layout); len(problems) != 0 {
		t.Errorf("CheckPartition: %v", problems)
	}
}

func TestPartitionFixedLevels(t *testing.T) {
	tree, _ := Build(testutil.World())
	layout := Partition(tree, 2)

	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(NodeID(i))
		testutil.AssertNear(t, tree.Path(n.ID)+" y0", layout[i].Y0, float64(n.Depth)/2, 1e-12)
		testutil.AssertNear(t, tree.Path(n.ID)+" y1", layout[i].Y1, float64(n.Depth+1)/2, 1e-12)
	}
}

func TestPartitionZeroValueSubtree(t *testing.T) {
	tree, _ := Build(testutil.Branch("r",
		testutil.Leaf("a", 10),
		testutil.Branch("empty", testutil.Leaf("z", 0)),
	))
	layout := Partition(tree, 0)
	id, _ := tree.Find("empty/z")
	if w := layout[id].Width(); w != 0 {
		t.Errorf("zero-value leaf width = %v, want 0", w)
	}
	testutil.AssertFinite(t, "zero-value leaf", layout[id].X0, layout[id].X1)
	if problems := CheckPartition(tree, layout); len(problems) != 0 {
		t.Errorf("CheckPartition: %v", problems)
	}
}

func TestCheckPartitionDetectsGap(t *testing.T) {
	tree, _ := Build(testutil.SixtyForty())
	layout := Partition(tree, 0)
	layout[4].X0 += 0.1
	if problems := CheckPartition(tree, layout); len(problems) == 0 {
		t.Error("CheckPartition should report the gap")
	}
}

func TestPartitionProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64Range(1, 1<<40).Draw(rt, "seed")
		depth := rapid.IntRange(0, 5).Draw(rt, "depth")
		breadth := rapid.IntRange(1, 5).Draw(rt, "breadth")
		levels := rapid.IntRange(0, 4).Draw(rt, "levels")

		tree, _ := Build(testutil.New(testutil.GeneratorConfig{Seed: seed}).Random(depth, breadth))
		layout := Partition(tree, levels)

		if problems := CheckPartition(tree, layout); len(problems) != 0 {
			rt.Fatalf("CheckPartition: %v", problems)
		}
		for i, s := range layout {
			if s.X0 < -PartitionTolerance || s.X1 > FullAngle+PartitionTolerance || s.X1 < s.X0 {
				rt.Fatalf("node %d: angular range out of bounds: %v", i, s)
			}
			if math.IsNaN(s.X0) || math.IsNaN(s.Y0) {
				rt.Fatalf("node %d: NaN span", i)
			}
		}
	})
}

func assertSpan(t *testing.T, name string, got, want Span) {
	t.Helper()
	const tol = 1e-9
	if math.Abs(got.X0-want.X0) > tol || math.Abs(got.X1-want.X1) > tol ||
		math.Abs(got.Y0-want.Y0) > tol || math.Abs(got.Y1-want.Y1) > tol {
		t.Errorf("%s span = %v, want %v", name, got, want)
	}
}
