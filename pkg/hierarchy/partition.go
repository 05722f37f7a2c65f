package hierarchy

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// PartitionTolerance is the float tolerance used when checking partitions.
const PartitionTolerance = 1e-9

// Partition assigns every node a layout span. The whole tree covers
// [0, 2π] angularly; each node's angular range is divided among its children
// in proportion to value, in sorted order. Depth d covers [d/levels,
// (d+1)/levels] radially. levels <= 0 means "fit the whole tree", i.e.
// height+1.
func Partition(t *Tree, levels int) []Span {
	defer metrics.Timer(metrics.PartitionLayout)()

	if levels <= 0 {
		levels = t.Height() + 1
	}
	depth := func(d int) float64 { return float64(d) / float64(levels) }

	out := make([]Span, t.Len())
	out[0] = Span{X0: 0, X1: FullAngle, Y0: 0, Y1: depth(1)}
	// Pre-order guarantees a parent is laid out before its children.
	for _, n := range t.nodes {
		if n.Leaf() {
			continue
		}
		ps := out[n.ID]
		k := 0.0
		if n.Value > 0 {
			k = ps.Width() / n.Value
		}
		cursor := ps.X0
		for _, c := range n.Children {
			child := t.nodes[c]
			x1 := cursor + child.Value*k
			out[c] = Span{
				X0: cursor,
				X1: x1,
				Y0: depth(child.Depth),
				Y1: depth(child.Depth + 1),
			}
			cursor = x1
		}
	}
	return out
}

// CheckPartition verifies that sibling spans are contiguous, non-overlapping
// and, when the children account for the parent's whole value, exactly cover
// the parent's angular range. It returns one message per violation.
func CheckPartition(t *Tree, layout []Span) []string {
	var problems []string
	for _, n := range t.nodes {
		if n.Leaf() {
			continue
		}
		ps := layout[n.ID]
		cursor := ps.X0
		var sum float64
		for _, c := range n.Children {
			cs := layout[c]
			if !scalar.EqualWithinAbs(cs.X0, cursor, PartitionTolerance) {
				problems = append(problems, fmt.Sprintf("%s: gap or overlap at %.6f (expected %.6f)", t.Path(c), cs.X0, cursor))
			}
			if cs.X1 < cs.X0 {
				problems = append(problems, fmt.Sprintf("%s: negative width", t.Path(c)))
			}
			cursor = cs.X1
			sum += t.nodes[c].Value
		}
		if n.Value > 0 && scalar.EqualWithinAbs(sum, n.Value, PartitionTolerance*max(1, n.Value)) &&
			!scalar.EqualWithinAbs(cursor, ps.X1, PartitionTolerance) {
			problems = append(problems, fmt.Sprintf("%s: children end at %.6f, parent ends at %.6f", t.Path(n.ID), cursor, ps.X1))
		}
	}
	return problems
}
