package network

import (
	"math"
	"sort"
	"strconv"

	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// RootID is the id of the node every region hangs off.
const RootID = "Earth"

// UnknownParent groups markers without a parent name.
const UnknownParent = "Unknown"

// DefaultTopN is the number of children kept per region.
const DefaultTopN = 10

// StatusNCD marks strains drawn in the highlight colour.
const StatusNCD = "NCD"

var groupColors = map[int]string{
	GroupRoot:   "red",
	GroupParent: "blue",
	GroupChild:  "green",
}

// RegionGraph builds the three-level region graph: the root, one node per
// parent region in first-seen order, and the topN children of each region by
// latest value. A child listed under several regions appears once but keeps
// every link.
func RegionGraph(markers []loader.Marker, topN int) *Graph {
	if topN <= 0 {
		topN = DefaultTopN
	}
	g := newGraph()
	g.addNode(Node{ID: RootID, Group: GroupRoot, Color: groupColors[GroupRoot]})

	var parents []string
	grouped := make(map[string][]loader.Marker)
	for _, m := range markers {
		p := m.Parent
		if p == "" {
			p = UnknownParent
		}
		if _, ok := grouped[p]; !ok {
			parents = append(parents, p)
		}
		grouped[p] = append(grouped[p], m)
	}

	for _, p := range parents {
		if g.addNode(Node{ID: p, Group: GroupParent, Color: groupColors[GroupParent]}) {
			g.addLink(Link{Source: RootID, Target: p, Kind: KindParent})
		}
	}

	for _, p := range parents {
		rows := grouped[p]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Latest > rows[j].Latest })
		if len(rows) > topN {
			rows = rows[:topN]
		}
		for _, m := range rows {
			g.addNode(Node{ID: m.Name, Group: GroupChild, Value: m.Latest, Color: groupColors[GroupChild]})
			g.addLink(Link{Source: p, Target: m.Name, Kind: KindChild})
		}
	}

	logStats("region", g)
	return g
}

// GenotypeGraph builds one node per strain and links pairs that share
// species and lineage and whose match distances differ by less than
// maxDistance. A maxDistance of 0 yields no links.
func GenotypeGraph(strains []loader.Strain, maxDistance float64) *Graph {
	g := newGraph()
	for _, s := range strains {
		color := "blue"
		if s.Status == StatusNCD {
			color = "yellow"
		}
		g.addNode(Node{ID: strconv.Itoa(s.ID), Group: GroupChild, Status: s.Status, Color: color})
	}

	for i, a := range strains {
		for _, b := range strains[i+1:] {
			if a.Species != b.Species || a.Lineage != b.Lineage {
				continue
			}
			d := math.Abs(a.Distance - b.Distance)
			if d < maxDistance {
				g.addLink(Link{
					Source:   strconv.Itoa(a.ID),
					Target:   strconv.Itoa(b.ID),
					Kind:     KindMatch,
					Distance: d,
				})
			}
		}
	}

	logStats("genotype", g)
	return g
}
