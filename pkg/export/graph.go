package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/vizsync/pkg/network"
)

// GraphDocument is the node/link document consumed by force-directed
// renderers.
type GraphDocument struct {
	Nodes []network.Node  `json:"nodes"`
	Links []network.Link  `json:"links"`
	Stats *network.Stats `json:"stats,omitempty"`
}

// WriteGraphJSON writes g as indented node/link JSON. Empty graphs encode
// as empty arrays rather than null.
func WriteGraphJSON(w io.Writer, g *network.Graph) error {
	doc := GraphDocument{Nodes: g.Nodes(), Links: g.Links()}
	if doc.Nodes == nil {
		doc.Nodes = []network.Node{}
	}
	if doc.Links == nil {
		doc.Links = []network.Link{}
	}
	stats := g.Stats()
	doc.Stats = &stats

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}
