package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// TreeNode is one entry of the nested JSON tree literal:
//
//	{"name": "Asia", "children": [{"name": "India", "value": 2690}]}
//
// Value is optional on internal nodes and expected on leaves. It is nil when
// absent, null, or not a number.
type TreeNode struct {
	Name     string     `json:"name"`
	Value    *float64   `json:"value,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// UnmarshalJSON accepts numeric values encoded as numbers or numeric strings.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     any             `json:"name"`
		Value    json.RawMessage `json:"value"`
		Children []TreeNode      `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.Name.(type) {
	case nil:
		n.Name = ""
	case string:
		n.Name = v
	default:
		n.Name = fmt.Sprint(v)
	}
	n.Children = raw.Children
	n.Value = nil

	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(value, &f); err == nil {
		n.Value = &f
		return nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if f, ok := parseNumber(s); ok {
			n.Value = &f
		}
	}
	return nil
}

// Leaf reports whether the node has no children.
func (n TreeNode) Leaf() bool {
	return len(n.Children) == 0
}

// Count returns the number of nodes in the subtree rooted at n.
func (n TreeNode) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// ParseTree decodes a JSON tree literal.
func ParseTree(r io.Reader) (TreeNode, error) {
	data, err := readAll(r)
	if err != nil {
		return TreeNode{}, fmt.Errorf("reading tree: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return TreeNode{}, fmt.Errorf("empty tree document")
	}
	var root TreeNode
	if err := json.Unmarshal(data, &root); err != nil {
		return TreeNode{}, fmt.Errorf("parsing tree: %w", err)
	}
	if strings.TrimSpace(root.Name) == "" && len(root.Children) == 0 && root.Value == nil {
		return TreeNode{}, fmt.Errorf("tree document has no name, value or children")
	}
	return root, nil
}

// LoadTree reads the tree dataset at path.
func LoadTree(path string) (TreeNode, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	f, err := openDataset(DatasetTree, path)
	if err != nil {
		return TreeNode{}, err
	}
	defer f.Close()

	root, err := ParseTree(f)
	if err != nil {
		return TreeNode{}, &LoadError{Dataset: DatasetTree, Path: path, Err: err}
	}
	return root, nil
}
