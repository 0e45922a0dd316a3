package render

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/crateview/pkg/tree"
)

// exportNode mirrors tree.Node with tags for both encodings.
type exportNode struct {
	Name     string        `json:"name" yaml:"name"`
	ID       string        `json:"id" yaml:"id"`
	Kind     tree.Kind     `json:"kind" yaml:"kind"`
	Nested   bool          `json:"nested,omitempty" yaml:"nested,omitempty"`
	Children []*exportNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func toExport(n *tree.Node, depth, maxDepth int) *exportNode {
	if n == nil {
		return nil
	}
	out := &exportNode{Name: n.Name, ID: n.ID, Kind: n.Kind, Nested: n.Nested}
	if maxDepth > 0 && depth >= maxDepth {
		return out
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toExport(c, depth+1, maxDepth))
	}
	return out
}

// ToJSON serializes the hierarchy as indented JSON.
func ToJSON(root *tree.Node, opts Options) ([]byte, error) {
	return json.MarshalIndent(toExport(root, 0, opts.MaxDepth), "", "  ")
}

// ToYAML serializes the hierarchy as YAML.
func ToYAML(root *tree.Node, opts Options) ([]byte, error) {
	return yaml.Marshal(toExport(root, 0, opts.MaxDepth))
}
