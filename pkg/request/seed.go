package request

import (
	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/schema"
)

// Seed flattens a resource body fetched from the service into the seed taken
// by Build. Values of map fields under root are kept whole, so their keys
// reach the request exactly as the service returned them.
func Seed(root *schema.Node, body map[string]interface{}) map[string]interface{} {
	leaves := make(map[string]bool)
	if root != nil {
		collectMapPaths(root, leaves)
	}
	return fieldmap.FlattenLeaves(body, leaves)
}

// collectMapPaths records the map fields of n. Repeated messages below n are
// not entered: their items stay lists in the seed and are seeded one by one.
func collectMapPaths(n *schema.Node, leaves map[string]bool) {
	if n.Type == schema.TypeMapStringString {
		leaves[n.FieldPath] = true
		return
	}
	visit := func(children []*schema.Node) {
		for _, c := range children {
			if c.Type == schema.TypeMessage && c.IsRepeated {
				continue
			}
			collectMapPaths(c, leaves)
		}
	}
	visit(n.Children)
	for _, o := range n.OneOfOptions {
		visit(o.Children)
	}
	for _, a := range n.Alternatives {
		visit(a.Children)
	}
}
