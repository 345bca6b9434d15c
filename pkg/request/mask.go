package request

import (
	"sort"
	"strings"

	"github.com/CliForge/siemctl/pkg/fieldmap"
)

// UpdateMask derives the update_mask list from populated snake_case leaf
// paths. A path under a repeated-message root is replaced by the root, so
// no leaf inside a repeated message is listed on its own. The result is
// camelCase, duplicate-free and sorted.
func UpdateMask(paths, repeatedRoots []string) []string {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		entry := p
		for _, root := range repeatedRoots {
			if p == root || strings.HasPrefix(p, root+fieldmap.Separator) {
				entry = root
				break
			}
		}
		seen[fieldmap.CamelPath(entry)] = true
	}

	mask := make([]string, 0, len(seen))
	for p := range seen {
		mask = append(mask, p)
	}
	sort.Strings(mask)
	return mask
}
