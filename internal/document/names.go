package document

import (
	"fmt"
	"strings"
)

// NextShapeName returns the first unused "<kind>-<n>" name.
func NextShapeName(d *Document, kind Kind) string {
	base := string(kind)
	if base == "" {
		base = "shape"
	}
	for n := len(d.Shapes) + 1; ; n++ {
		name := fmt.Sprintf("%s-%d", base, n)
		if !d.HasShape(name) {
			return name
		}
	}
}

// DuplicateName derives an unused name for a copy of source:
// "<source>-copy", then "<source>-copy-2", "<source>-copy-3", ...
func DuplicateName(d *Document, source string) string {
	base := source + "-copy"
	if !d.HasShape(base) {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s-%d", base, n)
		if !d.HasShape(name) {
			return name
		}
	}
}

// NextGroupName returns the first unused "group-<n>" name.
func NextGroupName(d *Document) string {
	used := make(map[string]bool, len(d.Groups))
	for _, g := range d.Groups {
		used[strings.ToLower(g.Name)] = true
	}
	for n := len(d.Groups) + 1; ; n++ {
		name := fmt.Sprintf("group-%d", n)
		if !used[name] {
			return name
		}
	}
}
