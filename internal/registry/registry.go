// Package registry turns a flat list of parsed functions into a
// hierarchy-aware registry: functions sorted by start line with ParentName
// pointing at the innermost enclosing definition.
package registry

import (
	"sort"

	"helpsync/internal/script"
)

// Build sorts functions by start line and assigns each one's ParentName by
// strict line-range containment: a parent's span must strictly contain the
// child's on both bounds, so a function is never its own parent. Candidates
// are scanned in increasing start-line order and later matches overwrite
// earlier ones, which leaves the innermost enclosing function as the final
// value. Empty input yields an empty result.
func Build(fns []*script.Function) []*script.Function {
	out := make([]*script.Function, len(fns))
	copy(out, fns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartLine < out[j].StartLine
	})

	for i := range out {
		out[i].ParentName = ""
		for j := 0; j < i; j++ {
			if out[j].StartLine < out[i].StartLine && out[j].EndLine > out[i].EndLine {
				out[i].ParentName = out[j].Name
			}
		}
	}
	return out
}

// TopLevel returns the names of functions with no enclosing parent, in
// registry order. The manifest uses this as the exported function list.
func TopLevel(fns []*script.Function) []string {
	var names []string
	for _, f := range fns {
		if f.ParentName == "" {
			names = append(names, f.Name)
		}
	}
	return names
}
