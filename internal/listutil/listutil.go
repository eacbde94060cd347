// Package listutil holds the small list-manipulation helpers the plugin
// chain and the access resolver both need, kept as free functions per the
// "interface + vtable, not inheritance" design note rather than methods on
// some shared abstract base.
package listutil

// Merge appends add to base, preserving first occurrence and dropping
// empty strings.
func Merge(base []string, add ...string) []string {
	seen := make(map[string]bool, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, v := range base {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range add {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Unique de-duplicates vs preserving first occurrence.
func Unique(vs []string) []string {
	return Merge(nil, vs...)
}
