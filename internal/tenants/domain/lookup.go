package domain

import "strings"

// DottedLookup walks a nested mapping by splitting path on ".". It returns def
// the first time a segment is absent or the traversed value is not a mapping.
func DottedLookup(m map[string]any, path string, def any) any {
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		cur, ok = node[seg]
		if !ok {
			return def
		}
	}
	return cur
}
