// Package envsubst expands ${NAME} placeholders in strings from a
// variable map. Unknown placeholders are left intact so callers can
// detect unresolved references after expansion.
package envsubst

import "regexp"

var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces every ${NAME} occurrence in s with vars[NAME].
// Placeholders whose name is not present in vars are preserved verbatim.
func Expand(s string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// Vars returns the distinct placeholder names referenced by s, in order
// of first appearance.
func Vars(s string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// Contains reports whether s references the placeholder name.
func Contains(s, name string) bool {
	for _, v := range Vars(s) {
		if v == name {
			return true
		}
	}
	return false
}
