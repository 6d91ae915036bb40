// Package normalize canonicalizes user-supplied names before they are used
// as lookup keys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name trims surrounding whitespace, collapses internal whitespace runs to a
// single space and applies Unicode NFC, so a name typed with combining
// accents resolves to the same tag as its precomposed spelling.
// Case is preserved: "thai" and "Thai" are different names.
func Name(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Names normalizes every entry and drops duplicates and blanks, keeping the
// first occurrence order. It also reports whether any entry was blank.
func Names(in []string) (out []string, hadBlank bool) {
	seen := make(map[string]struct{}, len(in))
	out = make([]string, 0, len(in))
	for _, raw := range in {
		name := Name(raw)
		if name == "" {
			hadBlank = true
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, hadBlank
}
