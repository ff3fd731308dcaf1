// Package names canonicalizes technician names so that spelling drift in the
// vendor export ("Ana  Souza", "ANA SOUZA", "Ána Souza") maps to one key.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Key returns the canonical matching key for a name: whitespace collapsed,
// combining marks removed and case folded. An empty result means the name had no
// visible characters.
func Key(name string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), Clean(name))
	if err != nil {
		stripped = Clean(name)
	}
	return folder.String(stripped)
}

// Clean trims the name and collapses inner runs of whitespace to one space.
// It keeps case and accents and is used for display.
func Clean(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Set is a case and accent insensitive set of names.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if k := Key(v); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

func (s Set) Contains(name string) bool {
	_, ok := s[Key(name)]
	return ok
}

// Lookup is a map keyed by canonical name.
type Lookup[V any] map[string]V

func NewLookup[V any](values map[string]V) Lookup[V] {
	l := make(Lookup[V], len(values))
	for name, v := range values {
		if k := Key(name); k != "" {
			l[k] = v
		}
	}
	return l
}

func (l Lookup[V]) Get(name string) (V, bool) {
	v, ok := l[Key(name)]
	return v, ok
}
