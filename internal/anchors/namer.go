package anchors

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/util/sets"
)

// Only lowercase alphanumerics, dashes and underscores survive in an anchor.
var disallowed = regexp.MustCompile(`[^a-z0-9_-]`)

// Slug derives the base anchor id of a heading: trimmed, lowercased, spaces
// turned into dashes, everything outside [a-z0-9_-] dropped.
func Slug(title string) string {
	s := cases.Lower(language.Und).String(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	return disallowed.ReplaceAllString(s, "")
}

// Namer hands out anchor ids unique within one file. Use one Namer per
// rendered file.
type Namer struct {
	used sets.Set[string]
}

// NewNamer returns a Namer with no ids taken.
func NewNamer() *Namer {
	return &Namer{used: sets.New[string]()}
}

// Next returns the id for title. A taken id gets a "_(N)" suffix with the
// smallest N >= 1 not already generated for this file.
func (n *Namer) Next(title string) string {
	base := Slug(title)
	if n.take(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "_(" + strconv.Itoa(i) + ")"
		if n.take(candidate) {
			return candidate
		}
	}
}

func (n *Namer) take(id string) bool {
	if n.used.Has(id) {
		return false
	}
	n.used.Add(id)
	return true
}
