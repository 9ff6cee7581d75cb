// Package sitetree models the navigation tree of a documentation site:
// categories, pages and page groups, plus the fixed input-to-output file map
// every link is resolved against.
package sitetree

// CategoryKind is the kind of a top navigation entry.
type CategoryKind string

const (
	KindLocalDoc     CategoryKind = "local-doc"
	KindExternalLink CategoryKind = "external-link"
	KindGithubLink   CategoryKind = "github-link"
	KindSearch       CategoryKind = "search"
	KindVersion      CategoryKind = "version"
)

// Page is a leaf of the tree: one Markdown input rendered to one HTML output.
// Both paths are absolute and cleaned.
type Page struct {
	DisplayName string
	InputFile   string
	OutputFile  string
}

// Entry is a top-level item of a local-doc category: either a leaf page or a
// group holding one further level of pages.
type Entry struct {
	Page
	Group       bool
	DefaultOpen bool
	Pages       []Page
}

// Category is one entry of the top navigation bar.
type Category struct {
	Kind        CategoryKind
	DisplayName string
	Link        string
	Entries     []Entry
}

// LandingPage returns the first page of the category, depth first. A group
// in first position resolves to its first sub-page.
func (c *Category) LandingPage() (Page, bool) {
	if c.Kind != KindLocalDoc || len(c.Entries) == 0 {
		return Page{}, false
	}
	first := c.Entries[0]
	if !first.Group {
		return first.Page, true
	}
	if len(first.Pages) > 0 {
		return first.Pages[0], true
	}
	return Page{}, false
}

// Logo is the resolved site logo.
type Logo struct {
	SrcPath string
	Link    string
}

// VersionInfo is the documented project version and where other versions live.
type VersionInfo struct {
	Version string
	Link    string
}

// Tree is the whole parsed documentation configuration.
type Tree struct {
	InputDir        string
	OutputDir       string
	Logo            *Logo
	FaviconSrcPath  string
	Version         *VersionInfo
	SiteMapRoot     string
	Categories      []Category
	LinksRightIndex int
	Files           *FileMap
}

// Position locates a leaf page in the tree. Sub is -1 for pages that are
// not inside a group.
type Position struct {
	Category int
	Entry    int
	Sub      int
}

// PageRef is a leaf page together with its position.
type PageRef struct {
	Position
	Page
}

// Pages lists every leaf page in tree order.
func (t *Tree) Pages() []PageRef {
	var out []PageRef
	for ci := range t.Categories {
		cat := &t.Categories[ci]
		if cat.Kind != KindLocalDoc {
			continue
		}
		for ei, e := range cat.Entries {
			if !e.Group {
				out = append(out, PageRef{Position{ci, ei, -1}, e.Page})
				continue
			}
			for si, p := range e.Pages {
				out = append(out, PageRef{Position{ci, ei, si}, p})
			}
		}
	}
	return out
}

// Neighbors returns the previous and next pages of pos within its category.
// Inside a group the siblings are used; past the group's bounds the
// adjacent top-level entries are, a group resolving to its first sub-page.
func (t *Tree) Neighbors(pos Position) (prev, next *Page) {
	if pos.Category < 0 || pos.Category >= len(t.Categories) {
		return nil, nil
	}
	entries := t.Categories[pos.Category].Entries
	if pos.Entry < 0 || pos.Entry >= len(entries) {
		return nil, nil
	}
	current := entries[pos.Entry]

	if current.Group && pos.Sub > 0 {
		prev = &current.Pages[pos.Sub-1]
	} else if pos.Entry > 0 {
		prev = firstPage(&entries[pos.Entry-1])
	}

	if current.Group && pos.Sub >= 0 && pos.Sub < len(current.Pages)-1 {
		next = &current.Pages[pos.Sub+1]
	} else if pos.Entry < len(entries)-1 {
		next = firstPage(&entries[pos.Entry+1])
	}
	return prev, next
}

func firstPage(e *Entry) *Page {
	if !e.Group {
		return &e.Page
	}
	if len(e.Pages) == 0 {
		return nil
	}
	return &e.Pages[0]
}
