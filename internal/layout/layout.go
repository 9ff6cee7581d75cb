// Package layout wraps rendered page bodies in the site chrome: navbar,
// sidebar, full page list, previous/next links and the table of contents.
// It only formats data resolved elsewhere.
package layout

import (
	"embed"
	"html/template"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/links"
	"git.home.luguber.info/inful/docsite/internal/sitetree"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").ParseFS(templateFS, "templates/*.html.tmpl"))

// Link is a named URL.
type Link struct {
	Name string
	URL  string
}

// NavItem is one entry of the top navigation bar.
type NavItem struct {
	Kind   sitetree.CategoryKind
	Name   string
	URL    string
	Active bool

	// Edge is "first-right" or "last-left" around the left/right split.
	Edge    string
	Version string
}

// Item is a page or page group of the sidebar and the page list.
type Item struct {
	Name     string
	URL      string
	Active   bool
	Group    bool
	Opened   bool
	Children []Item
}

// ListCategory is one category of the full page list.
type ListCategory struct {
	Kind   sitetree.CategoryKind
	Name   string
	URL    string
	Active bool
	Items  []Item
}

// Logo is the site logo, optionally wrapped in a link.
type Logo struct {
	URL  string
	Link string
}

// Page is everything the page template needs.
type Page struct {
	Title       string
	Description string
	RootURL     string
	FaviconURL  string
	CSSURLs     []string
	ScriptURLs  []string
	Logo        *Logo
	Navbar      []NavItem
	Sidebar     []Item
	PageList    []ListCategory
	Content     template.HTML
	TOC         template.HTML
	Prev, Next  *Link
}

// Assets are the absolute output paths of files every page links to.
type Assets struct {
	CSS     []string
	Scripts []string
}

// NewPage resolves the chrome of the page at ref. Every URL is relative to
// the page's own output directory. Content and TOC are left to the caller.
func NewPage(t *sitetree.Tree, ref sitetree.PageRef, assets Assets) *Page {
	dir := filepath.Dir(ref.OutputFile)
	rel := func(target string) string { return links.RelativeURL(target, dir) }

	p := &Page{Title: ref.DisplayName, RootURL: rel(t.OutputDir)}
	for _, css := range assets.CSS {
		p.CSSURLs = append(p.CSSURLs, rel(css))
	}
	for _, s := range assets.Scripts {
		p.ScriptURLs = append(p.ScriptURLs, rel(s))
	}
	if t.FaviconSrcPath != "" {
		p.FaviconURL = rel(filepath.Join(t.OutputDir, filepath.FromSlash(t.FaviconSrcPath)))
	}
	if t.Logo != nil {
		p.Logo = &Logo{URL: rel(filepath.Join(t.OutputDir, filepath.FromSlash(t.Logo.SrcPath))), Link: t.Logo.Link}
	}

	p.Navbar = navbar(t, ref.Category, rel)
	p.PageList = pageList(t, ref.Position, rel)
	if ref.Category < len(t.Categories) {
		p.Sidebar = entries(t.Categories[ref.Category].Entries, ref.Position, true, rel)
	}

	prev, next := t.Neighbors(ref.Position)
	if prev != nil {
		p.Prev = &Link{Name: prev.DisplayName, URL: rel(prev.OutputFile)}
	}
	if next != nil {
		p.Next = &Link{Name: next.DisplayName, URL: rel(next.OutputFile)}
	}
	return p
}

// Render writes the complete HTML document of p.
func Render(w io.Writer, p *Page) error {
	if err := pageTemplate.Execute(w, p); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to execute page template").Build()
	}
	return nil
}

func navbar(t *sitetree.Tree, active int, rel func(string) string) []NavItem {
	items := make([]NavItem, 0, len(t.Categories))
	for i := range t.Categories {
		c := &t.Categories[i]
		item := NavItem{Kind: c.Kind, Name: c.DisplayName, URL: c.Link}
		switch {
		case i == t.LinksRightIndex:
			item.Edge = "first-right"
		case i == t.LinksRightIndex-1:
			item.Edge = "last-left"
		}
		switch c.Kind {
		case sitetree.KindLocalDoc:
			landing, ok := c.LandingPage()
			if !ok {
				continue
			}
			item.URL = rel(landing.OutputFile)
			item.Active = i == active
		case sitetree.KindVersion:
			if t.Version == nil {
				continue
			}
			item.Version = t.Version.Version
			item.URL = t.Version.Link
		}
		items = append(items, item)
	}
	return items
}

func pageList(t *sitetree.Tree, pos sitetree.Position, rel func(string) string) []ListCategory {
	var out []ListCategory
	for i := range t.Categories {
		c := &t.Categories[i]
		lc := ListCategory{Kind: c.Kind, Name: c.DisplayName, URL: c.Link}
		switch c.Kind {
		case sitetree.KindLocalDoc:
			lc.Active = i == pos.Category
			lc.Items = entries(c.Entries, pos, lc.Active, rel)
		case sitetree.KindExternalLink, sitetree.KindGithubLink:
		default:
			continue
		}
		out = append(out, lc)
	}
	return out
}

// entries builds the item list of a category. inActive tells whether pos
// points into this category.
func entries(es []sitetree.Entry, pos sitetree.Position, inActive bool, rel func(string) string) []Item {
	items := make([]Item, 0, len(es))
	for i, e := range es {
		active := inActive && i == pos.Entry
		if !e.Group {
			items = append(items, Item{Name: e.DisplayName, URL: rel(e.OutputFile), Active: active})
			continue
		}
		group := Item{Name: e.DisplayName, Group: true, Active: active, Opened: active || e.DefaultOpen}
		for j, sp := range e.Pages {
			group.Children = append(group.Children, Item{
				Name:   sp.DisplayName,
				URL:    rel(sp.OutputFile),
				Active: active && j == pos.Sub,
			})
		}
		items = append(items, group)
	}
	return items
}
