package layout

import (
	"bytes"
	"html/template"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/sitetree"
)

func out(p string) string { return filepath.Join(filepath.FromSlash("/site"), filepath.FromSlash(p)) }

func page(name, rel string) sitetree.Page {
	return sitetree.Page{DisplayName: name, OutputFile: out(rel)}
}

func testTree() *sitetree.Tree {
	return &sitetree.Tree{
		OutputDir:      out(""),
		Logo:           &sitetree.Logo{SrcPath: "img/logo.svg", Link: "https://example.com"},
		FaviconSrcPath: "favicon.ico",
		Version:        &sitetree.VersionInfo{Version: "1.2.0"},
		Categories: []sitetree.Category{
			{Kind: sitetree.KindLocalDoc, DisplayName: "Guide", Entries: []sitetree.Entry{
				{Page: page("Intro", "guide/intro.html")},
				{Page: sitetree.Page{DisplayName: "Advanced"}, Group: true, Pages: []sitetree.Page{
					page("Deep", "guide/advanced/deep.html"),
					page("Deeper", "guide/advanced/deeper.html"),
				}},
			}},
			{Kind: sitetree.KindLocalDoc, DisplayName: "API", Entries: []sitetree.Entry{
				{Page: sitetree.Page{DisplayName: "Group"}, Group: true, DefaultOpen: true, Pages: []sitetree.Page{
					page("Ref", "api/group/ref.html"),
				}},
			}},
			{Kind: sitetree.KindExternalLink, DisplayName: "Blog", Link: "https://blog.example.com"},
			{Kind: sitetree.KindSearch},
			{Kind: sitetree.KindVersion},
			{Kind: sitetree.KindGithubLink, Link: "https://github.com/example/repo"},
		},
		LinksRightIndex: 3,
	}
}

func TestNewPage_Chrome(t *testing.T) {
	tree := testTree()
	ref := sitetree.PageRef{
		Position: sitetree.Position{Category: 0, Entry: 1, Sub: 0},
		Page:     tree.Categories[0].Entries[1].Pages[0],
	}
	p := NewPage(tree, ref, Assets{CSS: []string{out("styles/style.css")}, Scripts: []string{out("scripts/script.js")}})

	assert.Equal(t, "Deep", p.Title)
	assert.Equal(t, "../..", p.RootURL)
	assert.Equal(t, []string{"../../styles/style.css"}, p.CSSURLs)
	assert.Equal(t, []string{"../../scripts/script.js"}, p.ScriptURLs)
	assert.Equal(t, "../../favicon.ico", p.FaviconURL)
	assert.Equal(t, &Logo{URL: "../../img/logo.svg", Link: "https://example.com"}, p.Logo)

	require.Len(t, p.Navbar, 6)
	assert.Equal(t, NavItem{Kind: sitetree.KindLocalDoc, Name: "Guide", URL: "../intro.html", Active: true}, p.Navbar[0])
	assert.Equal(t, "../../api/group/ref.html", p.Navbar[1].URL, "a leading group links to its first page")
	assert.Equal(t, "last-left", p.Navbar[2].Edge)
	assert.Equal(t, "first-right", p.Navbar[3].Edge)
	assert.Equal(t, "1.2.0", p.Navbar[4].Version)

	require.Len(t, p.Sidebar, 2)
	assert.False(t, p.Sidebar[0].Active)
	assert.True(t, p.Sidebar[1].Active)
	assert.True(t, p.Sidebar[1].Opened)
	assert.True(t, p.Sidebar[1].Children[0].Active)
	assert.False(t, p.Sidebar[1].Children[1].Active)

	require.NotNil(t, p.Prev)
	assert.Equal(t, Link{Name: "Intro", URL: "../intro.html"}, *p.Prev)
	require.NotNil(t, p.Next)
	assert.Equal(t, Link{Name: "Deeper", URL: "deeper.html"}, *p.Next)

	// Search and version entries are navbar-only.
	require.Len(t, p.PageList, 4)
	assert.True(t, p.PageList[0].Active)
	assert.False(t, p.PageList[1].Active)
	assert.True(t, p.PageList[1].Items[0].Opened, "defaultOpen groups start opened")
}

func TestNewPage_NoVersionHidesVersionItem(t *testing.T) {
	tree := testTree()
	tree.Version = nil
	ref := sitetree.PageRef{Position: sitetree.Position{Entry: 0, Sub: -1}, Page: tree.Categories[0].Entries[0].Page}
	p := NewPage(tree, ref, Assets{})
	for _, item := range p.Navbar {
		assert.NotEqual(t, sitetree.KindVersion, item.Kind)
	}
	assert.Nil(t, p.Prev)
}

func TestRender(t *testing.T) {
	tree := testTree()
	ref := sitetree.PageRef{Position: sitetree.Position{Entry: 0, Sub: -1}, Page: tree.Categories[0].Entries[0].Page}
	p := NewPage(tree, ref, Assets{CSS: []string{out("styles/style.css")}})
	p.Description = "Getting started"
	p.Content = template.HTML(`<h1 id="intro">Intro</h1>`)
	p.TOC = template.HTML(`<ul><li><a href="#intro">Intro</a></li></ul>`)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	html := buf.String()

	assert.Contains(t, html, "<title>Intro</title>")
	assert.Contains(t, html, `window.rootUrl = "..";`)
	assert.Contains(t, html, `<meta name="description" content="Getting started">`)
	assert.Contains(t, html, `<link rel="stylesheet" href="../styles/style.css">`)
	assert.Contains(t, html, `<h1 id="intro">Intro</h1>`)
	assert.Contains(t, html, `<div class="tocbar-wrapper"><div class="tocbar"><ul>`)
	assert.Contains(t, html, `class="navbar-item navbar-active hideable" href="intro.html"`)
	assert.Contains(t, html, `<span class="version-item">version: 1.2.0</span>`)
	assert.Contains(t, html, `<div class="next-or-previous-page-link-name">Deep</div>`)
	assert.Contains(t, html, `<a class="logo-link" href="https://example.com">`)
}

func TestRender_EscapesNames(t *testing.T) {
	tree := testTree()
	tree.Categories[0].DisplayName = "<Guide & co>"
	ref := sitetree.PageRef{Position: sitetree.Position{Entry: 0, Sub: -1}, Page: tree.Categories[0].Entries[0].Page}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewPage(tree, ref, Assets{})))
	assert.Contains(t, buf.String(), "&lt;Guide &amp; co&gt;")
	assert.NotContains(t, buf.String(), "<div class=\"tocbar-wrapper\">", "no TOC without entries")
}
