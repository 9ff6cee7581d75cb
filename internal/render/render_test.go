package render

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/anchors"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/links"
	"git.home.luguber.info/inful/docsite/internal/sitetree"
)

type fixture struct {
	in, out string
	reg     *anchors.Registry
	broken  []links.BrokenLink
	logs    bytes.Buffer
	r       *Renderer
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{in: filepath.Join(root, "docs"), out: filepath.Join(root, "site"), reg: anchors.NewRegistry()}

	pairs := make(map[string]string)
	for rel, content := range files {
		p := filepath.Join(f.in, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		if filepath.Ext(p) == ".md" {
			pairs[p] = sitetree.OutputPath(filepath.Join(f.out, filepath.FromSlash(rel)))
		}
	}
	f.r = New(Options{
		Files:      sitetree.NewFileMap(pairs),
		Refs:       f.reg,
		OutputRoot: f.out,
		Logger:     slog.New(slog.NewTextHandler(&f.logs, nil)),
		OnBroken:   func(b links.BrokenLink) { f.broken = append(f.broken, b) },
	})
	return f
}

func (f *fixture) page(rel string) Page {
	in := filepath.Join(f.in, filepath.FromSlash(rel))
	return Page{InputFile: in, OutputFile: sitetree.OutputPath(filepath.Join(f.out, filepath.FromSlash(rel)))}
}

func TestRender_HeadingsGetUniqueIDs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"guide/a.md": "# Example\n\ntext\n\n## Example\n\n### Deep dive\n\n#### Not anchored\n",
	})
	res, err := f.r.Render(context.Background(), f.page("guide/a.md"))
	require.NoError(t, err)

	assert.Equal(t, []string{"example", "example_(1)", "deep-dive"}, res.Anchors)
	assert.Contains(t, res.Body, `<h1 id="example">Example</h1>`)
	assert.Contains(t, res.Body, `<h2 id="example_(1)">Example</h2>`)
	assert.Contains(t, res.Body, `<h4>Not anchored</h4>`)
	assert.NotContains(t, res.Body, "<a name=", "ids live on the headings")

	assert.Equal(t, []TOCEntry{
		{Level: 1, Text: "Example", Anchor: "example"},
		{Level: 2, Text: "Example", Anchor: "example_(1)"},
		{Level: 3, Text: "Deep dive", Anchor: "deep-dive"},
	}, res.TOC)
	assert.True(t, res.ShowTOC())
}

func TestRender_RewritesLinksAndQueuesReferences(t *testing.T) {
	f := newFixture(t, map[string]string{
		"guide/a.md": "# A\n\n[b](../api/b.md#usage) [self](#a) [ext](https://example.com/x.md) [gone](missing.md)\n",
		"api/b.md":   "# B\n\n## Usage\n",
	})
	res, err := f.r.Render(context.Background(), f.page("guide/a.md"))
	require.NoError(t, err)

	assert.Contains(t, res.Body, `href="../api/b.html#usage"`)
	assert.Contains(t, res.Body, `href="#a"`)
	assert.Contains(t, res.Body, `href="https://example.com/x.md"`)
	assert.Contains(t, res.Body, `href="missing.md"`, "broken links stay as written")
	require.Len(t, f.broken, 1)
	assert.Equal(t, "missing.md", f.broken[0].Link)

	f.reg.RecordAnchors(f.page("guide/a.md").InputFile, res.Anchors)
	resB, err := f.r.Render(context.Background(), f.page("api/b.md"))
	require.NoError(t, err)
	f.reg.RecordAnchors(f.page("api/b.md").InputFile, resB.Anchors)

	assert.Empty(t, f.reg.ResolveAll())
}

func TestRender_CopiesLocalMedia(t *testing.T) {
	f := newFixture(t, map[string]string{
		"guide/a.md":         "# A\n\n![pic](img/pic.png)\n\n<video src=\"clip%20one.mp4\"></video>\n\n![remote](https://example.com/r.png)\n",
		"guide/img/pic.png":  "png",
		"guide/clip one.mp4": "mp4",
	})
	res, err := f.r.Render(context.Background(), f.page("guide/a.md"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(f.out, "guide", "img", "pic.png"),
		filepath.Join(f.out, "guide", "clip one.mp4"),
	}, res.Media)
	data, err := os.ReadFile(filepath.Join(f.out, "guide", "img", "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	again, err := f.r.Render(context.Background(), f.page("guide/a.md"))
	require.NoError(t, err)
	assert.Empty(t, again.Media, "existing assets are not copied again")
}

func TestRender_MediaOutsideOutputRootFails(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "# A\n\n![x](../../secret.png)\n",
	})
	_, err := f.r.Render(context.Background(), f.page("a.md"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRender_MissingMediaIsWarning(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "# A\n\n![x](nope.png)\n",
	})
	res, err := f.r.Render(context.Background(), f.page("a.md"))
	require.NoError(t, err)
	assert.Empty(t, res.Media)
	assert.Contains(t, f.logs.String(), "Could not copy media asset")
}

func TestRender_UnreadableSource(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n"})
	_, err := f.r.Render(context.Background(), f.page("b.md"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestRender_FrontMatter(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "---\ntitle: Custom title\n---\n# Heading\n",
	})
	res, err := f.r.Render(context.Background(), f.page("a.md"))
	require.NoError(t, err)
	assert.Equal(t, "Custom title", res.Meta.Title)
	assert.NotContains(t, res.Body, "Custom title")
	assert.False(t, res.ShowTOC(), "a single heading shows no table of contents")
}

func TestRender_Cancelled(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.r.Render(ctx, f.page("a.md"))
	require.ErrorIs(t, err, context.Canceled)
}
