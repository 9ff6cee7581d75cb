package siteindex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/search"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
}

func TestSerializeSitemap(t *testing.T) {
	acc := NewAccumulator(WithClock(fixedClock))
	acc.AddSiteMapURL("https://docs.example.com/guide/intro.html")
	acc.AddSiteMapURL("https://docs.example.com/api/a&b.html")

	out, err := acc.SerializeSitemap()
	require.NoError(t, err)
	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://docs.example.com/guide/intro.html</loc>
    <lastmod>2024-03-09</lastmod>
  </url>
  <url>
    <loc>https://docs.example.com/api/a&amp;b.html</loc>
    <lastmod>2024-03-09</lastmod>
  </url>
</urlset>
`
	assert.Equal(t, want, string(out))
	assert.Equal(t, 2, acc.SitemapLen())
}

func TestSerializeSearchIndex(t *testing.T) {
	acc := NewAccumulator()
	acc.AddSearchRecords("guide/intro.html", []search.Record{{H1: "Intro", AnchorH1: "intro", Body: "hi"}})
	acc.AddSearchRecords("empty.html", nil)

	out, err := acc.SerializeSearchIndex()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"file":"guide/intro.html","index":[{"h1":"Intro","anchorH1":"intro","body":"hi"}]},
		{"file":"empty.html","index":[]}
	]`, string(out))
}

func TestSerializeSearchIndex_Empty(t *testing.T) {
	out, err := NewAccumulator().SerializeSearchIndex()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestAccumulator_Concurrent(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.AddSiteMapURL("https://x/")
			acc.AddSearchRecords("a.html", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, acc.SitemapLen())
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		root, page, want string
	}{
		{"https://docs.example.com/", "guide/intro.html", "https://docs.example.com/guide/intro.html"},
		{"https://example.com/docs/", "a%20b.html", "https://example.com/docs/a%20b.html"},
		{"https://example.com/docs", "a.html", "https://example.com/a.html"},
	}
	for _, tt := range tests {
		t.Run(tt.root+tt.page, func(t *testing.T) {
			got, err := AbsoluteURL(tt.root, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAbsoluteURL_RelativeRoot(t *testing.T) {
	_, err := AbsoluteURL("docs/", "a.html")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
