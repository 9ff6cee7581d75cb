// Package siteindex accumulates the site-wide outputs built from every
// page: the sitemap and the search index.
package siteindex

import (
	"encoding/json"
	"encoding/xml"
	"net/url"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/search"
)

// Output file names, relative to the output root.
const (
	SitemapFile     = "sitemap.xml"
	SearchIndexFile = "searchIndex.json"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapEntry is one <url> of the sitemap.
type SitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name       `xml:"urlset"`
	XMLNS   string         `xml:"xmlns,attr"`
	URLs    []SitemapEntry `xml:"url"`
}

// FileIndex holds the search records of one page.
type FileIndex struct {
	File  string          `json:"file"`
	Index []search.Record `json:"index"`
}

// Accumulator collects sitemap entries and search records in the order they
// are added. It is safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	now     func() time.Time
	sitemap []SitemapEntry
	search  []FileIndex
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithClock replaces time.Now as the source of lastmod dates.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) { a.now = now }
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddSiteMapURL appends absoluteURL with today's UTC date as lastmod.
func (a *Accumulator) AddSiteMapURL(absoluteURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sitemap = append(a.sitemap, SitemapEntry{
		Loc:     absoluteURL,
		LastMod: a.now().UTC().Format(time.DateOnly),
	})
}

// AddSearchRecords appends the records of the page served at outputURL,
// a slash separated path relative to the output root.
func (a *Accumulator) AddSearchRecords(outputURL string, records []search.Record) {
	if records == nil {
		records = []search.Record{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.search = append(a.search, FileIndex{File: outputURL, Index: records})
}

// SitemapLen returns the number of sitemap entries.
func (a *Accumulator) SitemapLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sitemap)
}

// SerializeSitemap renders the sitemap XML document.
func (a *Accumulator) SerializeSitemap() ([]byte, error) {
	a.mu.Lock()
	set := urlSet{XMLNS: sitemapNS, URLs: append([]SitemapEntry(nil), a.sitemap...)}
	a.mu.Unlock()

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode sitemap").Build()
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// SerializeSearchIndex renders the search index as a JSON array of
// {file, index} objects.
func (a *Accumulator) SerializeSearchIndex() ([]byte, error) {
	a.mu.Lock()
	files := append([]FileIndex{}, a.search...)
	a.mu.Unlock()

	out, err := json.Marshal(files)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode search index").Build()
	}
	return out, nil
}

// AbsoluteURL resolves the page URL pageURL, relative to the output root,
// against the configured site map root. Resolution follows RFC 3986, so a
// root without a trailing slash loses its last path segment.
func AbsoluteURL(siteMapRoot, pageURL string) (string, error) {
	base, err := url.Parse(siteMapRoot)
	if err != nil || !base.IsAbs() {
		return "", errors.ConfigError("siteMapRoot is not an absolute URL").
			WithContext("property", "siteMapRoot").
			WithContext("value", siteMapRoot).
			WithCause(err).
			Build()
	}
	ref, err := url.Parse(pageURL)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid page URL").
			WithContext("url", pageURL).Build()
	}
	return base.ResolveReference(ref).String(), nil
}
