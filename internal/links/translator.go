// Package links rewrites Markdown-relative hyperlinks into URLs relative to
// the generated HTML page.
package links

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// schemeURL matches absolute URLs such as https://host/...
var schemeURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Opaque schemes carry no "//" but are never local files either.
var opaqueSchemes = []string{"mailto:", "tel:", "javascript:", "data:"}

// FileLookup resolves an absolute input path to its output path.
type FileLookup interface {
	Lookup(input string) (string, bool)
}

// ReferenceQueue receives anchor references for deferred validation.
type ReferenceQueue interface {
	QueueReference(citingFile, targetFile, anchor string)
}

// Translator maps a raw link found in a page to its rewritten form. ok is
// false when the link must be left as written.
type Translator func(raw string) (rewritten string, ok bool)

// BrokenLink describes a local link whose target is not part of the site.
type BrokenLink struct {
	SourceFile string
	Link       string
	Target     string
}

// Option configures a Translator.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	onBroken func(BrokenLink)
}

// WithLogger sets the logger broken links are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// OnBroken registers a callback invoked for every broken local link.
func OnBroken(fn func(BrokenLink)) Option {
	return func(o *options) { o.onBroken = fn }
}

// NewTranslator returns the Translator for links found in sourceFile, whose
// HTML output lives in outputDir. Anchor references (including in-page ones)
// are queued on refs; broken file links are logged and left unrewritten.
func NewTranslator(sourceFile, outputDir string, files FileLookup, refs ReferenceQueue, opts ...Option) Translator {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	sourceDir := filepath.Dir(sourceFile)

	return func(raw string) (string, bool) {
		if raw == "" || IsExternal(raw) {
			return "", false
		}
		if frag, ok := strings.CutPrefix(raw, "#"); ok {
			if frag != "" {
				refs.QueueReference(sourceFile, sourceFile, frag)
			}
			return "", false
		}

		linkPath, frag, hasFrag := strings.Cut(raw, "#")
		if unescaped, err := url.PathUnescape(linkPath); err == nil {
			linkPath = unescaped
		}
		target := filepath.Clean(filepath.Join(sourceDir, filepath.FromSlash(linkPath)))

		out, found := files.Lookup(target)
		if !found {
			o.logger.Warn("A referenced link was not found",
				logfields.File(sourceFile), logfields.Link(raw), logfields.Target(target))
			if o.onBroken != nil {
				o.onBroken(BrokenLink{SourceFile: sourceFile, Link: raw, Target: target})
			}
			return "", false
		}

		rewritten := RelativeURL(out, outputDir)
		if hasFrag {
			rewritten += "#" + frag
			if frag != "" {
				refs.QueueReference(sourceFile, target, frag)
			}
		}
		return rewritten, true
	}
}

// IsExternal reports whether link points outside the local file tree.
func IsExternal(link string) bool {
	if schemeURL.MatchString(link) || strings.HasPrefix(link, "//") {
		return true
	}
	lower := strings.ToLower(link)
	for _, s := range opaqueSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// RelativeURL returns the URL of target relative to the directory fromDir,
// with forward slashes and every segment percent-escaped.
func RelativeURL(target, fromDir string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		rel = target
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
