// Package render turns one Markdown source file into the HTML body of its
// page: links are rewritten, local media copied next to the output and every
// h1/h2/h3 heading given a unique anchor id.
package render

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/docsite/internal/anchors"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/fsutil"
	"git.home.luguber.info/inful/docsite/internal/links"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Page identifies the file to render.
type Page struct {
	InputFile  string
	OutputFile string
}

// Result is a rendered page body. Body is an HTML fragment, Anchors holds
// the heading ids in document order and Media the output paths of the
// assets copied for this page.
type Result struct {
	Body    string
	Anchors []string
	TOC     []TOCEntry
	Meta    markdown.Meta
	Media   []string
}

// Options configures a Renderer.
type Options struct {
	Markdown markdown.Renderer
	Files    links.FileLookup

	// Refs receives anchor references; required.
	Refs links.ReferenceQueue

	// OutputRoot bounds where media assets may be copied to.
	OutputRoot string
	Logger     *slog.Logger
	OnBroken   func(links.BrokenLink)
}

// Renderer renders pages. It holds no per-page state and may be shared by
// concurrent goroutines.
type Renderer struct {
	opts Options
}

// New returns a Renderer. A nil Markdown renderer selects goldmark.
func New(opts Options) *Renderer {
	if opts.Markdown == nil {
		opts.Markdown = markdown.NewGoldmark()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{opts: opts}
}

// mediaSelector lists the elements whose src may point at a local asset.
const mediaSelector = "img[src], audio[src], video[src], source[src]"

// Render reads page.InputFile and produces its body. Anchors are returned,
// not recorded: the caller owns the registry write.
func (r *Renderer) Render(ctx context.Context, page Page) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := r.opts.Logger.With(logfields.File(page.InputFile))

	source, err := os.ReadFile(page.InputFile)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "error reading file").
			WithContext("file", page.InputFile).Build()
	}
	meta, body, err := markdown.StripFrontMatter(source)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid front matter").
			WithContext("file", page.InputFile).Build()
	}
	htmlBody, err := r.opts.Markdown.Render(body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "markdown conversion failed").
			WithContext("file", page.InputFile).Build()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBody)))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse rendered HTML").
			WithContext("file", page.InputFile).Build()
	}

	outputDir := filepath.Dir(page.OutputFile)
	translate := links.NewTranslator(page.InputFile, outputDir, r.opts.Files, r.opts.Refs,
		links.WithLogger(logger), links.OnBroken(r.opts.OnBroken))
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if rewritten, ok := translate(href); ok {
			s.SetAttr("href", rewritten)
		}
	})

	res := &Result{Meta: meta}
	var mediaErr error
	doc.Find(mediaSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		copied, err := r.copyMedia(src, filepath.Dir(page.InputFile), outputDir, logger)
		if err != nil {
			mediaErr = err
			return false
		}
		if copied != "" {
			res.Media = append(res.Media, copied)
		}
		return true
	})
	if mediaErr != nil {
		return nil, mediaErr
	}

	namer := anchors.NewNamer()
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		id := namer.Next(text)
		s.SetAttr("id", id)
		res.Anchors = append(res.Anchors, id)
		res.TOC = append(res.TOC, TOCEntry{Level: headingLevel(goquery.NodeName(s)), Text: text, Anchor: id})
	})

	res.Body, err = doc.Find("body").Html()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to serialize page body").
			WithContext("file", page.InputFile).Build()
	}
	return res, nil
}

// copyMedia mirrors a local media asset into the output tree. It returns the
// output path when a copy happened. A destination outside the output root is
// a validation error; a missing source is only logged.
func (r *Renderer) copyMedia(src, inputDir, outputDir string, logger *slog.Logger) (string, error) {
	if src == "" || links.IsExternal(src) {
		return "", nil
	}
	rel, _, _ := strings.Cut(src, "#")
	rel, _, _ = strings.Cut(rel, "?")
	if unescaped, err := url.PathUnescape(rel); err == nil {
		rel = unescaped
	}
	rel = filepath.FromSlash(rel)
	in := filepath.Join(inputDir, rel)
	out := filepath.Join(outputDir, rel)

	if !fsutil.Within(r.opts.OutputRoot, filepath.Dir(out)) {
		return "", errors.ValidationError("media asset would be copied outside of the output root").
			WithContext("src", src).
			WithContext("output_root", r.opts.OutputRoot).
			Build()
	}

	copied, err := fsutil.CopyFileIfMissing(in, out)
	if err != nil {
		logger.Warn("Could not copy media asset", slog.String("src", src), logfields.Error(err))
		return "", nil
	}
	if !copied {
		return "", nil
	}
	return out, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	default:
		return 3
	}
}
