// Package markdown converts Markdown page bodies to HTML fragments.
//
// Two engines are available. Neither assigns heading ids: the page renderer
// owns anchor naming so that ids are stable across engines.
package markdown

import (
	"bytes"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	gmd "github.com/gomarkdown/markdown"
	gmdhtml "github.com/gomarkdown/markdown/html"
	gmdparser "github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Engine names accepted by New.
const (
	EngineGoldmark   = "goldmark"
	EngineGomarkdown = "gomarkdown"
)

// Renderer converts a Markdown body (front matter already removed) to HTML.
type Renderer interface {
	Name() string
	Render(body []byte) ([]byte, error)
}

// New returns the renderer registered under name. An empty name selects
// goldmark.
func New(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineGoldmark:
		return NewGoldmark(), nil
	case EngineGomarkdown:
		return Gomarkdown{}, nil
	default:
		return nil, errors.ConfigError("unknown markdown renderer").
			WithContext("renderer", name).
			WithContext("valid", []string{EngineGoldmark, EngineGomarkdown}).
			Build()
	}
}

// Goldmark renders GitHub flavoured Markdown with syntax highlighted code
// blocks. Highlighting emits chroma CSS classes; styles/code.css supplies the
// colours.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark builds a goldmark renderer. The result is safe for concurrent
// use.
func NewGoldmark() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		// Docs may embed raw HTML (<img>, <video>, <a name>); keep it.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

func (g *Goldmark) Name() string { return EngineGoldmark }

func (g *Goldmark) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "goldmark conversion failed").Build()
	}
	return buf.Bytes(), nil
}

// Gomarkdown renders with github.com/gomarkdown/markdown. Its parser keeps
// per-document state, so one is built for every call.
type Gomarkdown struct{}

func (Gomarkdown) Name() string { return EngineGomarkdown }

func (Gomarkdown) Render(body []byte) ([]byte, error) {
	p := gmdparser.NewWithExtensions(gmdparser.CommonExtensions | gmdparser.NoEmptyLineBeforeBlock)
	doc := p.Parse(body)
	r := gmdhtml.NewRenderer(gmdhtml.RendererOptions{Flags: gmdhtml.CommonFlags})
	return gmd.Render(doc, r), nil
}
