package render

import "strings"

// TOCEntry is one heading of the page table of contents.
type TOCEntry struct {
	Level  int
	Text   string
	Anchor string
}

var tocIndent = map[int]string{1: "", 2: "  - ", 3: "    - "}

// Heading text is decoded, so HTML metacharacters go back in as entities.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `[`, `\[`, `]`, `\]`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`&`, `&amp;`, `<`, `&lt;`, `>`, `&gt;`,
)

// TOCMarkdown renders entries as a nested Markdown list: h1 flush, h2
// indented once, h3 twice.
func TOCMarkdown(entries []TOCEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, tocIndent[e.Level]+"["+markdownEscaper.Replace(e.Text)+"](#"+e.Anchor+")")
	}
	return strings.Join(lines, "\n")
}

// ShowTOC reports whether a table of contents is worth displaying.
func (r *Result) ShowTOC() bool {
	return len(r.TOC) > 1
}

// TOCHTML renders the table of contents of res with the page's Markdown
// engine. It is empty unless ShowTOC holds.
func (r *Renderer) TOCHTML(res *Result) (string, error) {
	if !res.ShowTOC() {
		return "", nil
	}
	out, err := r.opts.Markdown.Render([]byte(TOCMarkdown(res.TOC)))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
