package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestNew(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.Equal(t, EngineGoldmark, r.Name())

	r, err = New("GoMarkdown")
	require.NoError(t, err)
	assert.Equal(t, EngineGomarkdown, r.Name())

	_, err = New("pandoc")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRenderers_Common(t *testing.T) {
	src := []byte("# Title\n\nSome [link](other.md#x) and ![img](pic.png).\n\n## Sub section\n")
	for _, name := range []string{EngineGoldmark, EngineGomarkdown} {
		t.Run(name, func(t *testing.T) {
			r, err := New(name)
			require.NoError(t, err)
			out, err := r.Render(src)
			require.NoError(t, err)
			html := string(out)

			assert.Contains(t, html, "<h1>Title</h1>", "headings carry no generated id")
			assert.Contains(t, html, `href="other.md#x"`)
			assert.Contains(t, html, `src="pic.png"`)
		})
	}
}

func TestGoldmark_GFMAndRawHTML(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n<video src=\"clip.mp4\"></video>\n")
	out, err := NewGoldmark().Render(src)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<del>gone</del>")
	assert.Contains(t, html, `<video src="clip.mp4"></video>`)
}

func TestGoldmark_HighlightUsesClasses(t *testing.T) {
	src := []byte("```go\npackage main\n```\n")
	out, err := NewGoldmark().Render(src)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `class="chroma"`)
	assert.NotContains(t, html, "style=\"color", "inline styles are not emitted")
}
