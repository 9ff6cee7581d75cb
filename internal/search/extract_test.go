package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_HeadingScopes(t *testing.T) {
	records, err := Extract(`<h1>T1</h1><p>hello</p><h2>T2</h2><p>world</p>`)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{H1: "T1", Body: "hello"},
		{H1: "T1", H2: "T2", Body: "world"},
	}, records)
}

func TestExtract_AnchorsFromIDs(t *testing.T) {
	body := `<h1 id="intro">Intro</h1>
<p>first
line</p>
<pre><code>code</code></pre>
<h2 id="setup">Setup</h2>
<h3 id="linux">Linux</h3>
<p>apt</p>
<h2 id="usage">Usage</h2>
<p>run</p>
<h1 id="next">Next</h1>`
	records, err := Extract(body)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{H1: "Intro", AnchorH1: "intro", Body: "first line code"},
		{H1: "Intro", AnchorH1: "intro", H2: "Setup", AnchorH2: "setup"},
		{H1: "Intro", AnchorH1: "intro", H2: "Setup", AnchorH2: "setup", H3: "Linux", AnchorH3: "linux", Body: "apt"},
		{H1: "Intro", AnchorH1: "intro", H2: "Usage", AnchorH2: "usage", Body: "run"},
		{H1: "Next", AnchorH1: "next"},
	}, records)
}

func TestExtract_AnchorMarkerFallback(t *testing.T) {
	records, err := Extract(`<a name="t1"></a><h1>T1</h1><p>x</p><h2>T2</h2><p>y</p>`)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[0].AnchorH1)
	assert.Equal(t, "", records[1].AnchorH2, "a marker only applies to the heading right after it")
}

func TestExtract_TextBeforeFirstHeadingDropped(t *testing.T) {
	records, err := Extract(`<p>preamble</p><h2>Only</h2><p>text</p>`)
	require.NoError(t, err)
	assert.Equal(t, []Record{{H2: "Only", Body: "text"}}, records)
}

func TestExtract_NoHeadings(t *testing.T) {
	records, err := Extract(`<p>just text</p>`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecord_JSONOmitsMissingHeadings(t *testing.T) {
	data, err := json.Marshal(Record{H1: "T1", Body: "", AnchorH1: "t1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"h1":"T1","body":"","anchorH1":"t1"}`, string(data))
}

func TestExtract_AdjacentBlocksJoinedWithSpace(t *testing.T) {
	records, err := Extract("<h1>T</h1><p>a</p><pre>b\nc</pre><p>  d  </p>")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a b c d", records[0].Body)
}
