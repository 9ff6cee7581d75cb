package markdown

import (
	"bytes"

	"github.com/adrg/frontmatter"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Meta is the page metadata a source file may declare in front matter.
type Meta struct {
	Title       string `yaml:"title" toml:"title" json:"title"`
	Description string `yaml:"description" toml:"description" json:"description"`
}

// StripFrontMatter splits a source file into its metadata and Markdown body.
// Files without front matter are returned unchanged with an empty Meta.
func StripFrontMatter(source []byte) (Meta, []byte, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Meta{}, nil, errors.WrapError(err, errors.CategoryValidation, "invalid front matter").Build()
	}
	return meta, body, nil
}
