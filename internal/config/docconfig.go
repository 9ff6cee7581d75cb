package config

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category types accepted in linksLeft/linksRight. "link" is the external
// link category; unknown types are skipped by the site tree builder.
const (
	CategoryLocalDoc   = "local-doc"
	CategoryLink       = "link"
	CategoryGithubLink = "github-link"
	CategorySearch     = "search"
	CategoryVersion    = "version"
)

// RootConfig is the documentation root's .docConfig file.
type RootConfig struct {
	Logo              *LogoConfig      `json:"logo" yaml:"logo" toml:"logo"`
	Favicon           *FaviconConfig   `json:"favicon" yaml:"favicon" toml:"favicon"`
	OtherVersionsLink string           `json:"otherVersionsLink" yaml:"otherVersionsLink" toml:"otherVersionsLink"`
	SiteMapRoot       string           `json:"siteMapRoot" yaml:"siteMapRoot" toml:"siteMapRoot"`
	LinksLeft         []CategoryConfig `json:"linksLeft" yaml:"linksLeft" toml:"linksLeft"`
	LinksRight        []CategoryConfig `json:"linksRight" yaml:"linksRight" toml:"linksRight"`
}

// LogoConfig points at a logo image relative to the input root.
type LogoConfig struct {
	SrcPath string `json:"srcPath" yaml:"srcPath" toml:"srcPath"`
	Link    string `json:"link" yaml:"link" toml:"link"`
}

// FaviconConfig points at a favicon relative to the input root.
type FaviconConfig struct {
	SrcPath string `json:"srcPath" yaml:"srcPath" toml:"srcPath"`
}

// CategoryConfig is one navigation entry of linksLeft/linksRight.
type CategoryConfig struct {
	Type        string `json:"type" yaml:"type" toml:"type"`
	DisplayName string `json:"displayName" yaml:"displayName" toml:"displayName"`
	Path        string `json:"path" yaml:"path" toml:"path"`
	Link        string `json:"link" yaml:"link" toml:"link"`
}

// DirConfig is the .docConfig file of a category or page group directory.
type DirConfig struct {
	Pages []PageConfig `json:"pages" yaml:"pages" toml:"pages"`
}

// PageConfig is one entry of a DirConfig.
type PageConfig struct {
	Path        string `json:"path" yaml:"path" toml:"path"`
	DisplayName string `json:"displayName" yaml:"displayName" toml:"displayName"`
	DefaultOpen bool   `json:"defaultOpen" yaml:"defaultOpen" toml:"defaultOpen"`
}

func (l LogoConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.SrcPath, validation.Required),
	)
}

func (f FaviconConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.SrcPath, validation.Required),
	)
}

func (c CategoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required),
		validation.Field(&c.Path, validation.When(c.Type == CategoryLocalDoc, validation.Required)),
		validation.Field(&c.DisplayName,
			validation.When(c.Type == CategoryLocalDoc || c.Type == CategoryLink, validation.Required)),
		validation.Field(&c.Link,
			validation.When(c.Type == CategoryLink || c.Type == CategoryGithubLink, validation.Required)),
	)
}

func (p PageConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Path, validation.Required),
		validation.Field(&p.DisplayName, validation.Required),
	)
}

func (r RootConfig) validateScalars() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SiteMapRoot, validation.By(absoluteURL)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewError("validation_absolute_url", "must be an absolute URL")
	}
	return nil
}
