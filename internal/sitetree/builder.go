package sitetree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Options tunes tree building.
type Options struct {
	// Version is the documented project's version. Empty means no version item.
	Version string
}

// Build reads the root configuration in inputDir and every local-doc
// category and page group configuration below it. It stats paths to tell
// pages from groups but never reads page contents.
func Build(inputDir, outputDir string, opts Options) (*Tree, error) {
	in, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve input directory").
			Fatal().WithContext("file", inputDir).Build()
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve output directory").
			Fatal().WithContext("file", outputDir).Build()
	}

	root, _, err := config.LoadRoot(in)
	if err != nil {
		return nil, err
	}

	b := &builder{
		tree: &Tree{
			InputDir:        in,
			OutputDir:       out,
			SiteMapRoot:     root.SiteMapRoot,
			LinksRightIndex: -1,
			Files:           newFileMap(),
		},
		outputs: make(map[string]string),
	}
	if root.Logo != nil {
		b.tree.Logo = &Logo{SrcPath: root.Logo.SrcPath, Link: root.Logo.Link}
	}
	if root.Favicon != nil {
		b.tree.FaviconSrcPath = root.Favicon.SrcPath
	}
	if opts.Version != "" {
		b.tree.Version = &VersionInfo{Version: opts.Version, Link: root.OtherVersionsLink}
	}

	links := append(append([]config.CategoryConfig{}, root.LinksLeft...), root.LinksRight...)
	for i, c := range links {
		if i == len(root.LinksLeft) && len(root.LinksRight) > 0 {
			b.tree.LinksRightIndex = len(b.tree.Categories)
		}
		cat, ok, err := b.category(c)
		if err != nil {
			return nil, err
		}
		if ok {
			b.tree.Categories = append(b.tree.Categories, cat)
		}
	}
	return b.tree, nil
}

type builder struct {
	tree *Tree
	// output path → input path that claimed it
	outputs map[string]string
}

func (b *builder) category(c config.CategoryConfig) (Category, bool, error) {
	switch c.Type {
	case config.CategoryLocalDoc:
		cat, err := b.localDoc(c)
		return cat, err == nil, err
	case config.CategoryLink:
		return Category{Kind: KindExternalLink, DisplayName: c.DisplayName, Link: c.Link}, true, nil
	case config.CategoryGithubLink:
		return Category{Kind: KindGithubLink, Link: c.Link}, true, nil
	case config.CategorySearch:
		return Category{Kind: KindSearch}, true, nil
	case config.CategoryVersion:
		return Category{Kind: KindVersion}, true, nil
	default:
		return Category{}, false, nil
	}
}

func (b *builder) localDoc(c config.CategoryConfig) (Category, error) {
	catIn := filepath.Join(b.tree.InputDir, c.Path)
	catOut := filepath.Join(b.tree.OutputDir, c.Path)
	cat := Category{Kind: KindLocalDoc, DisplayName: c.DisplayName}

	dirCfg, cfgFile, err := config.LoadDir(catIn)
	if err != nil {
		return cat, err
	}
	for i, p := range dirCfg.Pages {
		pageIn := filepath.Join(catIn, p.Path)
		isDir, err := classify(pageIn, cfgFile, fmt.Sprintf("pages[%d].path", i))
		if err != nil {
			return cat, err
		}
		if !isDir {
			page, err := b.page(p.DisplayName, pageIn, filepath.Join(catOut, p.Path), cfgFile)
			if err != nil {
				return cat, err
			}
			cat.Entries = append(cat.Entries, Entry{Page: page})
			continue
		}
		group, err := b.group(p, pageIn, filepath.Join(catOut, p.Path))
		if err != nil {
			return cat, err
		}
		cat.Entries = append(cat.Entries, group)
	}
	return cat, nil
}

func (b *builder) group(p config.PageConfig, groupIn, groupOut string) (Entry, error) {
	entry := Entry{
		Page:        Page{DisplayName: p.DisplayName},
		Group:       true,
		DefaultOpen: p.DefaultOpen,
	}
	groupCfg, cfgFile, err := config.LoadDir(groupIn)
	if err != nil {
		return entry, err
	}
	for i, sp := range groupCfg.Pages {
		subIn := filepath.Join(groupIn, sp.Path)
		isDir, err := classify(subIn, cfgFile, fmt.Sprintf("pages[%d].path", i))
		if err != nil {
			return entry, err
		}
		if isDir {
			return entry, errors.ConfigError(fmt.Sprintf("category page depth cannot exceed 2 yet %q is a directory", subIn)).
				WithContext("file", cfgFile).
				WithContext("property", fmt.Sprintf("pages[%d].path", i)).
				Build()
		}
		page, err := b.page(sp.DisplayName, subIn, filepath.Join(groupOut, sp.Path), cfgFile)
		if err != nil {
			return entry, err
		}
		entry.Pages = append(entry.Pages, page)
	}
	return entry, nil
}

// page registers one leaf, enforcing that no two inputs share an output.
func (b *builder) page(name, in, outWithSourceExt, cfgFile string) (Page, error) {
	in = filepath.Clean(in)
	out := OutputPath(outWithSourceExt)
	if prev, taken := b.outputs[out]; taken {
		return Page{}, errors.ConfigError("two pages map to the same output file").
			WithContext("file", cfgFile).
			WithContext("output", out).
			WithContext("inputs", []string{prev, in}).
			Build()
	}
	b.outputs[out] = in
	b.tree.Files.m[in] = out
	return Page{DisplayName: name, InputFile: in, OutputFile: out}, nil
}

// OutputPath replaces the extension of a source path with ".html".
func OutputPath(source string) string {
	source = filepath.Clean(source)
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".html"
}

func classify(path, cfgFile, property string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("cannot run stat on %q", path)).
			Fatal().
			WithContext("file", cfgFile).
			WithContext("property", property).
			Build()
	}
	switch {
	case st.IsDir():
		return true, nil
	case st.Mode().IsRegular():
		return false, nil
	default:
		return false, errors.ConfigError(fmt.Sprintf("%q is neither a file nor a directory", path)).
			WithContext("file", cfgFile).
			WithContext("property", property).
			Build()
	}
}
