// Package assets installs the files every generated site needs besides its
// pages: the embedded stylesheets and script, and the logo and favicon
// declared in the root configuration.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/fsutil"
)

//go:embed static
var staticFS embed.FS

// Embedded files, in the order pages link them.
var (
	stylesheets = []string{"styles/style.css", "styles/code.css"}
	scripts     = []string{"scripts/script.js"}
)

// Installed holds the absolute output paths of the installed static files.
type Installed struct {
	CSS     []string
	Scripts []string
}

// Install writes the embedded stylesheets and script below outputDir,
// replacing older copies.
func Install(outputDir string) (*Installed, error) {
	inst := &Installed{}
	for _, rel := range stylesheets {
		p, err := install(outputDir, rel)
		if err != nil {
			return nil, err
		}
		inst.CSS = append(inst.CSS, p)
	}
	for _, rel := range scripts {
		p, err := install(outputDir, rel)
		if err != nil {
			return nil, err
		}
		inst.Scripts = append(inst.Scripts, p)
	}
	return inst, nil
}

func install(outputDir, rel string) (string, error) {
	data, err := fs.ReadFile(staticFS, path.Join("static", rel))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "embedded asset missing").
			WithContext("asset", rel).Build()
	}
	dst := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := fsutil.WriteFileAtomic(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// CopyRootFile copies the file at rel, relative to inputDir, to the same
// relative location below outputDir, unless it is already there. rel must
// stay inside inputDir.
func CopyRootFile(inputDir, outputDir, rel string) (string, error) {
	src := filepath.Join(inputDir, filepath.FromSlash(rel))
	if !fsutil.Within(inputDir, src) {
		return "", errors.ValidationError("file would be copied from outside of the input root").
			WithContext("path", rel).
			WithContext("input_root", inputDir).
			Build()
	}
	dst := filepath.Join(outputDir, filepath.FromSlash(rel))
	if _, err := fsutil.CopyFileIfMissing(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}
