package sitetree

import "path/filepath"

// FileMap maps every input Markdown file to its output HTML file. It is
// built once before rendering and never modified afterwards.
type FileMap struct {
	m map[string]string
}

func newFileMap() *FileMap {
	return &FileMap{m: make(map[string]string)}
}

// NewFileMap builds a FileMap from input→output pairs. Paths are cleaned.
func NewFileMap(pairs map[string]string) *FileMap {
	fm := newFileMap()
	for in, out := range pairs {
		fm.m[filepath.Clean(in)] = filepath.Clean(out)
	}
	return fm
}

// Lookup returns the output path for an absolute input path.
func (f *FileMap) Lookup(input string) (string, bool) {
	if f == nil {
		return "", false
	}
	out, ok := f.m[filepath.Clean(input)]
	return out, ok
}

// Len returns the number of mapped files.
func (f *FileMap) Len() int {
	if f == nil {
		return 0
	}
	return len(f.m)
}
