// Package anchors tracks the anchors every page generated and the anchor
// references pages made to each other, and checks the latter against the
// former once every page has been rendered.
//
// Use happens in two phases. While pages render, Registry only grows:
// RecordAnchors stores a file's anchors and QueueReference appends a
// reference without checking it. Once rendering is over, Seal takes an
// immutable Resolution that answers every reference at once, so forward and
// backward references are treated the same regardless of render order.
package anchors

import (
	"slices"
	"sync"

	"git.home.luguber.info/inful/docsite/internal/util/sets"
)

// Validity is the outcome of checking one anchor reference.
type Validity int

const (
	// Found means the target file recorded the anchor.
	Found Validity = iota
	// FileNotFound means the target file never recorded any anchors: it is
	// not part of the tree or it failed to render.
	FileNotFound
	// AnchorNotFound means the target file is known but lacks the anchor.
	AnchorNotFound
)

func (v Validity) String() string {
	switch v {
	case Found:
		return "found"
	case FileNotFound:
		return "file_not_found"
	case AnchorNotFound:
		return "anchor_not_found"
	default:
		return "unknown"
	}
}

// Reference is a citing file pointing at an anchor in a target file. Both
// files are input paths; they are equal for in-page references.
type Reference struct {
	CitingFile string
	TargetFile string
	Anchor     string
}

// Issue is a reference that did not resolve.
type Issue struct {
	Reference
	Validity Validity
}

// Registry collects anchors and references during rendering. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	anchors map[string][]string
	refs    []Reference
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{anchors: make(map[string][]string)}
}

// RecordAnchors replaces the anchor list of file. Calling it again for the
// same file overwrites the previous list.
func (r *Registry) RecordAnchors(file string, anchors []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchors[file] = slices.Clone(anchors)
}

// QueueReference appends a reference for later resolution. Nothing is
// checked at call time: the target may not be rendered yet.
func (r *Registry) QueueReference(citingFile, targetFile, anchor string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, Reference{CitingFile: citingFile, TargetFile: targetFile, Anchor: anchor})
}

// Seal snapshots the registry into a Resolution. Later writes to the
// registry do not affect the returned value.
func (r *Registry) Seal() *Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := &Resolution{
		anchors: make(map[string][]string, len(r.anchors)),
		sets:    make(map[string]sets.Set[string], len(r.anchors)),
		refs:    slices.Clone(r.refs),
	}
	for file, list := range r.anchors {
		res.anchors[file] = list
		res.sets[file] = sets.New(list...)
	}
	return res
}

// ResolveAll seals the registry and returns every unresolved reference.
func (r *Registry) ResolveAll() []Issue {
	return r.Seal().ResolveAll()
}

// Resolution is the read-only view of a sealed registry.
type Resolution struct {
	anchors map[string][]string
	sets    map[string]sets.Set[string]
	refs    []Reference
}

// Check classifies a single anchor of file.
func (res *Resolution) Check(file, anchor string) Validity {
	set, ok := res.sets[file]
	if !ok {
		return FileNotFound
	}
	if !set.Has(anchor) {
		return AnchorNotFound
	}
	return Found
}

// ResolveAll returns every queued reference that is not Found, in queue order.
func (res *Resolution) ResolveAll() []Issue {
	var issues []Issue
	for _, ref := range res.refs {
		if v := res.Check(ref.TargetFile, ref.Anchor); v != Found {
			issues = append(issues, Issue{Reference: ref, Validity: v})
		}
	}
	return issues
}

// AnchorsFor returns the anchors recorded for file, in generation order.
func (res *Resolution) AnchorsFor(file string) ([]string, bool) {
	list, ok := res.anchors[file]
	return slices.Clone(list), ok
}

// References returns how many references were queued.
func (res *Resolution) References() int {
	return len(res.refs)
}
