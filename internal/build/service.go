package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/anchors"
	"git.home.luguber.info/inful/docsite/internal/links"
)

// BuildService is the canonical interface for executing documentation builds.
type BuildService interface {
	// Run executes a complete build. The returned Report is non-nil even
	// when an error is returned, as long as the build got started.
	Run(ctx context.Context, req BuildRequest) (*Report, error)
}

// BuildRequest contains all inputs required to execute a documentation build.
type BuildRequest struct {
	// InputDir is the documentation root holding the root .docConfig file.
	InputDir string

	// OutputDir receives the generated site.
	OutputDir string

	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// Version is the documented project's version shown in the navbar.
	Version string

	// Clean removes the output directory before building.
	Clean bool

	// Concurrency bounds how many pages render at once. Values below 1
	// mean serial rendering.
	Concurrency int

	// Strict turns broken links, unresolved anchors and failed pages into
	// a build error.
	Strict bool
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates every page rendered and every link resolved.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusWarning indicates the site was written but some pages
	// failed or some links did not resolve.
	BuildStatusWarning BuildStatus = "warning"

	// BuildStatusFailed indicates the build stopped on a fatal error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the site was fully written.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning
}

// Report summarises one build.
type Report struct {
	BuildID   string
	Status    BuildStatus
	InputDir  string
	OutputDir string
	Version   string

	PagesTotal    int
	PagesRendered int
	PagesFailed   int
	FailedPages   []PageFailure
	BrokenLinks   []links.BrokenLink
	AnchorIssues  []AnchorIssue
	References    int

	SearchIndexWritten bool
	SitemapWritten     bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// PageFailure is a page that could not be rendered or written.
type PageFailure struct {
	InputFile string
	Err       error
}

// AnchorIssue is an anchor reference that did not resolve, together with
// the anchors the target file does expose.
type AnchorIssue struct {
	anchors.Issue
	Available []string
}

// AnchorsNotFound counts the issues whose target file exists but lacks the
// anchor.
func (r *Report) AnchorsNotFound() int {
	n := 0
	for _, is := range r.AnchorIssues {
		if is.Validity == anchors.AnchorNotFound {
			n++
		}
	}
	return n
}

// HasIssues reports whether the build produced anything strict mode
// rejects. FileNotFound anchor issues are excluded: they follow from a page
// failure that is already counted.
func (r *Report) HasIssues() bool {
	return r.PagesFailed > 0 || len(r.BrokenLinks) > 0 || r.AnchorsNotFound() > 0
}
