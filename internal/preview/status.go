package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/build"
)

// Status is the outcome of the most recent preview build.
type Status struct {
	Builds        int               `json:"builds"`
	BuildID       string            `json:"build_id,omitempty"`
	Status        build.BuildStatus `json:"status,omitempty"`
	Error         string            `json:"error,omitempty"`
	PagesRendered int               `json:"pages_rendered"`
	PagesFailed   int               `json:"pages_failed"`
	BrokenLinks   int               `json:"broken_links"`
	AnchorIssues  int               `json:"anchor_issues"`
	FinishedAt    time.Time         `json:"finished_at,omitzero"`

	// HasGoodBuild is true once any build wrote the site.
	HasGoodBuild bool `json:"has_good_build"`
}

// buildStatus tracks the current build state for the status endpoint.
type buildStatus struct {
	mu sync.RWMutex
	s  Status
}

func (bs *buildStatus) record(report *build.Report, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.s.Builds++
	bs.s.Error = ""
	if err != nil {
		bs.s.Error = err.Error()
	}
	if report == nil {
		bs.s.Status = build.BuildStatusFailed
		return
	}
	bs.s.BuildID = report.BuildID
	bs.s.Status = report.Status
	bs.s.PagesRendered = report.PagesRendered
	bs.s.PagesFailed = report.PagesFailed
	bs.s.BrokenLinks = len(report.BrokenLinks)
	bs.s.AnchorIssues = report.AnchorsNotFound()
	bs.s.FinishedAt = report.EndTime
	if report.Status.IsSuccess() {
		bs.s.HasGoodBuild = true
	}
}

func (bs *buildStatus) snapshot() Status {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.s
}
