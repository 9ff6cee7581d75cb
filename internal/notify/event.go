// Package notify publishes build issues (broken links and unresolved
// anchors) to NATS JetStream for downstream processing, such as opening
// tickets or dashboards.
package notify

import "time"

// IssueKind classifies an IssueEvent.
type IssueKind string

const (
	KindBrokenLink     IssueKind = "broken_link"
	KindAnchorNotFound IssueKind = "anchor_not_found"
	KindFileNotFound   IssueKind = "file_not_found"
)

// IssueEvent is one problem found during a build.
type IssueEvent struct {
	Kind IssueKind `json:"kind"`

	// Citing page
	SourceFile         string `json:"source_file"`
	SourceRelativePath string `json:"source_relative_path"`

	// What the page pointed at
	Link             string   `json:"link,omitempty"`
	TargetFile       string   `json:"target_file,omitempty"`
	Anchor           string   `json:"anchor,omitempty"`
	AvailableAnchors []string `json:"available_anchors,omitempty"`

	BuildID   string    `json:"build_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BuildSummary is the last-build record stored in the key/value bucket.
type BuildSummary struct {
	BuildID       string        `json:"build_id"`
	InputDir      string        `json:"input_dir"`
	Version       string        `json:"version,omitempty"`
	Outcome       string        `json:"outcome"`
	PagesRendered int           `json:"pages_rendered"`
	PagesFailed   int           `json:"pages_failed"`
	BrokenLinks   int           `json:"broken_links"`
	AnchorIssues  int           `json:"anchor_issues"`
	Duration      time.Duration `json:"duration_ns"`
	FinishedAt    time.Time     `json:"finished_at"`
}
