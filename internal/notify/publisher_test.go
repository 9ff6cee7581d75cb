package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestIssueSubject(t *testing.T) {
	assert.Equal(t, "docsite.issues.anchor_not_found", IssueSubject("docsite.issues", KindAnchorNotFound))
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "srv_docs_v1_2", SummaryKey("/srv/docs/v1.2"))
	assert.Equal(t, "root", SummaryKey("/"))
}

func TestIssueEvent_JSON(t *testing.T) {
	ev := IssueEvent{
		Kind:             KindAnchorNotFound,
		SourceFile:       "/docs/a.md",
		TargetFile:       "/docs/b.md",
		Anchor:           "usage",
		AvailableAnchors: []string{"intro"},
		Timestamp:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind":"anchor_not_found",
		"source_file":"/docs/a.md",
		"source_relative_path":"",
		"target_file":"/docs/b.md",
		"anchor":"usage",
		"available_anchors":["intro"],
		"timestamp":"2024-01-02T03:04:05Z"
	}`, string(data))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishIssue(context.Background(), IssueEvent{}))
	assert.NoError(t, p.PublishSummary(context.Background(), BuildSummary{}))
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisher_RequiresURL(t *testing.T) {
	_, err := NewNATSPublisher(context.Background(), NATSConfig{}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher(context.Background(), DefaultNATSConfig("nats://127.0.0.1:1"), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}
