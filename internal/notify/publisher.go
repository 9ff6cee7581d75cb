package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Publisher receives the issues and summary of a build.
type Publisher interface {
	PublishIssue(ctx context.Context, ev IssueEvent) error
	PublishSummary(ctx context.Context, s BuildSummary) error
	Close() error
}

// NoopPublisher discards everything (default when NATS is not configured).
type NoopPublisher struct{}

func (NoopPublisher) PublishIssue(context.Context, IssueEvent) error     { return nil }
func (NoopPublisher) PublishSummary(context.Context, BuildSummary) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// NATSConfig configures a NATSPublisher.
type NATSConfig struct {
	URL string
	// Subject prefix; events go to "<Subject>.<kind>".
	Subject string
	// Stream is created or updated to capture "<Subject>.>".
	Stream string
	// Bucket is the key/value bucket holding the last BuildSummary per
	// input directory. Empty disables summaries.
	Bucket string
}

// DefaultNATSConfig returns the subject, stream and bucket names used when
// only a URL is given.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{URL: url, Subject: "docsite.issues", Stream: "DOCSITE_ISSUES", Bucket: "docsite_builds"}
}

// NATSPublisher publishes to NATS JetStream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to cfg.URL and prepares the stream and bucket.
func NewNATSPublisher(ctx context.Context, cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		return nil, errors.ConfigError("NATS URL is required").Build()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("docsite"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create JetStream context").Build()
	}

	p := &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, logger: logger}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if cfg.Stream != "" {
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "Build issues reported by docsite",
			Subjects:    []string{cfg.Subject + ".>"},
			MaxAge:      30 * 24 * time.Hour,
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create JetStream stream").
				WithContext("stream", cfg.Stream).Build()
		}
	}
	if cfg.Bucket != "" {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "Last build summary per documentation root",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create KV bucket").
				WithContext("bucket", cfg.Bucket).Build()
		}
		p.kv = kv
	}

	logger.Info("NATS publisher initialized", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return p, nil
}

// PublishIssue publishes ev on "<subject>.<kind>".
func (p *NATSPublisher) PublishIssue(ctx context.Context, ev IssueEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal event").Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(ctx, IssueSubject(p.subject, ev.Kind), data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish event").
			WithContext("kind", string(ev.Kind)).Build()
	}
	p.logger.Debug("Published build issue", slog.String("kind", string(ev.Kind)), logfields.File(ev.SourceFile))
	return nil
}

// PublishSummary stores s under a key derived from its input directory.
func (p *NATSPublisher) PublishSummary(ctx context.Context, s BuildSummary) error {
	if p.kv == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal build summary").Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := p.kv.Put(ctx, SummaryKey(s.InputDir), data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to store build summary").Build()
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}

// IssueSubject returns the subject events of kind are published on.
func IssueSubject(prefix string, kind IssueKind) string {
	return prefix + "." + string(kind)
}

// SummaryKey turns a directory path into a valid key/value key: only
// alphanumerics, '-', '_' and '=' are kept, others become '_'.
func SummaryKey(dir string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '=':
			return r
		default:
			return '_'
		}
	}, dir)
	key = strings.Trim(key, "_")
	if key == "" {
		return "root"
	}
	return key
}
