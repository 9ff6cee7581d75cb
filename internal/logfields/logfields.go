package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyLink       = "link"
	KeyTarget     = "target"
	KeyAnchor     = "anchor"
	KeyAvailable  = "available_anchors"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func Output(path string) slog.Attr    { return slog.String(KeyOutput, path) }
func Link(raw string) slog.Attr       { return slog.String(KeyLink, raw) }
func Target(path string) slog.Attr    { return slog.String(KeyTarget, path) }
func Anchor(id string) slog.Attr      { return slog.String(KeyAnchor, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

// Available lists the anchors a target file actually exposes.
func Available(anchors []string) slog.Attr { return slog.Any(KeyAvailable, anchors) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
