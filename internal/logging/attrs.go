package logging

import (
	"context"
	"log/slog"
	"time"
)

// Standardized structured logging keys shared across the engine.
const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldLearnerID carries the opaque learner identity.
	FieldLearnerID = "learner_id"
	// FieldCourseID carries the course identifier.
	FieldCourseID = "course_id"
	// FieldUnitID carries the vocabulary-unit identifier.
	FieldUnitID = "unit_id"
	// FieldSessionID carries the practice-session identifier.
	FieldSessionID = "session_id"
	// FieldThread carries the interleaving thread index.
	FieldThread = "thread"
	// FieldAudioID carries an audio-asset identifier.
	FieldAudioID = "audio_id"
	// FieldEventType tags records for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step after a failure.
	FieldErrorHint = "error_hint"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Alert(value string) Attr { return slog.String(FieldAlert, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts typed attrs into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NewNop returns a logger that discards every record.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger returns logger with a standardized component attribute.
// A nil logger falls back to the no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
