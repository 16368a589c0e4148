// Package events publishes fire-and-forget notifications about executed
// operations. Publishing never fails the transaction that produced the
// event.
package events

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives operation events. Implementations must not return errors to
// callers; delivery is best-effort.
type Sink interface {
	// LogEvent records an event under a category/action pair for an actor.
	LogEvent(category, action, actor string, data map[string]any)
}

// LogSink writes events as structured log lines.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink writing to the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// NewStderrSink creates a sink writing JSON lines to stderr. Log level is
// read from LOG_LEVEL (defaults to info).
func NewStderrSink() *LogSink {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return &LogSink{logger: logger}
}

// LogEvent writes one event line.
func (s *LogSink) LogEvent(category, action, actor string, data map[string]any) {
	s.logger.Info().
		Str("category", category).
		Str("action", action).
		Str("actor", actor).
		Fields(data).
		Msg("event")
}

// Critical logs an integrity fault at the highest severity. The caller still
// returns failure; this is the operational trace.
func (s *LogSink) Critical(category, action, actor string, data map[string]any, err error) {
	s.logger.Error().
		Str("category", category).
		Str("action", action).
		Str("actor", actor).
		Fields(data).
		Err(err).
		Msg("CRITICAL integrity failure")
}

// MemorySink records events for test verification.
type MemorySink struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

// RecordedEvent is one captured event.
type RecordedEvent struct {
	Category string
	Action   string
	Actor    string
	Data     map[string]any
}

// NewMemorySink creates a recording sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// LogEvent appends the event to the in-memory record.
func (s *MemorySink) LogEvent(category, action, actor string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, RecordedEvent{Category: category, Action: action, Actor: actor, Data: data})
}
