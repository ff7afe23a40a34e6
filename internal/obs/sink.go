// Package obs provides EventSink implementations for the core's
// observability side channel.
package obs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bull/ragchat/internal/domain"
)

// SlogSink logs events through a structured logger. Warning events log at
// Warn level, critical events at Error level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit logs the event with its fields as structured attributes.
func (s *SlogSink) Emit(ctx context.Context, e domain.Event) {
	attrs := make([]any, 0, 2*len(e.Fields)+2)
	for k, v := range e.Fields {
		attrs = append(attrs, k, v)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	if e.Severity == domain.SeverityCritical {
		s.logger.ErrorContext(ctx, e.Name, attrs...)
		return
	}
	s.logger.WarnContext(ctx, e.Name, attrs...)
}

// Recorder captures emitted events in memory. Used by tests to assert on
// degraded-mode and consistency events.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event.
func (r *Recorder) Emit(_ context.Context, e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all captured events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns captured events with the given name.
func (r *Recorder) Named(name string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
