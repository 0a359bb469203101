// Package audit holds the AuditSink variants that do not need a database.
// The Mongo-backed sink lives with the other repositories.
package audit

import (
	"context"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// LogSink writes audit events as structured log lines
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates an audit sink that logs through logger
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Record(_ context.Context, event *domain.AuditEvent) error {
	e := s.logger.Info()
	if event.Type == domain.AuditError {
		e = s.logger.Warn()
	}
	e = e.
		Str("request_id", event.RequestID).
		Str("type", string(event.Type)).
		Str("provider", event.Provider.String()).
		Int64("processing_ms", event.ProcessingMs)
	if event.Step != "" {
		e = e.Str("step", string(event.Step))
	}
	if event.StatusCode != 0 {
		e = e.Int("status_code", event.StatusCode)
	}
	if len(event.Metadata) > 0 {
		e = e.Interface("metadata", event.Metadata)
	}
	e.Msg(event.Message)
	return nil
}

// MultiSink fans an event out to every sink and returns the first error
type MultiSink []ports.AuditSink

func (m MultiSink) Record(ctx context.Context, event *domain.AuditEvent) error {
	var first error
	for _, sink := range m {
		if err := sink.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ ports.AuditSink = (*LogSink)(nil)
	_ ports.AuditSink = MultiSink(nil)
)
