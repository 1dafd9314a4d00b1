package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/core/domain"
)

// LogSink writes audit events as structured log lines.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Write(_ context.Context, ev domain.AuditEvent) error {
	s.log.Info().
		Str("action", string(ev.Action)).
		Str("user_name", ev.UserName).
		Str("request_id", ev.RequestID).
		Bool("success", ev.Success).
		Str("reason", ev.Reason).
		Time("at", ev.At).
		Msg("audit")
	return nil
}
