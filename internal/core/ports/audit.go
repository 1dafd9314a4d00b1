package ports

import (
	"context"

	"github.com/expensehub/gateway/internal/core/domain"
)

// AuditRecorder accepts audit events without blocking the request path.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditSink persists audit events. It is called off the request path.
type AuditSink interface {
	Write(ctx context.Context, event domain.AuditEvent) error
}
