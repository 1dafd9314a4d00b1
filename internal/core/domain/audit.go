package domain

import "time"

type AuditAction string

const (
	AuditLogin          AuditAction = "login"
	AuditRegister       AuditAction = "register"
	AuditForgotPassword AuditAction = "forgot_password"
	AuditClean          AuditAction = "clean"
	AuditGateRejection  AuditAction = "gate_rejection"
)

// AuditEvent records one security-relevant outcome.
type AuditEvent struct {
	Action    AuditAction `json:"action" bson:"action"`
	UserName  string      `json:"userName,omitempty" bson:"user_name,omitempty"`
	RequestID string      `json:"requestId,omitempty" bson:"request_id,omitempty"`
	Success   bool        `json:"success" bson:"success"`
	Reason    string      `json:"reason,omitempty" bson:"reason,omitempty"`
	At        time.Time   `json:"at" bson:"at"`
}
