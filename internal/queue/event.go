// Package queue contains the audit event shape shared by the publisher and
// the background consumer, plus the consumer that appends events to
// logs/audit.log.
package queue

import "time"

// AuditQueueName is the durable queue all audit events go through.
const AuditQueueName = "tomevault.audit"

// Audit event actions. Kept as constants so the publisher and any later
// consumer agree on spelling.
const (
	ActionUserRegistered    = "auth.user.registered"
	ActionUserLogin         = "auth.user.login"
	ActionAdminUserCreated  = "admin.user.created"
	ActionAdminUserUpdated  = "admin.user.updated"
	ActionAdminUserDeleted  = "admin.user.deleted"
	ActionAdminRolesChanged = "admin.user.roles_changed"
	ActionAdminStatusToggle = "admin.user.status_toggled"
	ActionAdminPassReset    = "admin.user.password_reset"
)

// AuditEvent is the message published for every security-relevant action.
// Actor is the acting username ("" at registration/login for the subject
// itself); Subject is the username the action applied to.
type AuditEvent struct {
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	Subject    string    `json:"subject"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
