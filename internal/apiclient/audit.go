package apiclient

import (
	"context"
	"net/http"

	"github.com/aurcc/bonafide-portal/internal/app/models"
)

// AuditLogs lists the full audit trail.
func (c *Client) AuditLogs(ctx context.Context, creds Credentials) ([]models.AuditLogEntry, error) {
	return doList[models.AuditLogEntry](ctx, c, creds, newRequest(http.MethodGet, "/audit/logs/"))
}

// MyAuditLogs lists the audit entries of the current user.
func (c *Client) MyAuditLogs(ctx context.Context, creds Credentials) ([]models.AuditLogEntry, error) {
	return doList[models.AuditLogEntry](ctx, c, creds, newRequest(http.MethodGet, "/audit/logs/my/"))
}
