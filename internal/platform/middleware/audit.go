package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

// AuditEntry captures who touched which health record, when and how.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	FacilityID string
	Resource   string
	RecordID   string
	Action     string // read, create, update, delete, export
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries somewhere other than the log stream.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// MetricsAuditRecorder counts audit entries on m.
func MetricsAuditRecorder(m *metrics.Metrics) AuditRecorder {
	return AuditRecorderFunc(func(entry AuditEntry) error {
		m.RecordAudit(entry.Resource, entry.Action, entry.StatusCode)
		return nil
	})
}

// auditedResources are the /api/v1 collections holding personal health data.
var auditedResources = map[string]bool{
	"patients": true,
	"children": true,
	"export":   true,
}

// Audit logs access to patient and child records. Aggregate statistics and
// location lookups are not audited.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			resource, recordID := splitResourcePath(path)
			if !auditedResources[resource] {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Resource:   resource,
				RecordID:   recordID,
				Action:     httpMethodToAction(req.Method),
			}
			if resource == "export" {
				entry.Action = "export"
			}

			p := auth.PrincipalFromContext(req.Context())
			entry.UserID = p.UserID
			entry.UserRoles = p.Roles
			if p.FacilityID != nil {
				entry.FacilityID = p.FacilityID.String()
			}
			entry.RequestID = requestIDOf(c)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "record_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("facility_id", entry.FacilityID).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResourcePath turns /api/v1/patients/<id>/... into ("patients", "<id>").
// The id is empty when the second segment is not a UUID.
func splitResourcePath(path string) (resource, id string) {
	if !strings.HasPrefix(path, "/api/v1/") {
		return "", ""
	}
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	resource = segments[0]
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			id = segments[1]
		}
	}
	return resource, id
}
