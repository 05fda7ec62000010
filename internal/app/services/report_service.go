package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
)

// AuditLimit caps the audit table; the API returns the full trail.
const AuditLimit = 100

// ReportAPI is the part of the API client read by the request and audit reports
type ReportAPI interface {
	AllRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	AuditLogs(ctx context.Context, creds apiclient.Credentials) ([]models.AuditLogEntry, error)
	MyAuditLogs(ctx context.Context, creds apiclient.Credentials) ([]models.AuditLogEntry, error)
}

// AuditReport is a filtered audit trail
type AuditReport struct {
	Entries   []models.AuditLogEntry
	Matched   int
	Truncated bool
}

// ReportService filters and exports request and audit listings
type ReportService struct {
	api    ReportAPI
	now    func() time.Time
	logger zerolog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(api ReportAPI, logger zerolog.Logger) *ReportService {
	return &ReportService{api: api, now: time.Now, logger: logger}
}

// Requests returns every request visible to the reviewer, filtered by f.
func (s *ReportService) Requests(ctx context.Context, creds apiclient.Credentials, f dto.RequestFilter) ([]models.BonafideRequest, error) {
	requests, err := s.api.AllRequests(ctx, creds)
	if err != nil {
		return nil, err
	}
	return FilterRequests(requests, f, s.now())
}

// FilterRequests applies the status, date range and search filters. Results are newest first.
func FilterRequests(requests []models.BonafideRequest, f dto.RequestFilter, now time.Time) ([]models.BonafideRequest, error) {
	window, err := helpers.ResolveDateRange(helpers.DateRange(f.DateRange), f.From, f.To, now)
	if err != nil {
		return nil, apperrors.NewValidationError(capitalize(err.Error()))
	}
	status := models.RequestStatus(f.Status)
	if f.Status != "" && f.Status != "all" && !status.Valid() {
		return nil, apperrors.NewValidationError("Please select a valid status")
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.BonafideRequest, 0, len(requests))
	for _, r := range requests {
		if status.Valid() && r.Status != status {
			continue
		}
		if !window.Contains(r.CreatedAt) {
			continue
		}
		if search != "" && !matchesRequest(r, search) {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	return out, nil
}

func matchesRequest(r models.BonafideRequest, search string) bool {
	candidates := []string{r.RequestID, r.CertificateNumber, r.ReasonLabel()}
	if r.StudentDetails != nil {
		candidates = append(candidates, r.StudentDetails.Name, r.StudentDetails.RegisterNumber)
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), search) {
			return true
		}
	}
	return false
}

// Audit returns the audit trail visible to role filtered by f. The dean sees every entry,
// a warden only their own.
func (s *ReportService) Audit(ctx context.Context, role access.Role, creds apiclient.Credentials, f dto.AuditFilter) (*AuditReport, error) {
	var (
		entries []models.AuditLogEntry
		err     error
	)
	switch role.(type) {
	case access.Dean:
		entries, err = s.api.AuditLogs(ctx, creds)
	case access.Warden:
		entries, err = s.api.MyAuditLogs(ctx, creds)
	default:
		return nil, apperrors.NewForbiddenError("You are not allowed to view audit logs")
	}
	if err != nil {
		return nil, err
	}

	filtered, err := FilterAudit(entries, f, s.now())
	if err != nil {
		return nil, err
	}
	report := &AuditReport{Entries: filtered, Matched: len(filtered)}
	if len(filtered) > AuditLimit {
		report.Entries = filtered[:AuditLimit]
		report.Truncated = true
	}
	return report, nil
}

// FilterAudit applies the action and date range filters. Entries with unreadable timestamps
// are kept when no date range is selected.
func FilterAudit(entries []models.AuditLogEntry, f dto.AuditFilter, now time.Time) ([]models.AuditLogEntry, error) {
	window, err := helpers.ResolveDateRange(helpers.DateRange(f.DateRange), f.From, f.To, now)
	if err != nil {
		return nil, apperrors.NewValidationError(capitalize(err.Error()))
	}
	bounded := window != (helpers.Window{})

	out := make([]models.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		if f.Action != "" && f.Action != "all" && e.Action != f.Action {
			continue
		}
		if bounded {
			at, err := helpers.ParseTimestamp(e.Timestamp)
			if err != nil || !window.Contains(at) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

var requestCSVHeader = []string{
	"Student Name", "Register Number", "Department", "Year", "Hostel",
	"Reason", "Status", "Submitted Date", "Warden Action", "Dean Action", "Certificate Number",
}

// WriteRequestsCSV writes the request report as CSV.
func WriteRequestsCSV(w io.Writer, requests []models.BonafideRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requestCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range requests {
		var student models.StudentSummary
		if r.StudentDetails != nil {
			student = *r.StudentDetails
		}
		year := ""
		if student.CurrentYear > 0 {
			year = strconv.Itoa(student.CurrentYear)
		}
		row := []string{
			student.Name,
			student.RegisterNumber,
			student.DepartmentName,
			year,
			student.HostelName,
			r.ReasonLabel(),
			r.Status.ReviewerLabel(),
			helpers.FormatDate(r.CreatedAt),
			optionalDate(r.WardenApprovedAt),
			optionalDate(r.DeanApprovedAt),
			r.CertificateNumber,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var auditCSVHeader = []string{"Timestamp", "User", "Role", "Action", "Description", "IP Address"}

// WriteAuditCSV writes audit entries as CSV.
func WriteAuditCSV(w io.Writer, entries []models.AuditLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(auditCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range entries {
		action := e.ActionDisplay
		if action == "" {
			action = e.Action
		}
		ts := e.Timestamp
		if at, err := helpers.ParseTimestamp(e.Timestamp); err == nil {
			ts = helpers.FormatDateTime(at)
		}
		if err := cw.Write([]string{ts, e.Username, e.UserRole, action, e.Description, e.IPAddress}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// StudentTemplateColumns are the columns the bulk student import reads.
var StudentTemplateColumns = []string{
	"register_number", "name", "date_of_birth", "gender", "department_code", "degree",
	"current_year", "admission_year", "graduation_year", "hostel_code", "phone_number", "email",
}

var studentTemplateSample = []string{
	"710023101010", "Jhon Doe", "2005-05-15", "M", "CSE", "B.E.",
	"1", "2023", "2027", "BH01", "9876543210", "jhondoe@example.com",
}

// WriteStudentTemplateCSV writes the bulk import header and one sample row.
func WriteStudentTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{StudentTemplateColumns, studentTemplateSample}); err != nil {
		return fmt.Errorf("failed to write student template: %w", err)
	}
	return nil
}

// ExportFilename names a CSV export after its kind and the current date.
func ExportFilename(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, now.Format("2006-01-02"))
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return helpers.FormatDate(*t)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
