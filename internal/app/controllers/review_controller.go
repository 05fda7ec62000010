package controllers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
)

const (
	pendingView         = "review/pending"
	requestsView        = "review/requests"
	auditView           = "review/audit"
	wardenDashboardView = "review/warden_dashboard"
	deanDashboardView   = "review/dean_dashboard"
)

// ReviewController serves the reviewer pages shared by the warden and dean subtrees.
// Every handler is built for one role; the role decides the stage, the queue and the links.
type ReviewController struct {
	review       *services.ReviewService
	reports      *services.ReportService
	certificates *services.CertificateService
	dashboard    *services.DashboardService
	pages        *middleware.SessionMiddleware
	now          func() time.Time
	logger       zerolog.Logger
}

// NewReviewController creates a new ReviewController
func NewReviewController(svc *services.Services, pages *middleware.SessionMiddleware, logger zerolog.Logger) *ReviewController {
	return &ReviewController{
		review:       svc.Review,
		reports:      svc.Reports,
		certificates: svc.Certificates,
		dashboard:    svc.Dashboard,
		pages:        pages,
		now:          time.Now,
		logger:       logger,
	}
}

// QueueItem is one request awaiting the reviewer, with the actions offered for it
type QueueItem struct {
	Request         models.BonafideRequest
	Actions         []models.ReviewAction
	Action          string
	RemarksOnReject bool
	CSRFField       template.HTML
}

// QueueView is the data of the pending page
type QueueView struct {
	Stage services.Stage
	Items []QueueItem
}

// RequestsView is the data of the all-requests page
type RequestsView struct {
	Filter       dto.RequestFilter
	Table        Table[models.BonafideRequest]
	Statuses     []models.RequestStatus
	Ranges       interface{}
	ExportPath   string
	DownloadBase string
}

// AuditView is the data of the audit log page
type AuditView struct {
	Filter     dto.AuditFilter
	Report     *services.AuditReport
	Actions    []models.AuditActionOption
	Ranges     interface{}
	ExportPath string
}

// WardenDashboard shows the warden's counters.
func (ctl *ReviewController) WardenDashboard(c *gin.Context) {
	page := ctl.pages.Page(c, "Dashboard", "dashboard")
	stats, err := ctl.dashboard.Warden(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, wardenDashboardView, page)
		return
	}
	page.Data = stats
	c.HTML(http.StatusOK, wardenDashboardView, page)
}

// DeanDashboard shows the dean's counters.
func (ctl *ReviewController) DeanDashboard(c *gin.Context) {
	page := ctl.pages.Page(c, "Dashboard", "dashboard")
	stats, err := ctl.dashboard.Dean(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, deanDashboardView, page)
		return
	}
	page.Data = stats
	c.HTML(http.StatusOK, deanDashboardView, page)
}

// Pending lists the requests at the role's review stage.
func (ctl *ReviewController) Pending(role access.Role) gin.HandlerFunc {
	stage, _ := services.StageFor(role)
	return func(c *gin.Context) {
		page := ctl.pages.Page(c, "Pending Requests", "pending")
		queue, err := ctl.review.Queue(c.Request.Context(), stage, credentials(ctl.pages, c))
		if err != nil {
			ctl.pages.HandlePageError(c, err, pendingView, page)
			return
		}

		view := QueueView{Stage: stage, Items: make([]QueueItem, 0, len(queue))}
		for _, r := range queue {
			view.Items = append(view.Items, QueueItem{
				Request:         r,
				Actions:         stage.AllowedActions(r),
				Action:          role.Home() + "/review/" + r.RequestID,
				RemarksOnReject: stage.RemarksOnReject,
				CSRFField:       csrf.TemplateField(c.Request),
			})
		}
		page.Data = view
		c.HTML(http.StatusOK, pendingView, page)
	}
}

// Review applies the reviewer's decision and returns to the queue.
func (ctl *ReviewController) Review(role access.Role) gin.HandlerFunc {
	stage, _ := services.StageFor(role)
	pendingPath := role.Home() + "/pending"
	return func(c *gin.Context) {
		var form dto.ReviewRequest
		if err := middleware.BindForm(c, &form); err != nil {
			ctl.pages.RedirectWithError(c, err, pendingPath)
			return
		}

		updated, err := ctl.review.Review(c.Request.Context(), stage, credentials(ctl.pages, c), c.Param("id"), form)
		if err != nil {
			ctl.pages.RedirectWithError(c, err, pendingPath)
			return
		}

		action := models.ReviewAction(form.Action)
		ctl.logger.Info().
			Str("role", string(role.Name())).
			Str("requestID", updated.RequestID).
			Str("status", string(updated.Status)).
			Msg("Request reviewed")
		succeed(ctl.pages, c, "Request "+action.PastTense()+" successfully", pendingPath)
	}
}

// Requests lists every request visible to the role, filtered and paginated.
func (ctl *ReviewController) Requests(role access.Role) gin.HandlerFunc {
	_, isDean := role.(access.Dean)
	return func(c *gin.Context) {
		page := ctl.pages.Page(c, "All Requests", "requests")
		view := RequestsView{
			Statuses: models.AllStatuses,
			Ranges:   helpers.DateRangeOptions,
		}
		if isDean {
			view.ExportPath = role.Home() + "/requests/export.csv"
			view.DownloadBase = role.Home() + "/requests/"
		}
		page.Data = &view

		if err := middleware.BindForm(c, &view.Filter); err != nil {
			ctl.pages.HandlePageError(c, err, requestsView, page)
			return
		}
		requests, err := ctl.reports.Requests(c.Request.Context(), credentials(ctl.pages, c), view.Filter)
		if err != nil {
			ctl.pages.HandlePageError(c, err, requestsView, page)
			return
		}
		view.Table = paginate(c, requests)
		if view.ExportPath != "" && view.Table.Query != "" {
			view.ExportPath += "?" + view.Table.Query
		}
		c.HTML(http.StatusOK, requestsView, page)
	}
}

// ExportRequests writes the filtered requests as CSV.
func (ctl *ReviewController) ExportRequests(role access.Role) gin.HandlerFunc {
	requestsPath := role.Home() + "/requests"
	return func(c *gin.Context) {
		var filter dto.RequestFilter
		if err := middleware.BindForm(c, &filter); err != nil {
			ctl.pages.RedirectWithError(c, err, requestsPath)
			return
		}
		requests, err := ctl.reports.Requests(c.Request.Context(), credentials(ctl.pages, c), filter)
		if err != nil {
			ctl.pages.RedirectWithError(c, err, requestsPath)
			return
		}

		startCSV(c, services.ExportFilename("bonafide_requests", ctl.now()))
		if err := services.WriteRequestsCSV(c.Writer, requests); err != nil {
			ctl.logger.Error().Err(err).Msg("Failed to write requests export")
		}
	}
}

// Download streams the certificate of a dean-approved request.
func (ctl *ReviewController) Download(role access.Role) gin.HandlerFunc {
	requestsPath := role.Home() + "/requests"
	return func(c *gin.Context) {
		cert, err := ctl.certificates.Download(c.Request.Context(), role, credentials(ctl.pages, c), c.Param("id"))
		if err != nil {
			ctl.pages.RedirectWithError(c, err, requestsPath)
			return
		}
		sendCertificate(c, cert)
	}
}

// Audit lists the audit trail visible to the role.
func (ctl *ReviewController) Audit(role access.Role) gin.HandlerFunc {
	_, isDean := role.(access.Dean)
	return func(c *gin.Context) {
		page := ctl.pages.Page(c, "Audit Logs", "audit")
		view := AuditView{Actions: models.AuditActions, Ranges: helpers.DateRangeOptions}
		page.Data = &view

		if err := middleware.BindForm(c, &view.Filter); err != nil {
			ctl.pages.HandlePageError(c, err, auditView, page)
			return
		}
		report, err := ctl.reports.Audit(c.Request.Context(), role, credentials(ctl.pages, c), view.Filter)
		if err != nil {
			ctl.pages.HandlePageError(c, err, auditView, page)
			return
		}
		view.Report = report
		if isDean {
			view.ExportPath = role.Home() + "/audit-logs/export.csv"
			if q := c.Request.URL.RawQuery; q != "" {
				view.ExportPath += "?" + q
			}
		}
		c.HTML(http.StatusOK, auditView, page)
	}
}

// ExportAudit writes the filtered audit entries as CSV.
func (ctl *ReviewController) ExportAudit(role access.Role) gin.HandlerFunc {
	auditPath := role.Home() + "/audit-logs"
	return func(c *gin.Context) {
		var filter dto.AuditFilter
		if err := middleware.BindForm(c, &filter); err != nil {
			ctl.pages.RedirectWithError(c, err, auditPath)
			return
		}
		report, err := ctl.reports.Audit(c.Request.Context(), role, credentials(ctl.pages, c), filter)
		if err != nil {
			ctl.pages.RedirectWithError(c, err, auditPath)
			return
		}

		startCSV(c, services.ExportFilename("audit_logs", ctl.now()))
		if err := services.WriteAuditCSV(c.Writer, report.Entries); err != nil {
			ctl.logger.Error().Err(err).Msg("Failed to write audit export")
		}
	}
}

func startCSV(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Status(http.StatusOK)
}
