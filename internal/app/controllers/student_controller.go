package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
)

const (
	studentDashboardView = "student/dashboard"
	studentApplyView     = "student/apply"
	studentRequestsView  = "student/requests"
	studentProfileView   = "student/profile"

	studentRequestsPath = "/student/requests"
)

// StudentController serves the student subtree
type StudentController struct {
	eligibility    *services.EligibilityService
	certificates   *services.CertificateService
	dashboard      *services.DashboardService
	pages          *middleware.SessionMiddleware
	maxAttachBytes int64
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(svc *services.Services, pages *middleware.SessionMiddleware, maxAttachBytes int64, logger zerolog.Logger) *StudentController {
	return &StudentController{
		eligibility:    svc.Eligibility,
		certificates:   svc.Certificates,
		dashboard:      svc.Dashboard,
		pages:          pages,
		maxAttachBytes: maxAttachBytes,
		logger:         logger,
	}
}

// StudentDashboardView is the data of the student dashboard
type StudentDashboardView struct {
	Stats *services.StudentStats
	Gate  *services.Gate
}

// ApplyView is the data of the request form
type ApplyView struct {
	Gate          *services.Gate
	Form          dto.CreateRequestForm
	Reasons       []models.ReasonOption
	MaxAttachment string
}

// Dashboard shows the request counts and the open-request banner.
func (ctl *StudentController) Dashboard(c *gin.Context) {
	page := ctl.pages.Page(c, "Dashboard", "dashboard")
	view := &StudentDashboardView{}
	page.Data = view

	stats, err := ctl.dashboard.Student(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentDashboardView, page)
		return
	}
	view.Stats = stats

	gate, err := ctl.eligibility.Check(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentDashboardView, page)
		return
	}
	view.Gate = gate
	c.HTML(http.StatusOK, studentDashboardView, page)
}

// ApplyPage renders the request form, or the open-request notice in its place.
func (ctl *StudentController) ApplyPage(c *gin.Context) {
	page := ctl.pages.Page(c, "Apply for Bonafide Certificate", "apply")
	view := ctl.applyView(dto.CreateRequestForm{Reason: string(models.DefaultReason)})
	page.Data = view

	gate, err := ctl.eligibility.Check(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentApplyView, page)
		return
	}
	view.Gate = gate
	c.HTML(http.StatusOK, studentApplyView, page)
}

// Apply submits a new request.
func (ctl *StudentController) Apply(c *gin.Context) {
	page := ctl.pages.Page(c, "Apply for Bonafide Certificate", "apply")
	view := ctl.applyView(dto.CreateRequestForm{})
	page.Data = view
	sess := middleware.CurrentSession(c)

	attachment, err := readUpload(c, "attachment", ctl.maxAttachBytes)
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentApplyView, page)
		return
	}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.pages.HandlePageError(c, err, studentApplyView, page)
		return
	}

	created, err := ctl.eligibility.Submit(c.Request.Context(), sess, view.Form, attachment)
	if err != nil {
		// Re-check so the page reflects a request that another tab may have opened.
		if gate, gerr := ctl.eligibility.Check(c.Request.Context(), sess); gerr == nil {
			view.Gate = gate
		}
		ctl.pages.HandlePageError(c, err, studentApplyView, page)
		return
	}

	ctl.logger.Debug().Str("requestID", created.RequestID).Msg("Request form accepted")
	succeed(ctl.pages, c, "Bonafide request submitted successfully!", studentRequestsPath)
}

func (ctl *StudentController) applyView(form dto.CreateRequestForm) *ApplyView {
	return &ApplyView{
		Form:          form,
		Reasons:       models.ReasonOptions,
		MaxAttachment: fmt.Sprintf("%dMB", ctl.maxAttachBytes>>20),
	}
}

// Requests lists the student's requests with their status and remarks.
func (ctl *StudentController) Requests(c *gin.Context) {
	page := ctl.pages.Page(c, "My Requests", "requests")

	gate, err := ctl.eligibility.Check(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentRequestsView, page)
		return
	}
	page.Data = gate
	c.HTML(http.StatusOK, studentRequestsView, page)
}

// Download streams the certificate of a dean-approved request.
func (ctl *StudentController) Download(c *gin.Context) {
	cert, err := ctl.certificates.Download(c.Request.Context(), access.Student{}, credentials(ctl.pages, c), c.Param("id"))
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentRequestsPath)
		return
	}
	sendCertificate(c, cert)
}

// Profile shows the student's record as the API knows it.
func (ctl *StudentController) Profile(c *gin.Context) {
	page := ctl.pages.Page(c, "My Profile", "profile")
	profile, err := ctl.dashboard.StudentProfile(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentProfileView, page)
		return
	}
	page.Data = profile
	c.HTML(http.StatusOK, studentProfileView, page)
}

func sendCertificate(c *gin.Context, cert *models.Certificate) {
	contentType := cert.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.Filename))
	c.Data(http.StatusOK, contentType, cert.Content)
}
