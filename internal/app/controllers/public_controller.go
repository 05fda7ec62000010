package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
)

const verifyView = "public/verify"

// PublicController serves the pages that need no session
type PublicController struct {
	certificates *services.CertificateService
	pages        *middleware.SessionMiddleware
	logger       zerolog.Logger
}

// NewPublicController creates a new PublicController
func NewPublicController(certificates *services.CertificateService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *PublicController {
	return &PublicController{
		certificates: certificates,
		pages:        pages,
		logger:       logger,
	}
}

// VerifyView is the data of the verification page
type VerifyView struct {
	Code   string
	Result *models.VerificationResult
}

// VerifyPage renders the verification form, looking the code up when one is in the query.
func (ctl *PublicController) VerifyPage(c *gin.Context) {
	code := c.Query("code")
	ctl.verify(c, code, code != "")
}

// VerifyCode looks up the code in the path; QR codes on certificates point here.
func (ctl *PublicController) VerifyCode(c *gin.Context) {
	ctl.verify(c, c.Param("code"), true)
}

// Verify handles the verification form.
func (ctl *PublicController) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.HandlePageError(c, err, verifyView, ctl.pages.Page(c, "Verify Certificate", ""))
		return
	}
	ctl.verify(c, req.Code, true)
}

// verify renders the page; lookup is false for a plain visit to the empty form.
func (ctl *PublicController) verify(c *gin.Context, code string, lookup bool) {
	page := ctl.pages.Page(c, "Verify Certificate", "")
	view := VerifyView{Code: code}
	page.Data = &view
	if !lookup {
		c.HTML(http.StatusOK, verifyView, page)
		return
	}

	result, err := ctl.certificates.Verify(c.Request.Context(), code)
	if err != nil {
		ctl.pages.HandlePageError(c, err, verifyView, page)
		return
	}
	view.Result = result
	c.HTML(http.StatusOK, verifyView, page)
}

// Health reports liveness for load balancers.
func (ctl *PublicController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
