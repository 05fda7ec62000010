package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

const (
	wardensView    = "dean/wardens"
	wardenFormView = "dean/warden_form"

	wardensPath = "/dean/wardens"
)

// WardenController lets the dean manage warden accounts and their hostel assignments
type WardenController struct {
	records *services.RecordsService
	pages   *middleware.SessionMiddleware
	logger  zerolog.Logger
}

// NewWardenController creates a new WardenController
func NewWardenController(records *services.RecordsService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *WardenController {
	return &WardenController{
		records: records,
		pages:   pages,
		logger:  logger,
	}
}

// WardensView is the warden list next to the create form
type WardensView struct {
	Wardens []models.WardenProfile
	Hostels []models.Hostel
	Form    dto.WardenRequest
}

// WardenFormView is the data of the edit page
type WardenFormView struct {
	ProfileID int64
	AccountID int64
	Username  string
	Hostels   []models.Hostel
	Form      dto.WardenRequest
}

// Action is the form's submit target.
func (v WardenFormView) Action() string {
	return fmt.Sprintf("%s/%d", wardensPath, v.ProfileID)
}

// accountRef carries the login account behind the profile being edited.
type accountRef struct {
	AccountID int64 `form:"account_id"`
}

// Wardens lists wardens with the create form.
func (ctl *WardenController) Wardens(c *gin.Context) {
	ctl.renderList(c, &WardensView{}, nil)
}

// CreateWarden creates the account and the hostel profile.
func (ctl *WardenController) CreateWarden(c *gin.Context) {
	view := &WardensView{}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderList(c, view, err)
		return
	}
	if err := ctl.records.CreateWarden(c.Request.Context(), credentials(ctl.pages, c), view.Form); err != nil {
		view.Form.Password = ""
		ctl.renderList(c, view, err)
		return
	}
	succeed(ctl.pages, c, fmt.Sprintf("Warden %s created successfully", strings.TrimSpace(view.Form.Username)), wardensPath)
}

// EditWarden renders the edit form of one warden.
func (ctl *WardenController) EditWarden(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	creds := credentials(ctl.pages, c)
	wardens, err := ctl.records.Wardens(c.Request.Context(), creds)
	if err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}

	var profile *models.WardenProfile
	for i := range wardens {
		if wardens[i].ID == id {
			profile = &wardens[i]
			break
		}
	}
	if profile == nil {
		ctl.pages.RedirectWithError(c, apperrors.NewCustomError(apperrors.ErrResourceNotFound, "Warden not found"), wardensPath)
		return
	}
	ctl.renderForm(c, wardenFormFor(profile), nil)
}

// UpdateWarden saves the profile and the account details.
func (ctl *WardenController) UpdateWarden(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	var ref accountRef
	view := &WardenFormView{ProfileID: id}
	if err := middleware.BindForm(c, &ref); err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	view.AccountID = ref.AccountID
	view.Username = c.PostForm("username")

	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderForm(c, view, err)
		return
	}
	if err := ctl.records.UpdateWarden(c.Request.Context(), credentials(ctl.pages, c), id, ref.AccountID, view.Form); err != nil {
		ctl.renderForm(c, view, err)
		return
	}
	succeed(ctl.pages, c, "Warden updated successfully", wardensPath)
}

// ResetPassword sets a new password on the warden's account.
func (ctl *WardenController) ResetPassword(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	back := fmt.Sprintf("%s/%d/edit", wardensPath, id)

	var ref accountRef
	var req dto.ResetPasswordRequest
	if err := middleware.BindForm(c, &ref); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	if err := ctl.records.ResetWardenPassword(c.Request.Context(), credentials(ctl.pages, c), ref.AccountID, req); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	succeed(ctl.pages, c, "Password reset successfully", back)
}

// DeleteWarden removes the warden's hostel profile.
func (ctl *WardenController) DeleteWarden(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	if err := ctl.records.DeleteWarden(c.Request.Context(), credentials(ctl.pages, c), id); err != nil {
		ctl.pages.RedirectWithError(c, err, wardensPath)
		return
	}
	succeed(ctl.pages, c, "Warden deleted successfully", wardensPath)
}

func (ctl *WardenController) renderList(c *gin.Context, view *WardensView, cause error) {
	page := ctl.pages.Page(c, "Wardens", "wardens")
	page.Data = view

	creds := credentials(ctl.pages, c)
	wardens, err := ctl.records.Wardens(c.Request.Context(), creds)
	if err == nil {
		view.Wardens = wardens
		view.Hostels, err = ctl.records.Hostels(c.Request.Context(), creds)
	}
	if err != nil {
		ctl.pages.HandlePageError(c, err, wardensView, page)
		return
	}
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, wardensView, page)
		return
	}
	c.HTML(http.StatusOK, wardensView, page)
}

func (ctl *WardenController) renderForm(c *gin.Context, view *WardenFormView, cause error) {
	page := ctl.pages.Page(c, "Edit Warden", "wardens")
	page.Data = view

	hostels, err := ctl.records.Hostels(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, wardenFormView, page)
		return
	}
	view.Hostels = hostels
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, wardenFormView, page)
		return
	}
	c.HTML(http.StatusOK, wardenFormView, page)
}

// wardenFormFor splits the profile back into the account and profile fields of the form.
func wardenFormFor(p *models.WardenProfile) *WardenFormView {
	view := &WardenFormView{
		ProfileID: p.ID,
		Form: dto.WardenRequest{
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
		},
	}
	if p.Hostel != nil {
		view.Form.HostelID = *p.Hostel
	}
	if p.User != nil {
		view.AccountID = p.User.ID
		view.Username = p.User.Username
		view.Form.FirstName = p.User.FirstName
		view.Form.LastName = p.User.LastName
		if view.Form.Email == "" {
			view.Form.Email = p.User.Email
		}
	}
	if view.Form.FirstName == "" {
		first, last, _ := strings.Cut(p.Name, " ")
		view.Form.FirstName, view.Form.LastName = first, last
	}
	return view
}
