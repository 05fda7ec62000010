package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/pkg/validation"
)

const (
	settingsView     = "dean/settings"
	academicYearView = "dean/academic_year"
	deanProfileView  = "dean/profile"
)

// DeanController serves the dean's settings pages
type DeanController struct {
	records *services.RecordsService
	pages   *middleware.SessionMiddleware
	logger  zerolog.Logger
}

// NewDeanController creates a new DeanController
func NewDeanController(records *services.RecordsService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *DeanController {
	return &DeanController{
		records: records,
		pages:   pages,
		logger:  logger,
	}
}

// SettingsView is the data of the cooldown settings page
type SettingsView struct {
	Settings *models.BonafideSettings
	Options  []models.CooldownOption
	Selected string
}

// AcademicYearView is the data of the academic year page
type AcademicYearView struct {
	Year    *models.AcademicYear
	Form    dto.AcademicYearRequest
	MinYear int
	MaxYear int
}

// Display previews the academic year label for the form value.
func (v AcademicYearView) Display() string {
	if v.Form.CurrentYear == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", v.Form.CurrentYear, v.Form.CurrentYear+1)
}

// Settings renders the cooldown policy form.
func (ctl *DeanController) Settings(c *gin.Context) {
	page := ctl.pages.Page(c, "Bonafide Settings", "settings")
	view := &SettingsView{Options: models.CooldownOptions}
	page.Data = view

	settings, err := ctl.records.Settings(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, settingsView, page)
		return
	}
	view.Settings = settings
	view.Selected = string(settings.CooldownPeriod)
	c.HTML(http.StatusOK, settingsView, page)
}

// UpdateSettings saves the cooldown policy.
func (ctl *DeanController) UpdateSettings(c *gin.Context) {
	page := ctl.pages.Page(c, "Bonafide Settings", "settings")
	view := &SettingsView{Options: models.CooldownOptions}
	page.Data = view

	var req dto.SettingsRequest
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.HandlePageError(c, err, settingsView, page)
		return
	}
	view.Selected = req.CooldownPeriod

	if _, err := ctl.records.UpdateSettings(c.Request.Context(), credentials(ctl.pages, c), req); err != nil {
		ctl.pages.HandlePageError(c, err, settingsView, page)
		return
	}
	succeed(ctl.pages, c, "Cooldown period updated successfully", "/dean/settings")
}

func (ctl *DeanController) academicYearView() *AcademicYearView {
	return &AcademicYearView{
		MinYear: validation.MinAcademicYear,
		MaxYear: time.Now().Year() + validation.MaxAcademicYearAhead,
	}
}

// AcademicYear renders the academic year baseline form.
func (ctl *DeanController) AcademicYear(c *gin.Context) {
	page := ctl.pages.Page(c, "Academic Year", "academic-year")
	view := ctl.academicYearView()
	page.Data = view

	year, err := ctl.records.AcademicYear(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, academicYearView, page)
		return
	}
	view.Year = year
	view.Form.CurrentYear = year.CurrentYear
	c.HTML(http.StatusOK, academicYearView, page)
}

// UpdateAcademicYear moves the baseline and reports how many students were recalculated.
func (ctl *DeanController) UpdateAcademicYear(c *gin.Context) {
	page := ctl.pages.Page(c, "Academic Year", "academic-year")
	view := ctl.academicYearView()
	page.Data = view

	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.pages.HandlePageError(c, err, academicYearView, page)
		return
	}
	year, err := ctl.records.UpdateAcademicYear(c.Request.Context(), credentials(ctl.pages, c), view.Form)
	if err != nil {
		ctl.pages.HandlePageError(c, err, academicYearView, page)
		return
	}

	msg := year.Message
	if msg == "" {
		msg = fmt.Sprintf("Academic year updated to %d. %d students updated.", view.Form.CurrentYear, year.StudentsUpdated)
	}
	succeed(ctl.pages, c, msg, "/dean/academic-year")
}

// Profile renders the signatory profile form.
func (ctl *DeanController) Profile(c *gin.Context) {
	page := ctl.pages.Page(c, "Dean Profile", "profile")
	form := &dto.DeanProfileRequest{}
	page.Data = form

	profile, err := ctl.records.DeanProfile(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, deanProfileView, page)
		return
	}
	*form = dto.DeanProfileRequest{
		Name:        profile.Name,
		Designation: profile.Designation,
		PhoneNumber: profile.PhoneNumber,
		Email:       profile.Email,
	}
	c.HTML(http.StatusOK, deanProfileView, page)
}

// UpdateProfile saves the signatory profile.
func (ctl *DeanController) UpdateProfile(c *gin.Context) {
	page := ctl.pages.Page(c, "Dean Profile", "profile")
	form := &dto.DeanProfileRequest{}
	page.Data = form

	if err := middleware.BindForm(c, form); err != nil {
		ctl.pages.HandlePageError(c, err, deanProfileView, page)
		return
	}
	if _, err := ctl.records.UpdateDeanProfile(c.Request.Context(), credentials(ctl.pages, c), *form); err != nil {
		ctl.pages.HandlePageError(c, err, deanProfileView, page)
		return
	}
	succeed(ctl.pages, c, "Profile updated successfully", "/dean/profile")
}
