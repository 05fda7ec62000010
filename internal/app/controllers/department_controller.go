package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
)

const (
	departmentsView = "dean/departments"
	departmentsPath = "/dean/departments"
)

// DepartmentController handles department-related operations
type DepartmentController struct {
	records *services.RecordsService
	pages   *middleware.SessionMiddleware
	logger  zerolog.Logger
}

// NewDepartmentController creates a new DepartmentController
func NewDepartmentController(records *services.RecordsService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *DepartmentController {
	return &DepartmentController{
		records: records,
		pages:   pages,
		logger:  logger,
	}
}

// DepartmentsView is the list of departments next to the create or edit form
type DepartmentsView struct {
	Departments []models.Department
	EditID      int64
	Form        dto.DepartmentRequest
}

// Action is the form's submit target.
func (v DepartmentsView) Action() string {
	if v.EditID > 0 {
		return departmentsPath + "/" + strconv.FormatInt(v.EditID, 10)
	}
	return departmentsPath
}

// Departments lists departments. ?edit=<id> fills the form with that department.
func (ctl *DepartmentController) Departments(c *gin.Context) {
	view := &DepartmentsView{Form: dto.DepartmentRequest{CourseDurationYears: 4}}
	if id, err := strconv.ParseInt(c.Query("edit"), 10, 64); err == nil {
		view.EditID = id
	}
	ctl.render(c, view, nil)
}

// SaveDepartment creates a department, or updates the one in the path.
func (ctl *DepartmentController) SaveDepartment(c *gin.Context) {
	view := &DepartmentsView{}
	if c.Param("id") != "" {
		id, err := middleware.ParamID(c, "id")
		if err != nil {
			ctl.pages.RedirectWithError(c, err, departmentsPath)
			return
		}
		view.EditID = id
	}

	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.render(c, view, err)
		return
	}
	if err := ctl.records.SaveDepartment(c.Request.Context(), credentials(ctl.pages, c), view.EditID, view.Form); err != nil {
		ctl.render(c, view, err)
		return
	}

	msg := "Department created successfully"
	if view.EditID > 0 {
		msg = "Department updated successfully"
	}
	succeed(ctl.pages, c, msg, departmentsPath)
}

// DeleteDepartment removes a department.
func (ctl *DepartmentController) DeleteDepartment(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, departmentsPath)
		return
	}
	if err := ctl.records.DeleteDepartment(c.Request.Context(), credentials(ctl.pages, c), id); err != nil {
		ctl.pages.RedirectWithError(c, err, departmentsPath)
		return
	}
	succeed(ctl.pages, c, "Department deleted successfully", departmentsPath)
}

// render shows the list. A nil cause with an EditID prefills the form from the list.
func (ctl *DepartmentController) render(c *gin.Context, view *DepartmentsView, cause error) {
	page := ctl.pages.Page(c, "Departments", "departments")
	page.Data = view

	departments, err := ctl.records.Departments(c.Request.Context(), credentials(ctl.pages, c))
	if err != nil {
		ctl.pages.HandlePageError(c, err, departmentsView, page)
		return
	}
	view.Departments = departments
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, departmentsView, page)
		return
	}

	if view.EditID > 0 {
		found := false
		for _, d := range departments {
			if d.ID == view.EditID {
				view.Form = dto.DepartmentRequest{Code: d.Code, Name: d.Name, CourseDurationYears: d.CourseDurationYears}
				found = true
				break
			}
		}
		if !found {
			view.EditID = 0
		}
	}
	c.HTML(http.StatusOK, departmentsView, page)
}
