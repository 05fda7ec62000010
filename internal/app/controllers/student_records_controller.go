package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/session"
)

const (
	studentsView    = "dean/students"
	studentFormView = "dean/student_form"
	bulkUploadView  = "dean/bulk_upload"

	studentsPath = "/dean/students"
)

// StudentRecordsController serves the dean's student directory
type StudentRecordsController struct {
	records        *services.RecordsService
	pages          *middleware.SessionMiddleware
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewStudentRecordsController creates a new StudentRecordsController
func NewStudentRecordsController(records *services.RecordsService, pages *middleware.SessionMiddleware, maxUploadBytes int64, logger zerolog.Logger) *StudentRecordsController {
	return &StudentRecordsController{
		records:        records,
		pages:          pages,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Lookups are the select options shared by the student pages
type Lookups struct {
	Departments []models.Department
	Hostels     []models.Hostel
}

// StudentsView is the data of the student directory
type StudentsView struct {
	Lookups
	Filter dto.StudentFilter
	Table  Table[models.Student]
	Total  int
	ByYear [services.StudyYears]int
}

// YearCount is one counter of the directory header
type YearCount struct {
	Label string
	Count int
}

// YearCounts labels the per-year counts.
func (v StudentsView) YearCounts() []YearCount {
	suffix := [services.StudyYears]string{"st", "nd", "rd", "th"}
	out := make([]YearCount, 0, services.StudyYears)
	for i, n := range v.ByYear {
		out = append(out, YearCount{Label: strconv.Itoa(i+1) + suffix[i] + " Year", Count: n})
	}
	return out
}

// StudentFormView is the data of the create and edit forms
type StudentFormView struct {
	Lookups
	ID   int64
	Form dto.StudentRequest
}

// Editing reports whether the form edits an existing student.
func (v StudentFormView) Editing() bool { return v.ID > 0 }

// Action is the form's submit target.
func (v StudentFormView) Action() string {
	if v.ID > 0 {
		return fmt.Sprintf("%s/%d", studentsPath, v.ID)
	}
	return studentsPath
}

// BulkUploadView is the data of the spreadsheet import page
type BulkUploadView struct {
	Result    *models.BulkUploadResult
	Columns   []string
	MaxUpload string
}

func (ctl *StudentRecordsController) lookups(c *gin.Context) (Lookups, error) {
	var l Lookups
	creds := credentials(ctl.pages, c)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		l.Departments, err = ctl.records.Departments(gctx, creds)
		return err
	})
	g.Go(func() error {
		var err error
		l.Hostels, err = ctl.records.Hostels(gctx, creds)
		return err
	})
	return l, g.Wait()
}

// Students lists students with search, department, year and hostel filters.
func (ctl *StudentRecordsController) Students(c *gin.Context) {
	page := ctl.pages.Page(c, "Students", "students")
	view := &StudentsView{}
	page.Data = view

	if err := middleware.BindForm(c, &view.Filter); err != nil {
		ctl.pages.HandlePageError(c, err, studentsView, page)
		return
	}
	lookups, err := ctl.lookups(c)
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentsView, page)
		return
	}
	view.Lookups = lookups

	dir, err := ctl.records.Students(c.Request.Context(), credentials(ctl.pages, c), view.Filter)
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentsView, page)
		return
	}
	view.Total = dir.Total
	view.ByYear = dir.ByYear
	view.Table = paginate(c, dir.Students)
	c.HTML(http.StatusOK, studentsView, page)
}

// NewStudent renders the empty student form.
func (ctl *StudentRecordsController) NewStudent(c *gin.Context) {
	ctl.renderForm(c, &StudentFormView{}, http.StatusOK, nil)
}

// CreateStudent adds a student.
func (ctl *StudentRecordsController) CreateStudent(c *gin.Context) {
	view := &StudentFormView{}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderForm(c, view, http.StatusBadRequest, err)
		return
	}
	st, err := ctl.records.CreateStudent(c.Request.Context(), credentials(ctl.pages, c), view.Form)
	if err != nil {
		ctl.renderForm(c, view, http.StatusBadRequest, err)
		return
	}
	succeed(ctl.pages, c, fmt.Sprintf("Student %s created successfully", st.RegisterNumber), studentsPath)
}

// EditStudent renders the form filled with the student's record.
func (ctl *StudentRecordsController) EditStudent(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	st, err := ctl.records.Student(c.Request.Context(), credentials(ctl.pages, c), id)
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	ctl.renderForm(c, &StudentFormView{ID: id, Form: studentForm(st)}, http.StatusOK, nil)
}

// UpdateStudent saves the edit form. An empty password keeps the current one.
func (ctl *StudentRecordsController) UpdateStudent(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	view := &StudentFormView{ID: id}
	if err := middleware.BindForm(c, &view.Form); err != nil {
		ctl.renderForm(c, view, http.StatusBadRequest, err)
		return
	}
	if err := ctl.records.UpdateStudent(c.Request.Context(), credentials(ctl.pages, c), id, view.Form); err != nil {
		ctl.renderForm(c, view, http.StatusBadRequest, err)
		return
	}
	succeed(ctl.pages, c, "Student updated successfully", studentsPath)
}

// ResetPassword sets a new password for the student.
func (ctl *StudentRecordsController) ResetPassword(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	back := fmt.Sprintf("%s/%d/edit", studentsPath, id)

	var req dto.ResetPasswordRequest
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	if err := ctl.records.ResetStudentPassword(c.Request.Context(), credentials(ctl.pages, c), id, req); err != nil {
		ctl.pages.RedirectWithError(c, err, back)
		return
	}
	succeed(ctl.pages, c, "Password reset successfully", back)
}

// DeleteStudent removes the student.
func (ctl *StudentRecordsController) DeleteStudent(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	if err := ctl.records.DeleteStudent(c.Request.Context(), credentials(ctl.pages, c), id); err != nil {
		ctl.pages.RedirectWithError(c, err, studentsPath)
		return
	}
	succeed(ctl.pages, c, "Student deleted successfully", studentsPath)
}

// BulkUploadPage renders the spreadsheet import form.
func (ctl *StudentRecordsController) BulkUploadPage(c *gin.Context) {
	page := ctl.pages.Page(c, "Bulk Upload Students", "students")
	page.Data = ctl.bulkView()
	c.HTML(http.StatusOK, bulkUploadView, page)
}

// BulkUpload imports the uploaded spreadsheet and shows the per-row outcome.
func (ctl *StudentRecordsController) BulkUpload(c *gin.Context) {
	page := ctl.pages.Page(c, "Bulk Upload Students", "students")
	view := ctl.bulkView()
	page.Data = view

	file, err := readUpload(c, "file", ctl.maxUploadBytes)
	if err != nil {
		ctl.pages.HandlePageError(c, err, bulkUploadView, page)
		return
	}
	res, err := ctl.records.BulkUpload(c.Request.Context(), credentials(ctl.pages, c), file)
	if err != nil {
		ctl.pages.HandlePageError(c, err, bulkUploadView, page)
		return
	}
	view.Result = res

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("%d students created", res.CreatedCount())
	}
	kind := session.FlashSuccess
	if len(res.Errors) > 0 {
		kind = session.FlashInfo
	}
	// Rendered in place, so the message skips the session.
	page.Flash = &session.Flash{Kind: kind, Message: msg}
	c.HTML(http.StatusOK, bulkUploadView, page)
}

// UploadTemplate downloads an example spreadsheet for the bulk import.
func (ctl *StudentRecordsController) UploadTemplate(c *gin.Context) {
	startCSV(c, "student_upload_template.csv")
	if err := services.WriteStudentTemplateCSV(c.Writer); err != nil {
		ctl.logger.Error().Err(err).Msg("Failed to write upload template")
	}
}

func (ctl *StudentRecordsController) bulkView() *BulkUploadView {
	return &BulkUploadView{Columns: services.StudentTemplateColumns, MaxUpload: fmt.Sprintf("%dMB", ctl.maxUploadBytes>>20)}
}

func (ctl *StudentRecordsController) renderForm(c *gin.Context, view *StudentFormView, status int, cause error) {
	title := "Add Student"
	if view.Editing() {
		title = "Edit Student"
	}
	page := ctl.pages.Page(c, title, "students")
	page.Data = view

	lookups, err := ctl.lookups(c)
	if err != nil {
		ctl.pages.HandlePageError(c, err, studentFormView, page)
		return
	}
	view.Lookups = lookups
	if cause != nil {
		ctl.pages.HandlePageError(c, cause, studentFormView, page)
		return
	}
	c.HTML(status, studentFormView, page)
}

func studentForm(st *models.Student) dto.StudentRequest {
	form := dto.StudentRequest{
		RegisterNumber: st.RegisterNumber,
		Name:           st.Name,
		Email:          st.Email,
		PhoneNumber:    st.PhoneNumber,
		DateOfBirth:    st.DateOfBirth,
		Gender:         st.Gender,
		Degree:         st.Degree,
		AdmissionYear:  st.AdmissionYear,
	}
	if st.Department != nil {
		form.DepartmentID = *st.Department
	}
	if st.Hostel != nil {
		form.HostelID = *st.Hostel
	}
	return form
}
