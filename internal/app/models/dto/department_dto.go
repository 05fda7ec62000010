package dto

// DepartmentRequest represents department creation and update data
type DepartmentRequest struct {
	Code                string `form:"code" json:"code" validate:"notblank"`
	Name                string `form:"name" json:"name" validate:"notblank"`
	CourseDurationYears int    `form:"course_duration_years" json:"course_duration_years" validate:"required,min=1,max=6"`
}
