package models

// Department is an academic department; course duration drives the year of study
type Department struct {
	ID                  int64  `json:"id"`
	Code                string `json:"code"`
	Name                string `json:"name"`
	CourseDurationYears int    `json:"course_duration_years"`
}

// AcademicYear is the baseline the API uses to recalculate every student's current year
type AcademicYear struct {
	CurrentYear     int    `json:"current_year"`
	Display         string `json:"display"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	Message         string `json:"message,omitempty"`
	StudentsUpdated int    `json:"students_updated,omitempty"`
}
