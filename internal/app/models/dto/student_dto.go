package dto

// StudentRequest creates or edits a student record
type StudentRequest struct {
	RegisterNumber string `form:"register_number" json:"register_number" validate:"notblank"`
	Name           string `form:"name" json:"name" validate:"notblank"`
	Email          string `form:"email" json:"email" validate:"required,email"`
	Password       string `form:"password" json:"password,omitempty"`
	PhoneNumber    string `form:"phone_number" json:"phone_number,omitempty"`
	DateOfBirth    string `form:"date_of_birth" json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender         string `form:"gender" json:"gender" validate:"required,oneof=M F"`
	Degree         string `form:"degree" json:"degree,omitempty"`
	DepartmentID   int64  `form:"department" json:"department" validate:"required,gt=0"`
	AdmissionYear  int    `form:"admission_year" json:"admission_year" validate:"required,min=2000"`
	HostelID       int64  `form:"hostel" json:"hostel,omitempty"`
}

// AcademicYearRequest sets the academic year baseline
type AcademicYearRequest struct {
	CurrentYear int `form:"current_year" json:"current_year" validate:"academic_year"`
}

// StudentFilter narrows the student directory
type StudentFilter struct {
	Search       string `form:"q"`
	DepartmentID int64  `form:"department"`
	Year         int    `form:"year"`
	HostelID     int64  `form:"hostel"`
}
