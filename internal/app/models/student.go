package models

// Student is a student record as listed and edited by the dean
type Student struct {
	ID             int64  `json:"id"`
	User           *int64 `json:"user,omitempty"`
	RegisterNumber string `json:"register_number"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	DateOfBirth    string `json:"date_of_birth"` // YYYY-MM-DD
	Gender         string `json:"gender"`        // M or F
	Department     *int64 `json:"department"`
	DepartmentName string `json:"department_name"`
	DepartmentCode string `json:"department_code"`
	Degree         string `json:"degree"`
	AdmissionYear  int    `json:"admission_year"`
	GraduationYear int    `json:"graduation_year"`
	CurrentYear    int    `json:"current_year"` // Computed by the API from the academic year baseline
	YearDisplay    string `json:"year_display"`
	Hostel         *int64 `json:"hostel"`
	HostelName     string `json:"hostel_name"`
}

// GenderLabel expands the single-letter gender code.
func (s Student) GenderLabel() string {
	switch s.Gender {
	case "M":
		return "Male"
	case "F":
		return "Female"
	default:
		return s.Gender
	}
}

// StudentSummary is the nested student block attached to a bonafide request
type StudentSummary struct {
	Name           string `json:"name"`
	RegisterNumber string `json:"register_number"`
	DepartmentName string `json:"department_name"`
	HostelName     string `json:"hostel_name"`
	CurrentYear    int    `json:"current_year"`
}

// BulkUploadResult summarises a spreadsheet import of students
type BulkUploadResult struct {
	Message string        `json:"message"`
	Created []interface{} `json:"created"`
	Errors  []string      `json:"errors"`
	Details []string      `json:"details,omitempty"`
}

// CreatedCount returns how many students the import created.
func (r BulkUploadResult) CreatedCount() int {
	return len(r.Created)
}
