package models

// Hostel is a residence managed by a warden
type Hostel struct {
	ID                       int64   `json:"id"`
	Code                     string  `json:"code"`
	Name                     string  `json:"name"`
	HostelType               string  `json:"hostel_type"` // boys or girls
	Capacity                 int     `json:"capacity"`
	CurrentOccupancy         int     `json:"current_occupancy"`
	AvailableCapacity        int     `json:"available_capacity"`
	MessFeesPerYear          float64 `json:"mess_fees_per_year"`
	EstablishmentFeesPerYear float64 `json:"establishment_fees_per_year"`
}

// BankAccount is a hostel account printed on fee-related certificates
type BankAccount struct {
	ID            int64  `json:"id"`
	Hostel        int64  `json:"hostel"`
	HostelName    string `json:"hostel_name,omitempty"`
	AccountType   string `json:"account_type"` // establishment or maintenance
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	AccountName   string `json:"account_name"`
	IsActive      bool   `json:"is_active"`
}

// MaskedNumber shows only the last four digits of the account number.
func (b BankAccount) MaskedNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	masked := make([]byte, 0, n)
	for i := 0; i < n-4; i++ {
		masked = append(masked, '*')
	}
	return string(masked) + b.AccountNumber[n-4:]
}

// YearlyFee is the fee schedule of a hostel for one year of study
type YearlyFee struct {
	ID               int64   `json:"id"`
	Hostel           int64   `json:"hostel"`
	HostelName       string  `json:"hostel_name,omitempty"`
	Year             int     `json:"year"`
	EstablishmentFee float64 `json:"establishment_fee"`
	MessFee          float64 `json:"mess_fee"`
	TotalFee         float64 `json:"total_fee,omitempty"`
}

// Total prefers the API's total and falls back to the sum of both fees.
func (f YearlyFee) Total() float64 {
	if f.TotalFee != 0 {
		return f.TotalFee
	}
	return f.EstablishmentFee + f.MessFee
}

// AuditLogEntry is one record of the API's audit trail
type AuditLogEntry struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	UserRole      string `json:"user_role"`
	Action        string `json:"action"`
	ActionDisplay string `json:"action_display"`
	Description   string `json:"description"`
	IPAddress     string `json:"ip_address"`
	Timestamp     string `json:"timestamp"`
}

// AuditActionOption is one entry of the audit log action filter
type AuditActionOption struct {
	Value string
	Label string
}

// AuditActions lists the actions the API records.
var AuditActions = []AuditActionOption{
	{"LOGIN", "Login"},
	{"LOGOUT", "Logout"},
	{"PASSWORD_CHANGE", "Password Change"},
	{"CREATE_USER", "Create User"},
	{"CREATE_BONAFIDE_REQUEST", "Create Bonafide Request"},
	{"WARDEN_APPROVE", "Warden Approve"},
	{"WARDEN_REJECT", "Warden Reject"},
	{"DEAN_APPROVE", "Dean Approve"},
	{"DEAN_REJECT", "Dean Reject"},
	{"DOWNLOAD_BONAFIDE", "Download Bonafide"},
	{"BULK_STUDENT_UPLOAD", "Bulk Student Upload"},
}
