package dto

// HostelRequest represents hostel creation and update data
type HostelRequest struct {
	Code                     string  `form:"code" json:"code" validate:"notblank"`
	Name                     string  `form:"name" json:"name" validate:"notblank"`
	HostelType               string  `form:"hostel_type" json:"hostel_type" validate:"required,oneof=boys girls"`
	Capacity                 int     `form:"capacity" json:"capacity" validate:"required,min=1"`
	MessFeesPerYear          float64 `form:"mess_fees_per_year" json:"mess_fees_per_year" validate:"min=0"`
	EstablishmentFeesPerYear float64 `form:"establishment_fees_per_year" json:"establishment_fees_per_year" validate:"min=0"`
}

// BankAccountRequest represents a hostel bank account form
type BankAccountRequest struct {
	HostelID      int64  `form:"hostel" json:"hostel" validate:"required,gt=0"`
	AccountType   string `form:"account_type" json:"account_type" validate:"required,oneof=establishment maintenance"`
	BankName      string `form:"bank_name" json:"bank_name" validate:"notblank"`
	BranchName    string `form:"branch_name" json:"branch_name" validate:"notblank"`
	AccountNumber string `form:"account_number" json:"account_number" validate:"required,numeric"`
	IFSCCode      string `form:"ifsc_code" json:"ifsc_code" validate:"required,len=11,alphanum"`
	AccountName   string `form:"account_name" json:"account_name" validate:"notblank"`
	IsActive      bool   `form:"is_active" json:"is_active"`
}

// YearlyFeeRequest represents the fee schedule of one year of study
type YearlyFeeRequest struct {
	HostelID         int64   `form:"hostel" json:"hostel" validate:"required,gt=0"`
	Year             int     `form:"year" json:"year" validate:"required,min=1,max=6"`
	EstablishmentFee float64 `form:"establishment_fee" json:"establishment_fee" validate:"min=0"`
	MessFee          float64 `form:"mess_fee" json:"mess_fee" validate:"min=0"`
}

// Total is the display total of both fees.
func (r YearlyFeeRequest) Total() float64 {
	return r.EstablishmentFee + r.MessFee
}
