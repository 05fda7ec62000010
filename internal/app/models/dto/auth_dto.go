package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"notblank"`
	Password string `form:"password" json:"password" validate:"required"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword     string `form:"old_password" json:"old_password" validate:"required"`
	NewPassword     string `form:"new_password" json:"new_password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"required"`
}

// WardenRequest creates or edits a warden: the login account plus the hostel profile
type WardenRequest struct {
	Username    string `form:"username" json:"username,omitempty"`
	Password    string `form:"password" json:"password,omitempty"`
	Email       string `form:"email" json:"email" validate:"required,email"`
	FirstName   string `form:"first_name" json:"first_name" validate:"notblank"`
	LastName    string `form:"last_name" json:"last_name"`
	PhoneNumber string `form:"phone_number" json:"phone_number"`
	HostelID    int64  `form:"hostel" json:"hostel,omitempty"`
}

// FullName joins first and last name the way warden profiles store it.
func (r WardenRequest) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// WardenProfileRequest is the hostel-side profile payload of a warden
type WardenProfileRequest struct {
	UserID      int64  `json:"user_id,omitempty"`
	HostelID    *int64 `json:"hostel"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

// ResetPasswordRequest sets a new password for another account
type ResetPasswordRequest struct {
	Password string `form:"password" json:"password" validate:"required"`
}

// DeanProfileRequest represents the signatory profile form
type DeanProfileRequest struct {
	Name        string `form:"name" json:"name" validate:"notblank"`
	Designation string `form:"designation" json:"designation"`
	PhoneNumber string `form:"phone_number" json:"phone_number" validate:"notblank"`
	Email       string `form:"email" json:"email" validate:"omitempty,email"`
}
