package models

// User is the authenticated identity returned by the API on login and by /auth/me/
type User struct {
	ID                 int64    `json:"id"`                   // Upstream user ID
	Username           string   `json:"username"`             // Register number for students, login name otherwise
	Email              string   `json:"email"`                // Contact email
	FirstName          string   `json:"first_name"`           // Given name
	LastName           string   `json:"last_name"`            // Family name
	Role               RoleName `json:"role"`                 // student, warden, dean or admin
	MustChangePassword bool     `json:"must_change_password"` // Forces the password change page before anything else
}

// DisplayName returns the best human-readable name for the user.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// TokenPair is the access/refresh pair issued by the API
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResult is the body of a successful /auth/login/ call
type LoginResult struct {
	TokenPair
	User User `json:"user"`
}

// WardenAccount is the login account behind a warden profile
type WardenAccount struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// WardenProfile links a warden account to the hostel it supervises
type WardenProfile struct {
	ID          int64          `json:"id"`
	User        *WardenAccount `json:"user,omitempty"`
	Hostel      *int64         `json:"hostel"`
	HostelName  string         `json:"hostel_name"`
	Name        string         `json:"name"`
	PhoneNumber string         `json:"phone_number"`
	Email       string         `json:"email"`
}

// DeanProfile is the signatory information printed on certificates
type DeanProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}
