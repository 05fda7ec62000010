package access

import "github.com/aurcc/bonafide-portal/internal/app/models"

// Paths the access model redirects to.
const (
	LoginPath          = "/login"
	ChangePasswordPath = "/change-password"
	UnauthorizedPath   = "/unauthorized"
)

// Outcome is the result of evaluating a navigation attempt.
type Outcome int

const (
	// Allow lets the navigation proceed.
	Allow Outcome = iota
	// RedirectLogin sends a visitor without a session to the login page.
	RedirectLogin
	// RedirectChangePassword forces the password change before any role subtree.
	RedirectChangePassword
	// RedirectHome sends the user to their own subtree.
	RedirectHome
	// Deny renders the unauthorized page.
	Deny
)

// Decision is an Outcome plus the path to go to when it is a redirect.
type Decision struct {
	Outcome Outcome
	Path    string
}

// Principal is the part of a session the access model reads.
type Principal struct {
	Role               models.RoleName
	MustChangePassword bool
}

// Landing returns where a user goes after login or when opening the site root.
// A nil principal means there is no session.
func Landing(p *Principal) Decision {
	if p == nil {
		return Decision{Outcome: RedirectLogin, Path: LoginPath}
	}
	if p.MustChangePassword {
		return Decision{Outcome: RedirectChangePassword, Path: ChangePasswordPath}
	}
	role, ok := ParseRole(p.Role)
	if !ok || role.Home() == "" {
		return Decision{Outcome: Deny, Path: UnauthorizedPath}
	}
	return Decision{Outcome: RedirectHome, Path: role.Home()}
}

// AuthorizeSubtree evaluates a navigation into the subtree owned by required.
func AuthorizeSubtree(p *Principal, required Role) Decision {
	if p == nil {
		return Decision{Outcome: RedirectLogin, Path: LoginPath}
	}
	if p.MustChangePassword {
		return Decision{Outcome: RedirectChangePassword, Path: ChangePasswordPath}
	}
	role, ok := ParseRole(p.Role)
	if !ok || role.Name() != required.Name() {
		return Decision{Outcome: Deny, Path: UnauthorizedPath}
	}
	return Decision{Outcome: Allow}
}

// AuthorizePasswordChange evaluates a navigation to the password change page.
// It is reachable only while a change is pending; otherwise the user is sent home.
func AuthorizePasswordChange(p *Principal) Decision {
	if p == nil {
		return Decision{Outcome: RedirectLogin, Path: LoginPath}
	}
	if p.MustChangePassword {
		return Decision{Outcome: Allow}
	}
	return Landing(p)
}
