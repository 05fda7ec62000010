package views

import (
	"html/template"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// Page is the data every template receives. Data carries the page-specific view model.
type Page struct {
	Title     string
	Active    string
	User      *models.User
	Role      access.Role
	Flash     *session.Flash
	CSRFField template.HTML

	// Inline error state of the page
	Error    string
	Fields   map[string]string
	Cooldown *apperrors.CooldownError

	Data any
}

// NavItem is one link of the role navigation bar
type NavItem struct {
	Key   string
	Label string
	Path  string
}

// SignedIn reports whether the page is rendered for a session.
func (p Page) SignedIn() bool {
	return p.User != nil
}

// RoleTitle is the role label of the header, empty for visitors.
func (p Page) RoleTitle() string {
	if p.Role == nil {
		return ""
	}
	return p.Role.Title()
}

// Nav returns the links of the signed-in role. A forced password change hides them.
func (p Page) Nav() []NavItem {
	if p.Role == nil || (p.User != nil && p.User.MustChangePassword) {
		return nil
	}
	switch p.Role.(type) {
	case access.Student:
		return []NavItem{
			{"dashboard", "Dashboard", "/student"},
			{"apply", "Apply", "/student/apply"},
			{"requests", "My Requests", "/student/requests"},
			{"profile", "Profile", "/student/profile"},
		}
	case access.Warden:
		return []NavItem{
			{"dashboard", "Dashboard", "/warden"},
			{"pending", "Pending", "/warden/pending"},
			{"requests", "All Requests", "/warden/requests"},
			{"audit", "Audit Logs", "/warden/audit-logs"},
		}
	case access.Dean:
		return []NavItem{
			{"dashboard", "Dashboard", "/dean"},
			{"pending", "Pending", "/dean/pending"},
			{"requests", "All Requests", "/dean/requests"},
			{"students", "Students", "/dean/students"},
			{"wardens", "Wardens", "/dean/wardens"},
			{"hostels", "Hostels", "/dean/hostels"},
			{"departments", "Departments", "/dean/departments"},
			{"bank-accounts", "Bank Accounts", "/dean/bank-accounts"},
			{"fees", "Yearly Fees", "/dean/fees"},
			{"academic-year", "Academic Year", "/dean/academic-year"},
			{"settings", "Settings", "/dean/settings"},
			{"audit", "Audit Logs", "/dean/audit-logs"},
			{"profile", "Profile", "/dean/profile"},
		}
	default:
		return nil
	}
}

// HasError reports whether the page shows an inline error.
func (p Page) HasError() bool {
	return p.Error != "" || p.Cooldown != nil
}
