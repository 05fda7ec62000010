// Package access maps an authenticated user to the part of the portal they may reach.
//
// Roles form a closed set: Role has an unexported method, so only the types declared in
// this file satisfy it, and every Role must say where its subtree lives and which review
// stage (if any) it owns. Adding a role means adding a type here and implementing those
// methods, which the compiler enforces at every call site that needs them.
package access

import "github.com/aurcc/bonafide-portal/internal/app/models"

// Role is the closed set of portal roles.
type Role interface {
	// Name is the wire value of the role.
	Name() models.RoleName
	// Home is the root path of the role's subtree, or "" when the role has none.
	Home() string
	// Title is the human label used in page headers.
	Title() string
	isRole()
}

// Student submits requests and downloads certificates.
type Student struct{}

// Warden performs the first review stage.
type Warden struct{}

// Dean performs the final review stage and administers reference records.
type Dean struct{}

// Admin exists upstream but has no subtree in the portal.
type Admin struct{}

func (Student) Name() models.RoleName { return models.RoleNameStudent }
func (Student) Home() string           { return "/student" }
func (Student) Title() string          { return "Student" }
func (Student) isRole()                {}

func (Warden) Name() models.RoleName { return models.RoleNameWarden }
func (Warden) Home() string           { return "/warden" }
func (Warden) Title() string          { return "Warden" }
func (Warden) isRole()                {}

func (Dean) Name() models.RoleName { return models.RoleNameDean }
func (Dean) Home() string           { return "/dean" }
func (Dean) Title() string          { return "Dean" }
func (Dean) isRole()                {}

func (Admin) Name() models.RoleName { return models.RoleNameAdmin }
func (Admin) Home() string           { return "" }
func (Admin) Title() string          { return "Administrator" }
func (Admin) isRole()                {}

// ParseRole converts the upstream role string. Unknown values return ok=false.
func ParseRole(name models.RoleName) (Role, bool) {
	switch name {
	case models.RoleNameStudent:
		return Student{}, true
	case models.RoleNameWarden:
		return Warden{}, true
	case models.RoleNameDean:
		return Dean{}, true
	case models.RoleNameAdmin:
		return Admin{}, true
	default:
		return nil, false
	}
}
