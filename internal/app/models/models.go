package models

// RoleName is the raw role string carried by the upstream user payload.
type RoleName string

const (
	RoleNameStudent RoleName = "student"
	RoleNameWarden  RoleName = "warden"
	RoleNameDean    RoleName = "dean"
	RoleNameAdmin   RoleName = "admin"
)

// MaxAttachmentBytes is the largest supporting document accepted with a request (5 MB).
const MaxAttachmentBytes int64 = 5 * 1024 * 1024
