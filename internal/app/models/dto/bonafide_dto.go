package dto

// CreateRequestForm is the student's request form; the attachment is read separately
type CreateRequestForm struct {
	Reason            string `form:"reason" validate:"required,reason"`
	ReasonDescription string `form:"reason_description" validate:"notblank"`
}

// ReviewRequest is the body of a warden or dean review
type ReviewRequest struct {
	Action  string `form:"action" json:"action" validate:"required,review_action"`
	Remarks string `form:"remarks" json:"remarks"`
}

// SettingsRequest changes the cooldown policy
type SettingsRequest struct {
	CooldownPeriod string `form:"cooldown_period" json:"cooldown_period" validate:"required,cooldown"`
}

// VerifyRequest is the public verification form
type VerifyRequest struct {
	Code string `form:"code" validate:"notblank"`
}

// RequestFilter narrows the reviewer request tables
type RequestFilter struct {
	Status    string `form:"status"`
	DateRange string `form:"range"`
	From      string `form:"from"`
	To        string `form:"to"`
	Search    string `form:"q"`
}

// AuditFilter narrows the audit log table
type AuditFilter struct {
	Action    string `form:"action"`
	DateRange string `form:"range"`
	From      string `form:"from"`
	To        string `form:"to"`
}
