package models

import "time"

// RequestStatus is the position of a bonafide request in the approval pipeline
type RequestStatus string

const (
	StatusPending        RequestStatus = "pending"
	StatusWardenApproved RequestStatus = "warden_approved"
	StatusWardenRejected RequestStatus = "warden_rejected"
	StatusDeanApproved   RequestStatus = "dean_approved"
	StatusDeanRejected   RequestStatus = "dean_rejected"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []RequestStatus{
	StatusPending,
	StatusWardenApproved,
	StatusWardenRejected,
	StatusDeanApproved,
	StatusDeanRejected,
}

// transitions holds the only forward edges of the pipeline.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:        {StatusWardenApproved, StatusWardenRejected},
	StatusWardenApproved: {StatusDeanApproved, StatusDeanRejected},
}

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsOpen reports whether the request still awaits a reviewer.
func (s RequestStatus) IsOpen() bool {
	return s == StatusPending || s == StatusWardenApproved
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	return s.Valid() && !s.IsOpen()
}

// IsRejected reports whether the request ended in a rejection at either stage.
func (s RequestStatus) IsRejected() bool {
	return s == StatusWardenRejected || s == StatusDeanRejected
}

// CanTransitionTo reports whether next is a direct successor of s.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// StudentLabel is the wording shown to the requesting student.
func (s RequestStatus) StudentLabel() string {
	switch s {
	case StatusPending:
		return "Pending with Warden"
	case StatusWardenApproved:
		return "Approved by Warden (Pending Dean)"
	case StatusWardenRejected:
		return "Rejected by Warden"
	case StatusDeanApproved:
		return "Approved by Dean"
	case StatusDeanRejected:
		return "Rejected by Dean"
	default:
		return string(s)
	}
}

// ReviewerLabel is the wording used on warden and dean request tables.
func (s RequestStatus) ReviewerLabel() string {
	switch s {
	case StatusPending:
		return "Pending with Warden"
	case StatusWardenApproved:
		return "Pending with Dean"
	case StatusWardenRejected:
		return "Rejected by Warden"
	case StatusDeanApproved:
		return "Approved"
	case StatusDeanRejected:
		return "Rejected by Dean"
	default:
		return string(s)
	}
}

// BadgeClass is the CSS badge modifier for the status.
func (s RequestStatus) BadgeClass() string {
	switch {
	case s.IsOpen():
		return "badge-pending"
	case s == StatusDeanApproved:
		return "badge-approved"
	case s.IsRejected():
		return "badge-rejected"
	default:
		return ""
	}
}

// Reason is the declared purpose of a bonafide certificate
type Reason string

const (
	ReasonBankLoan      Reason = "bank_loan"
	ReasonScholarship   Reason = "scholarship"
	ReasonPassport      Reason = "passport"
	ReasonVisa          Reason = "visa"
	ReasonIdentityProof Reason = "identity_proof"
	ReasonOther         Reason = "other"
)

// DefaultReason preselected on a fresh request form.
const DefaultReason = ReasonBankLoan

// ReasonOption is one entry of the reason select box
type ReasonOption struct {
	Value Reason
	Label string
}

// ReasonOptions lists the reasons in display order.
var ReasonOptions = []ReasonOption{
	{Value: ReasonBankLoan, Label: "Bank Loan"},
	{Value: ReasonScholarship, Label: "Scholarship"},
	{Value: ReasonPassport, Label: "Passport Application"},
	{Value: ReasonVisa, Label: "Visa Application"},
	{Value: ReasonIdentityProof, Label: "Identity Proof"},
	{Value: ReasonOther, Label: "Other"},
}

// Label returns the display label of the reason.
func (r Reason) Label() string {
	for _, opt := range ReasonOptions {
		if opt.Value == r {
			return opt.Label
		}
	}
	return string(r)
}

// BonafideRequest is a student's request for a hostel bonafide certificate
type BonafideRequest struct {
	RequestID         string          `json:"request_id"`                   // UUID assigned by the API
	Student           int64           `json:"student,omitempty"`            // Requesting student ID
	StudentDetails    *StudentSummary `json:"student_details,omitempty"`    // Nested student info on reviewer listings
	Reason            Reason          `json:"reason"`                       // Declared purpose
	ReasonDisplay     string          `json:"reason_display"`               // Human label computed by the API
	ReasonDescription string          `json:"reason_description"`           // Free text
	Attachment        string          `json:"attachment,omitempty"`         // Supporting document URL
	Status            RequestStatus   `json:"status"`                       // Pipeline position
	WardenName        string          `json:"warden_name,omitempty"`        // Reviewing warden
	WardenRemarks     string          `json:"warden_remarks,omitempty"`     // Remarks left at the warden stage
	DeanRemarks       string          `json:"dean_remarks,omitempty"`       // Remarks left at the dean stage
	CertificateNumber string          `json:"certificate_number,omitempty"` // Set once the dean approves
	CreatedAt         time.Time       `json:"created_at"`                   // Submission time
	WardenApprovedAt  *time.Time      `json:"warden_approved_at,omitempty"` // Warden decision time
	DeanApprovedAt    *time.Time      `json:"dean_approved_at,omitempty"`   // Dean decision time
}

// ShortID returns the first eight characters of the request ID for tables.
func (r BonafideRequest) ShortID() string {
	if len(r.RequestID) <= 8 {
		return r.RequestID
	}
	return r.RequestID[:8]
}

// ReasonLabel prefers the API's display value.
func (r BonafideRequest) ReasonLabel() string {
	if r.ReasonDisplay != "" {
		return r.ReasonDisplay
	}
	return r.Reason.Label()
}

// StudentName is safe to call when the nested student block is absent.
func (r BonafideRequest) StudentName() string {
	if r.StudentDetails == nil {
		return ""
	}
	return r.StudentDetails.Name
}

// RejectionRemarks returns the remarks of whichever stage rejected the request.
func (r BonafideRequest) RejectionRemarks() string {
	if r.Status == StatusDeanRejected && r.DeanRemarks != "" {
		return r.DeanRemarks
	}
	if r.WardenRemarks != "" {
		return r.WardenRemarks
	}
	return r.DeanRemarks
}

// CertificateAvailable reports whether the certificate can be downloaded.
func (r BonafideRequest) CertificateAvailable() bool {
	return r.Status == StatusDeanApproved
}

// NewRequest is the submission payload of the student request form
type NewRequest struct {
	Reason      Reason
	Description string
	Attachment  *Attachment
}

// Attachment is an in-memory supporting document ready for multipart upload
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// ReviewAction is the decision a reviewer submits
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// Valid reports whether a is approve or reject.
func (a ReviewAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// PastTense is used in flash messages ("Request approved successfully").
func (a ReviewAction) PastTense() string {
	return string(a) + "d"
}

// ReviewDecision is the body posted to a review endpoint
type ReviewDecision struct {
	Action  ReviewAction `json:"action"`
	Remarks string       `json:"remarks"`
}

// Certificate is a downloaded PDF, passed through unparsed
type Certificate struct {
	Filename    string
	ContentType string
	Content     []byte
}

// VerificationResult is the public lookup answer for a certificate code
type VerificationResult struct {
	Valid             bool   `json:"valid"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	StudentName       string `json:"student_name,omitempty"`
	RegisterNumber    string `json:"register_number,omitempty"`
	Department        string `json:"department,omitempty"`
	IssuedDate        string `json:"issued_date,omitempty"`
	Status            string `json:"status,omitempty"`
	Error             string `json:"error,omitempty"`
}

// CooldownPeriod is the system-wide wait after an approved request
type CooldownPeriod string

const (
	CooldownDisabled  CooldownPeriod = "disabled"
	CooldownOneMonth  CooldownPeriod = "1_month"
	CooldownThreeMo   CooldownPeriod = "3_months"
	CooldownSixMonths CooldownPeriod = "6_months"
	CooldownOneYear   CooldownPeriod = "1_year"
)

// CooldownOption is one radio choice on the settings page
type CooldownOption struct {
	Value       CooldownPeriod
	Label       string
	Description string
}

// CooldownOptions lists the selectable policies.
var CooldownOptions = []CooldownOption{
	{Value: CooldownDisabled, Label: "Disabled", Description: "No cooldown - students can reapply anytime"},
	{Value: CooldownOneMonth, Label: "1 Month", Description: "Students can reapply after 30 days"},
	{Value: CooldownThreeMo, Label: "3 Months", Description: "Students can reapply after 90 days"},
	{Value: CooldownSixMonths, Label: "6 Months", Description: "Students can reapply after 180 days"},
	{Value: CooldownOneYear, Label: "1 Year", Description: "Students can reapply after 365 days"},
}

// Valid reports whether p is a known policy.
func (p CooldownPeriod) Valid() bool {
	for _, opt := range CooldownOptions {
		if opt.Value == p {
			return true
		}
	}
	return false
}

// BonafideSettings holds the dean-controlled request settings
type BonafideSettings struct {
	CooldownPeriod CooldownPeriod `json:"cooldown_period"`
	UpdatedAt      string         `json:"updated_at,omitempty"`
}
