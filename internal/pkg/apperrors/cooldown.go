package apperrors

// CooldownError is the single normalized form of the API's cooldown rejection.
type CooldownError struct {
	Message          string `json:"message"`
	LastApprovedDate string `json:"last_approved_date"`
	CanReapplyDate   string `json:"can_reapply_date"`
	DaysRemaining    int    `json:"days_remaining"`
}

// Error implements error interface
func (e *CooldownError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrCooldownActive.Error()
}

// Unwrap makes errors.Is(err, ErrCooldownActive) hold.
func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}
