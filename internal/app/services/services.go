// Package services holds the portal's page-level operations. Business rules live in the
// bonafide API; services validate input, decide what can be decided locally and keep the
// session's view of the student's open request current.
//
// Services defined in this package:
// - AuthService: login, logout and password change
// - EligibilityService: the request-creation gate
// - ReviewService: warden and dean review queues and transitions
// - CertificateService: certificate download and public verification
// - RecordsService: dean-administered reference records
// - DashboardService: per-role dashboard counters
// - ReportService: request and audit filters and CSV exports
package services

import (
	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// Services bundles every service the controllers use
type Services struct {
	Auth         *AuthService
	Eligibility  *EligibilityService
	Review       *ReviewService
	Certificates *CertificateService
	Records      *RecordsService
	Dashboard    *DashboardService
	Reports      *ReportService
}

// New wires all services to one API client and session provider.
func New(api *apiclient.Client, sessions *session.Provider, maxAttachBytes int64) *Services {
	return &Services{
		Auth:         NewAuthService(api, sessions, logger.Component("auth")),
		Eligibility:  NewEligibilityService(api, sessions, maxAttachBytes, logger.Component("eligibility")),
		Review:       NewReviewService(api, logger.Component("review")),
		Certificates: NewCertificateService(api, logger.Component("certificate")),
		Records:      NewRecordsService(api, logger.Component("records")),
		Dashboard:    NewDashboardService(api, logger.Component("dashboard")),
		Reports:      NewReportService(api, logger.Component("report")),
	}
}
