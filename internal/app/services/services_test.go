package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// fakeAPI stands in for the bonafide API in service tests.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	myRequests    []models.BonafideRequest
	myRequestsErr error

	created     *models.BonafideRequest
	createErr   error
	createGate  chan struct{}
	createStart chan struct{}
	createCtx   error
	lastNew     models.NewRequest

	wardenPending []models.BonafideRequest
	deanPending   []models.BonafideRequest
	all           []models.BonafideRequest
	reviewErr     error
	lastDecision  models.ReviewDecision
	lastReviewID  string

	cert           *models.Certificate
	verify         *models.VerificationResult
	lastVerifyCode string

	profile  *models.Student
	students []models.Student
	hostels  []models.Hostel
	year     *models.AcademicYear

	audit   []models.AuditLogEntry
	myAudit []models.AuditLogEntry

	login     *models.LoginResult
	loginErr  error
	logoutErr error
	changeErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) RefreshAccessToken(context.Context, string) (string, error) {
	f.hit("RefreshAccessToken")
	return "refreshed", nil
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (*models.LoginResult, error) {
	f.hit("Login")
	return f.login, f.loginErr
}

func (f *fakeAPI) Logout(context.Context, apiclient.Credentials, string) error {
	f.hit("Logout")
	return f.logoutErr
}

func (f *fakeAPI) ChangePassword(context.Context, apiclient.Credentials, string, string, string) error {
	f.hit("ChangePassword")
	return f.changeErr
}

func (f *fakeAPI) MyRequests(context.Context, apiclient.Credentials) ([]models.BonafideRequest, error) {
	f.hit("MyRequests")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BonafideRequest(nil), f.myRequests...), f.myRequestsErr
}

func (f *fakeAPI) CreateRequest(ctx context.Context, _ apiclient.Credentials, in models.NewRequest) (*models.BonafideRequest, error) {
	f.hit("CreateRequest")
	if f.createStart != nil {
		close(f.createStart)
	}
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCtx = ctx.Err()
	f.lastNew = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *f.created
	return &created, nil
}

func (f *fakeAPI) AllRequests(context.Context, apiclient.Credentials) ([]models.BonafideRequest, error) {
	f.hit("AllRequests")
	return append([]models.BonafideRequest(nil), f.all...), nil
}

func (f *fakeAPI) WardenPending(context.Context, apiclient.Credentials) ([]models.BonafideRequest, error) {
	f.hit("WardenPending")
	return append([]models.BonafideRequest(nil), f.wardenPending...), nil
}

func (f *fakeAPI) DeanPending(context.Context, apiclient.Credentials) ([]models.BonafideRequest, error) {
	f.hit("DeanPending")
	return append([]models.BonafideRequest(nil), f.deanPending...), nil
}

func (f *fakeAPI) WardenReview(_ context.Context, _ apiclient.Credentials, id string, d models.ReviewDecision) error {
	f.hit("WardenReview")
	f.lastReviewID, f.lastDecision = id, d
	return f.reviewErr
}

func (f *fakeAPI) DeanReview(_ context.Context, _ apiclient.Credentials, id string, d models.ReviewDecision) error {
	f.hit("DeanReview")
	f.lastReviewID, f.lastDecision = id, d
	return f.reviewErr
}

func (f *fakeAPI) DownloadCertificate(context.Context, apiclient.Credentials, string) (*models.Certificate, error) {
	f.hit("DownloadCertificate")
	return f.cert, nil
}

func (f *fakeAPI) VerifyCertificate(_ context.Context, code string) (*models.VerificationResult, error) {
	f.hit("VerifyCertificate")
	f.lastVerifyCode = code
	return f.verify, nil
}

func (f *fakeAPI) StudentProfile(context.Context, apiclient.Credentials) (*models.Student, error) {
	f.hit("StudentProfile")
	return f.profile, nil
}

func (f *fakeAPI) ListStudents(context.Context, apiclient.Credentials) ([]models.Student, error) {
	f.hit("ListStudents")
	return f.students, nil
}

func (f *fakeAPI) ListHostels(context.Context, apiclient.Credentials) ([]models.Hostel, error) {
	f.hit("ListHostels")
	return f.hostels, nil
}

func (f *fakeAPI) AcademicYear(context.Context, apiclient.Credentials) (*models.AcademicYear, error) {
	f.hit("AcademicYear")
	return f.year, nil
}

func (f *fakeAPI) AuditLogs(context.Context, apiclient.Credentials) ([]models.AuditLogEntry, error) {
	f.hit("AuditLogs")
	return f.audit, nil
}

func (f *fakeAPI) MyAuditLogs(context.Context, apiclient.Credentials) ([]models.AuditLogEntry, error) {
	f.hit("MyAuditLogs")
	return f.myAudit, nil
}

// staticCreds is a credential source that never refreshes.
type staticCreds struct{}

func (staticCreds) AccessToken() string                     { return "token" }
func (staticCreds) Refresh(context.Context) (string, error) { return "", context.Canceled }
func (staticCreds) Invalidate(context.Context)              {}

func newProvider(api *fakeAPI) *session.Provider {
	return session.NewProvider(session.NewMemoryStore(), api, time.Hour)
}

func startStudent(t *testing.T, p *session.Provider) *session.Session {
	t.Helper()
	s, err := p.Start(context.Background(),
		models.User{ID: 42, Username: "21CS042", Role: models.RoleNameStudent},
		models.TokenPair{Access: "access", Refresh: "refresh"})
	require.NoError(t, err)
	return s
}

func request(id string, status models.RequestStatus, age time.Duration) models.BonafideRequest {
	return models.BonafideRequest{
		RequestID: id,
		Reason:    models.ReasonScholarship,
		Status:    status,
		CreatedAt: time.Now().Add(-age),
		StudentDetails: &models.StudentSummary{
			Name:           "Anitha R",
			RegisterNumber: "21CS042",
		},
	}
}

var nopLogger = zerolog.Nop()
