package services

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
)

// recentLimit is how many requests the student dashboard lists.
const recentLimit = 5

// DashboardAPI is the part of the API client read by the dashboards
type DashboardAPI interface {
	MyRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	StudentProfile(ctx context.Context, creds apiclient.Credentials) (*models.Student, error)
	AllRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	WardenPending(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	DeanPending(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	ListStudents(ctx context.Context, creds apiclient.Credentials) ([]models.Student, error)
	ListHostels(ctx context.Context, creds apiclient.Credentials) ([]models.Hostel, error)
	AcademicYear(ctx context.Context, creds apiclient.Credentials) (*models.AcademicYear, error)
}

// StudentStats summarises a student's own requests
type StudentStats struct {
	Profile  *models.Student
	Total    int
	Open     int
	Approved int
	Rejected int
	Recent   []models.BonafideRequest
}

// WardenStats are the counters on the warden dashboard
type WardenStats struct {
	Pending  int
	Approved int // approved at the warden stage, whatever the dean did next
	Rejected int
}

// DeanStats are the counters on the dean dashboard
type DeanStats struct {
	PendingApproval int
	TotalApproved   int
	TotalRejected   int
	TotalStudents   int
	TotalHostels    int
	AcademicYear    *models.AcademicYear
}

// DashboardService computes the per-role dashboard counters from API listings
type DashboardService struct {
	api    DashboardAPI
	logger zerolog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(api DashboardAPI, logger zerolog.Logger) *DashboardService {
	return &DashboardService{api: api, logger: logger}
}

// Student returns the student's profile and request counters.
func (s *DashboardService) Student(ctx context.Context, creds apiclient.Credentials) (*StudentStats, error) {
	var (
		stats    StudentStats
		requests []models.BonafideRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		requests, err = s.api.MyRequests(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		stats.Profile, err = s.api.StudentProfile(gctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortNewestFirst(requests)
	stats.Total = len(requests)
	for _, r := range requests {
		switch {
		case r.Status.IsOpen():
			stats.Open++
		case r.Status == models.StatusDeanApproved:
			stats.Approved++
		case r.Status.IsRejected():
			stats.Rejected++
		}
	}
	if len(requests) > recentLimit {
		requests = requests[:recentLimit]
	}
	stats.Recent = requests
	return &stats, nil
}

// StudentProfile returns the signed-in student's record.
func (s *DashboardService) StudentProfile(ctx context.Context, creds apiclient.Credentials) (*models.Student, error) {
	return s.api.StudentProfile(ctx, creds)
}

// Warden returns the warden's counters.
func (s *DashboardService) Warden(ctx context.Context, creds apiclient.Credentials) (*WardenStats, error) {
	var pending, all []models.BonafideRequest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pending, err = s.api.WardenPending(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		all, err = s.api.AllRequests(gctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &WardenStats{Pending: countStatus(pending, WardenStage.Precursor)}
	for _, r := range all {
		switch r.Status {
		case models.StatusWardenApproved, models.StatusDeanApproved:
			stats.Approved++
		case models.StatusWardenRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// Dean returns the dean's counters.
func (s *DashboardService) Dean(ctx context.Context, creds apiclient.Credentials) (*DeanStats, error) {
	var (
		stats        DeanStats
		pending, all []models.BonafideRequest
		students     []models.Student
		hostels      []models.Hostel
		academicYear *models.AcademicYear
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pending, err = s.api.DeanPending(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		all, err = s.api.AllRequests(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		students, err = s.api.ListStudents(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		hostels, err = s.api.ListHostels(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		academicYear, err = s.api.AcademicYear(gctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.PendingApproval = countStatus(pending, DeanStage.Precursor)
	stats.TotalApproved = countStatus(all, models.StatusDeanApproved)
	stats.TotalRejected = countStatus(all, models.StatusDeanRejected)
	stats.TotalStudents = len(students)
	stats.TotalHostels = len(hostels)
	stats.AcademicYear = academicYear
	return &stats, nil
}

func countStatus(requests []models.BonafideRequest, status models.RequestStatus) int {
	n := 0
	for _, r := range requests {
		if r.Status == status {
			n++
		}
	}
	return n
}
