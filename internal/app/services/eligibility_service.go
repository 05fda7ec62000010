package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/validation"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// MarkerGrace is how long a submission marker survives without its request showing up in
// the student's history.
const MarkerGrace = 10 * time.Minute

const openRequestMessage = "You already have a pending request. Please wait for it to be processed."

// RequestAPI is the part of the API client used by the student request flow
type RequestAPI interface {
	MyRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	CreateRequest(ctx context.Context, creds apiclient.Credentials, in models.NewRequest) (*models.BonafideRequest, error)
}

// Gate is the eligibility state of the request form for one page render
type Gate struct {
	// Requests is the student's history, newest first.
	Requests []models.BonafideRequest
	// Open is the request that blocks a new submission, when it is known from history.
	Open *models.BonafideRequest
	// Marker is the session's record of a just-submitted request.
	Marker *session.OpenRequestMarker
}

// CanSubmit reports whether the creation form is enabled.
func (g *Gate) CanSubmit() bool {
	return g.Open == nil && g.Marker == nil
}

// OpenStatus is the status shown in place of the form when it is disabled.
func (g *Gate) OpenStatus() models.RequestStatus {
	switch {
	case g.Open != nil:
		return g.Open.Status
	case g.Marker != nil:
		return g.Marker.Status
	default:
		return ""
	}
}

// OpenRequestID identifies the blocking request.
func (g *Gate) OpenRequestID() string {
	switch {
	case g.Open != nil:
		return g.Open.RequestID
	case g.Marker != nil:
		return g.Marker.RequestID
	default:
		return ""
	}
}

// EligibilityService decides whether a student may create a new request
type EligibilityService struct {
	api            RequestAPI
	sessions       *session.Provider
	maxAttachBytes int64
	now            func() time.Time
	logger         zerolog.Logger

	// submitting holds the IDs of sessions with a submission in flight.
	submitting sync.Map
}

// NewEligibilityService creates a new EligibilityService
func NewEligibilityService(api RequestAPI, sessions *session.Provider, maxAttachBytes int64, logger zerolog.Logger) *EligibilityService {
	if maxAttachBytes <= 0 {
		maxAttachBytes = models.MaxAttachmentBytes
	}
	return &EligibilityService{
		api:            api,
		sessions:       sessions,
		maxAttachBytes: maxAttachBytes,
		now:            time.Now,
		logger:         logger,
	}
}

// Check fetches the student's history and reconciles the session marker with it.
//
// A request in pending or warden_approved blocks the form. The marker set on submission keeps
// the form disabled until the new request appears in history; it is dropped once that request
// is terminal, or after MarkerGrace if it never appears. If ctx is cancelled while the history
// is in flight the result is discarded and the session is left untouched.
func (s *EligibilityService) Check(ctx context.Context, sess *session.Session) (*Gate, error) {
	requests, err := s.api.MyRequests(ctx, s.sessions.Credentials(sess))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortNewestFirst(requests)
	gate := &Gate{Requests: requests}
	for i := range requests {
		if requests[i].Status.IsOpen() {
			gate.Open = &requests[i]
			break
		}
	}

	marker := sess.OpenRequest
	switch {
	case gate.Open != nil:
		if marker == nil || marker.RequestID != gate.Open.RequestID || marker.Status != gate.Open.Status {
			s.syncMarker(ctx, sess, func() (*session.Session, error) {
				return s.sessions.MarkOpenRequest(ctx, sess.ID, *gate.Open)
			})
		}
	case marker != nil:
		found := findRequest(requests, marker.RequestID)
		if found != nil || s.now().Sub(marker.SetAt) > MarkerGrace {
			s.syncMarker(ctx, sess, func() (*session.Session, error) {
				return s.sessions.ClearOpenRequest(ctx, sess.ID)
			})
		}
	}
	gate.Marker = sess.OpenRequest
	if gate.Open != nil {
		gate.Marker = nil
	}
	return gate, nil
}

func (s *EligibilityService) syncMarker(ctx context.Context, sess *session.Session, apply func() (*session.Session, error)) {
	updated, err := apply()
	if err != nil {
		s.logger.Warn().Err(err).Str("username", sess.User.Username).Msg("Failed to update open request marker")
		return
	}
	sess.OpenRequest = updated.OpenRequest
}

// Submit creates a request. Everything that can be decided locally (open request, missing
// fields, oversized attachment) is decided before the API is called.
//
// The API call is detached from ctx: once sent, the write completes and the session marker is
// set even if the browser has gone away.
func (s *EligibilityService) Submit(ctx context.Context, sess *session.Session, form dto.CreateRequestForm, attachment *models.Attachment) (*models.BonafideRequest, error) {
	if sess.HasOpenRequest() {
		return nil, apperrors.NewCustomError(apperrors.ErrOpenRequestExists, openRequestMessage)
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}
	if attachment != nil && attachment.Size > s.maxAttachBytes {
		msg := fmt.Sprintf("File size should not exceed %dMB", s.maxAttachBytes/(1024*1024))
		return nil, apperrors.NewCustomError(apperrors.ErrAttachmentTooLarge, msg).
			WithFields(map[string]string{"attachment": msg})
	}

	if _, busy := s.submitting.LoadOrStore(sess.ID, struct{}{}); busy {
		return nil, apperrors.NewCustomError(apperrors.ErrOpenRequestExists, openRequestMessage)
	}
	defer s.submitting.Delete(sess.ID)

	writeCtx := context.WithoutCancel(ctx)
	created, err := s.api.CreateRequest(writeCtx, s.sessions.Credentials(sess), models.NewRequest{
		Reason:      models.Reason(form.Reason),
		Description: form.ReasonDescription,
		Attachment:  attachment,
	})
	if err != nil {
		var cooldown *apperrors.CooldownError
		if errors.As(err, &cooldown) {
			s.logger.Info().
				Str("username", sess.User.Username).
				Int("daysRemaining", cooldown.DaysRemaining).
				Msg("Request blocked by cooldown")
		}
		return nil, err
	}
	if created.Status == "" {
		created.Status = models.StatusPending
	}

	updated, err := s.sessions.MarkOpenRequest(writeCtx, sess.ID, *created)
	if err != nil {
		s.logger.Error().Err(err).Str("requestID", created.RequestID).Msg("Failed to record open request in session")
		sess.OpenRequest = &session.OpenRequestMarker{RequestID: created.RequestID, Status: created.Status, SetAt: s.now()}
	} else {
		sess.OpenRequest = updated.OpenRequest
	}

	s.logger.Info().
		Str("username", sess.User.Username).
		Str("requestID", created.RequestID).
		Str("reason", string(created.Reason)).
		Msg("Bonafide request submitted")
	return created, nil
}

func sortNewestFirst(requests []models.BonafideRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}

func findRequest(requests []models.BonafideRequest, id string) *models.BonafideRequest {
	for i := range requests {
		if requests[i].RequestID == id {
			return &requests[i]
		}
	}
	return nil
}
