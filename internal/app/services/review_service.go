package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/validation"
)

// ReviewAPI is the part of the API client used by reviewers
type ReviewAPI interface {
	WardenPending(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	DeanPending(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	WardenReview(ctx context.Context, creds apiclient.Credentials, requestID string, decision models.ReviewDecision) error
	DeanReview(ctx context.Context, creds apiclient.Credentials, requestID string, decision models.ReviewDecision) error
}

// Stage is one review step of the pipeline
type Stage struct {
	Role            access.Role
	Precursor       models.RequestStatus // the only status a request may have to appear in the queue
	OnApprove       models.RequestStatus
	OnReject        models.RequestStatus
	RemarksOnReject bool
}

// Review stages
var (
	WardenStage = Stage{
		Role:            access.Warden{},
		Precursor:       models.StatusPending,
		OnApprove:       models.StatusWardenApproved,
		OnReject:        models.StatusWardenRejected,
		RemarksOnReject: true,
	}
	DeanStage = Stage{
		Role:      access.Dean{},
		Precursor: models.StatusWardenApproved,
		OnApprove: models.StatusDeanApproved,
		OnReject:  models.StatusDeanRejected,
	}
)

// StageFor returns the review stage owned by role. Students and admins own none.
func StageFor(role access.Role) (Stage, bool) {
	switch role.(type) {
	case access.Warden:
		return WardenStage, true
	case access.Dean:
		return DeanStage, true
	default:
		return Stage{}, false
	}
}

// Target is the status a request moves to when action is applied at this stage.
func (s Stage) Target(action models.ReviewAction) models.RequestStatus {
	if action == models.ActionReject {
		return s.OnReject
	}
	return s.OnApprove
}

// AllowedActions returns the actions that may be offered for r at this stage. It is empty
// unless r sits exactly at the stage's precursor status.
func (s Stage) AllowedActions(r models.BonafideRequest) []models.ReviewAction {
	if r.Status != s.Precursor {
		return nil
	}
	var actions []models.ReviewAction
	for _, a := range []models.ReviewAction{models.ActionApprove, models.ActionReject} {
		if r.Status.CanTransitionTo(s.Target(a)) {
			actions = append(actions, a)
		}
	}
	return actions
}

// ReviewService serves the warden and dean review queues
type ReviewService struct {
	api    ReviewAPI
	logger zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(api ReviewAPI, logger zerolog.Logger) *ReviewService {
	return &ReviewService{api: api, logger: logger}
}

// Queue returns the requests awaiting stage, keeping only those at the exact precursor status.
func (s *ReviewService) Queue(ctx context.Context, stage Stage, creds apiclient.Credentials) ([]models.BonafideRequest, error) {
	var (
		requests []models.BonafideRequest
		err      error
	)
	switch stage.Role.(type) {
	case access.Warden:
		requests, err = s.api.WardenPending(ctx, creds)
	case access.Dean:
		requests, err = s.api.DeanPending(ctx, creds)
	default:
		return nil, apperrors.NewForbiddenError("You do not review requests")
	}
	if err != nil {
		return nil, err
	}

	queue := make([]models.BonafideRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status == stage.Precursor {
			queue = append(queue, r)
		}
	}
	sortNewestFirst(queue)
	return queue, nil
}

// Review submits one transition for requestID. Missing remarks on a warden rejection are
// rejected before any network call. The request must still be in the stage's queue; a request
// that has moved on is reported as ErrInvalidTransition and never sent.
func (s *ReviewService) Review(ctx context.Context, stage Stage, creds apiclient.Credentials, requestID string, form dto.ReviewRequest) (*models.BonafideRequest, error) {
	if err := validation.Struct(form); err != nil {
		return nil, err
	}
	action := models.ReviewAction(form.Action)
	remarks := strings.TrimSpace(form.Remarks)
	if action == models.ActionReject && stage.RemarksOnReject && remarks == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrRemarksRequired, "Remarks are required for rejection").
			WithFields(map[string]string{"remarks": "Remarks are required for rejection"})
	}

	queue, err := s.Queue(ctx, stage, creds)
	if err != nil {
		return nil, err
	}
	target := findRequest(queue, requestID)
	if target == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidTransition, "This request is no longer awaiting your review.")
	}

	decision := models.ReviewDecision{Action: action, Remarks: remarks}
	writeCtx := context.WithoutCancel(ctx)
	switch stage.Role.(type) {
	case access.Warden:
		err = s.api.WardenReview(writeCtx, creds, requestID, decision)
	case access.Dean:
		err = s.api.DeanReview(writeCtx, creds, requestID, decision)
	}
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindAuth, apperrors.KindAuthorization, apperrors.KindTransient:
			return nil, err
		}
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("Failed to %s request: %s", action, apperrors.Message(err)))
	}

	reviewed := *target
	reviewed.Status = stage.Target(action)
	s.logger.Info().
		Str("stage", string(stage.Role.Name())).
		Str("requestID", requestID).
		Str("action", string(action)).
		Str("status", string(reviewed.Status)).
		Msg("Request reviewed")
	return &reviewed, nil
}
