package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

func TestStageFor(t *testing.T) {
	stage, ok := StageFor(access.Warden{})
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, stage.Precursor)
	assert.True(t, stage.RemarksOnReject)

	stage, ok = StageFor(access.Dean{})
	require.True(t, ok)
	assert.Equal(t, models.StatusWardenApproved, stage.Precursor)
	assert.False(t, stage.RemarksOnReject)

	_, ok = StageFor(access.Student{})
	assert.False(t, ok)
	_, ok = StageFor(access.Admin{})
	assert.False(t, ok)
}

func TestStage_AllowedActionsFollowPipelineEdges(t *testing.T) {
	both := []models.ReviewAction{models.ActionApprove, models.ActionReject}

	tests := []struct {
		name   string
		stage  Stage
		status models.RequestStatus
		want   []models.ReviewAction
	}{
		{"warden on pending", WardenStage, models.StatusPending, both},
		{"warden on warden_approved", WardenStage, models.StatusWardenApproved, nil},
		{"dean on warden_approved", DeanStage, models.StatusWardenApproved, both},
		{"dean on pending", DeanStage, models.StatusPending, nil},
		{"dean on dean_rejected", DeanStage, models.StatusDeanRejected, nil},
		{"dean on dean_approved", DeanStage, models.StatusDeanApproved, nil},
		{"warden on warden_rejected", WardenStage, models.StatusWardenRejected, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.stage.AllowedActions(models.BonafideRequest{Status: tt.status})
			assert.Equal(t, tt.want, got)
			for _, a := range got {
				assert.True(t, tt.status.CanTransitionTo(tt.stage.Target(a)))
			}
		})
	}
}

func TestReview_WardenRejectWithoutRemarksBlocked(t *testing.T) {
	api := newFakeAPI()
	api.wardenPending = []models.BonafideRequest{request("r1", models.StatusPending, time.Hour)}
	svc := NewReviewService(api, nopLogger)

	_, err := svc.Review(context.Background(), WardenStage, staticCreds{}, "r1", dto.ReviewRequest{Action: "reject", Remarks: "   "})
	require.ErrorIs(t, err, apperrors.ErrRemarksRequired)
	assert.Equal(t, "Remarks are required for rejection", apperrors.FieldErrors(err)["remarks"])
	assert.Equal(t, 0, api.count("WardenPending"))
	assert.Equal(t, 0, api.count("WardenReview"))
}

func TestReview_DeanQueueOnlyHoldsWardenApproved(t *testing.T) {
	api := newFakeAPI()
	api.deanPending = []models.BonafideRequest{
		request("a", models.StatusWardenApproved, 2*time.Hour),
		request("b", models.StatusPending, time.Hour),
		request("c", models.StatusWardenApproved, time.Hour),
	}
	svc := NewReviewService(api, nopLogger)

	queue, err := svc.Queue(context.Background(), DeanStage, staticCreds{})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "c", queue[0].RequestID)
	assert.Equal(t, "a", queue[1].RequestID)
}

func TestReview_Approve(t *testing.T) {
	api := newFakeAPI()
	api.wardenPending = []models.BonafideRequest{request("r1", models.StatusPending, time.Hour)}
	svc := NewReviewService(api, nopLogger)

	reviewed, err := svc.Review(context.Background(), WardenStage, staticCreds{}, "r1", dto.ReviewRequest{Action: "approve", Remarks: " verified "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWardenApproved, reviewed.Status)
	assert.Equal(t, "r1", api.lastReviewID)
	assert.Equal(t, models.ReviewDecision{Action: models.ActionApprove, Remarks: "verified"}, api.lastDecision)
}

func TestReview_DeanMayRejectWithoutRemarks(t *testing.T) {
	api := newFakeAPI()
	api.deanPending = []models.BonafideRequest{request("r2", models.StatusWardenApproved, time.Hour)}
	svc := NewReviewService(api, nopLogger)

	reviewed, err := svc.Review(context.Background(), DeanStage, staticCreds{}, "r2", dto.ReviewRequest{Action: "reject"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeanRejected, reviewed.Status)
	assert.Equal(t, 1, api.count("DeanReview"))
}

func TestReview_RequestNoLongerQueued(t *testing.T) {
	api := newFakeAPI()
	api.wardenPending = []models.BonafideRequest{request("r1", models.StatusWardenApproved, time.Hour)}
	svc := NewReviewService(api, nopLogger)

	_, err := svc.Review(context.Background(), WardenStage, staticCreds{}, "r1", dto.ReviewRequest{Action: "approve"})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, 0, api.count("WardenReview"))
}

func TestReview_UpstreamFailures(t *testing.T) {
	api := newFakeAPI()
	api.deanPending = []models.BonafideRequest{request("r3", models.StatusWardenApproved, time.Hour)}
	svc := NewReviewService(api, nopLogger)

	api.reviewErr = apperrors.NewCustomError(apperrors.ErrValidationFailed, "Request already processed")
	_, err := svc.Review(context.Background(), DeanStage, staticCreds{}, "r3", dto.ReviewRequest{Action: "approve"})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, "Failed to approve request: Request already processed", apperrors.Message(err))

	api.reviewErr = apperrors.NewCustomError(apperrors.ErrSessionExpired, "Your session has expired. Please log in again.")
	_, err = svc.Review(context.Background(), DeanStage, staticCreds{}, "r3", dto.ReviewRequest{Action: "approve"})
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestReview_InvalidAction(t *testing.T) {
	svc := NewReviewService(newFakeAPI(), nopLogger)
	_, err := svc.Review(context.Background(), DeanStage, staticCreds{}, "r", dto.ReviewRequest{Action: "escalate"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
