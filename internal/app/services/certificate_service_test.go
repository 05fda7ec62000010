package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

func TestCertificate_DownloadRequiresDeanApproval(t *testing.T) {
	api := newFakeAPI()
	api.myRequests = []models.BonafideRequest{
		request("approved", models.StatusDeanApproved, time.Hour),
		request("waiting", models.StatusWardenApproved, time.Hour),
	}
	api.cert = &models.Certificate{Filename: "bonafide_certificate_approved.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")}
	svc := NewCertificateService(api, nopLogger)

	_, err := svc.Download(context.Background(), access.Student{}, staticCreds{}, "waiting")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 0, api.count("DownloadCertificate"))

	_, err = svc.Download(context.Background(), access.Student{}, staticCreds{}, "someone-else")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	cert, err := svc.Download(context.Background(), access.Student{}, staticCreds{}, "approved")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), cert.Content)
}

func TestCertificate_DownloadByRole(t *testing.T) {
	api := newFakeAPI()
	api.all = []models.BonafideRequest{request("r", models.StatusDeanApproved, time.Hour)}
	api.cert = &models.Certificate{Content: []byte("pdf")}
	svc := NewCertificateService(api, nopLogger)

	_, err := svc.Download(context.Background(), access.Dean{}, staticCreds{}, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("AllRequests"))

	_, err = svc.Download(context.Background(), access.Warden{}, staticCreds{}, "r")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCertificate_Verify(t *testing.T) {
	api := newFakeAPI()
	api.verify = &models.VerificationResult{Valid: false, Error: "Certificate not found or invalid."}
	svc := NewCertificateService(api, nopLogger)

	_, err := svc.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, 0, api.count("VerifyCertificate"))

	res, err := svc.Verify(context.Background(), " BON-2026-0042 ")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Certificate not found or invalid.", res.Error)
	assert.Equal(t, "BON-2026-0042", api.lastVerifyCode)
}
