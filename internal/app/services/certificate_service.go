package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

// CertificateAPI is the part of the API client used for certificates
type CertificateAPI interface {
	MyRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	AllRequests(ctx context.Context, creds apiclient.Credentials) ([]models.BonafideRequest, error)
	DownloadCertificate(ctx context.Context, creds apiclient.Credentials, requestID string) (*models.Certificate, error)
	VerifyCertificate(ctx context.Context, code string) (*models.VerificationResult, error)
}

// CertificateService downloads and verifies certificates. The PDF itself is passed through.
type CertificateService struct {
	api    CertificateAPI
	logger zerolog.Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(api CertificateAPI, logger zerolog.Logger) *CertificateService {
	return &CertificateService{api: api, logger: logger}
}

// Download returns the certificate of requestID. Only students (their own requests) and the
// dean may download, and only once the request is dean_approved.
func (s *CertificateService) Download(ctx context.Context, role access.Role, creds apiclient.Credentials, requestID string) (*models.Certificate, error) {
	var (
		requests []models.BonafideRequest
		err      error
	)
	switch role.(type) {
	case access.Student:
		requests, err = s.api.MyRequests(ctx, creds)
	case access.Dean:
		requests, err = s.api.AllRequests(ctx, creds)
	default:
		return nil, apperrors.NewForbiddenError("You are not allowed to download certificates")
	}
	if err != nil {
		return nil, err
	}

	req := findRequest(requests, requestID)
	if req == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrResourceNotFound, "Request not found")
	}
	if !req.CertificateAvailable() {
		return nil, apperrors.NewConflictError("The certificate is available only after the dean approves the request.")
	}

	cert, err := s.api.DownloadCertificate(ctx, creds, requestID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("role", string(role.Name())).Str("requestID", requestID).Int("bytes", len(cert.Content)).Msg("Certificate downloaded")
	return cert, nil
}

// Verify looks up a certificate by its verification code.
func (s *CertificateService) Verify(ctx context.Context, code string) (*models.VerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("Please enter a verification code")
	}
	return s.api.VerifyCertificate(ctx, code)
}
