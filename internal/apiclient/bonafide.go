package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/aurcc/bonafide-portal/internal/app/models"
)

// CreateRequest submits a new bonafide request. It is always sent as multipart so an
// attachment can ride along.
func (c *Client) CreateRequest(ctx context.Context, creds Credentials, in models.NewRequest) (*models.BonafideRequest, error) {
	fields := [][2]string{
		{"reason", string(in.Reason)},
		{"reason_description", in.Description},
	}
	var files []formFile
	if in.Attachment != nil {
		files = append(files, formFile{
			field:       "attachment",
			filename:    in.Attachment.Filename,
			contentType: in.Attachment.ContentType,
			content:     in.Attachment.Content,
		})
	}

	r, err := newRequest(http.MethodPost, "/bonafide/request/create/").withMultipart(fields, files...)
	if err != nil {
		return nil, err
	}
	var out models.BonafideRequest
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyRequests lists the current student's requests.
func (c *Client) MyRequests(ctx context.Context, creds Credentials) ([]models.BonafideRequest, error) {
	return doList[models.BonafideRequest](ctx, c, creds, newRequest(http.MethodGet, "/bonafide/requests/my/"))
}

// AllRequests lists every request visible to the reviewer.
func (c *Client) AllRequests(ctx context.Context, creds Credentials) ([]models.BonafideRequest, error) {
	return doList[models.BonafideRequest](ctx, c, creds, newRequest(http.MethodGet, "/bonafide/requests/all/"))
}

// WardenPending lists requests awaiting the warden.
func (c *Client) WardenPending(ctx context.Context, creds Credentials) ([]models.BonafideRequest, error) {
	return doList[models.BonafideRequest](ctx, c, creds, newRequest(http.MethodGet, "/bonafide/requests/warden/pending/"))
}

// DeanPending lists requests awaiting the dean.
func (c *Client) DeanPending(ctx context.Context, creds Credentials) ([]models.BonafideRequest, error) {
	return doList[models.BonafideRequest](ctx, c, creds, newRequest(http.MethodGet, "/bonafide/requests/dean/pending/"))
}

// WardenReview posts the warden's decision on one request.
func (c *Client) WardenReview(ctx context.Context, creds Credentials, requestID string, decision models.ReviewDecision) error {
	return c.review(ctx, creds, "/bonafide/review/warden/", requestID, decision)
}

// DeanReview posts the dean's decision on one request.
func (c *Client) DeanReview(ctx context.Context, creds Credentials, requestID string, decision models.ReviewDecision) error {
	return c.review(ctx, creds, "/bonafide/review/dean/", requestID, decision)
}

func (c *Client) review(ctx context.Context, creds Credentials, prefix, requestID string, decision models.ReviewDecision) error {
	r, err := newRequest(http.MethodPost, prefix+url.PathEscape(requestID)+"/").withJSON(decision)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DownloadCertificate fetches the certificate PDF of an approved request. The bytes are
// passed through untouched.
func (c *Client) DownloadCertificate(ctx context.Context, creds Credentials, requestID string) (*models.Certificate, error) {
	r := newRequest(http.MethodGet, "/bonafide/download/"+url.PathEscape(requestID)+"/")
	resp, err := c.do(ctx, creds, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	cert := &models.Certificate{
		Filename:    CertificateFilename(requestID),
		ContentType: resp.Header.Get("Content-Type"),
		Content:     content,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		cert.Filename = params["filename"]
	}
	if cert.ContentType == "" {
		cert.ContentType = "application/pdf"
	}
	return cert, nil
}

// CertificateFilename is the download name used when the API does not suggest one.
func CertificateFilename(requestID string) string {
	return fmt.Sprintf("bonafide_certificate_%s.pdf", requestID)
}

// VerifyCertificate looks up a certificate by its verification code. Unknown codes come back
// as a result with Valid=false rather than an error.
func (c *Client) VerifyCertificate(ctx context.Context, code string) (*models.VerificationResult, error) {
	r := newRequest(http.MethodGet, "/bonafide/verify/"+url.PathEscape(code)+"/").asPublic()

	resp, err := c.send(ctx, r, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification result: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, decodeAPIError(resp.StatusCode, data)
	}

	var out models.VerificationResult
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode >= 400 {
			return nil, decodeAPIError(resp.StatusCode, data)
		}
		return nil, fmt.Errorf("failed to decode verification result: %w", err)
	}
	if resp.StatusCode >= 400 {
		out.Valid = false
		if out.Error == "" {
			out.Error = "Certificate not found or invalid."
		}
	}
	return &out, nil
}

// Settings returns the request settings.
func (c *Client) Settings(ctx context.Context, creds Credentials) (*models.BonafideSettings, error) {
	var out models.BonafideSettings
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, "/bonafide/settings/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings changes the cooldown policy.
func (c *Client) UpdateSettings(ctx context.Context, creds Credentials, period models.CooldownPeriod) (*models.BonafideSettings, error) {
	r, err := newRequest(http.MethodPut, "/bonafide/settings/").withJSON(map[string]string{"cooldown_period": string(period)})
	if err != nil {
		return nil, err
	}
	var out models.BonafideSettings
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
