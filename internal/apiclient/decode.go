package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

// decodeList accepts a bare JSON array or a paginated {results: [...]} envelope.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Results == nil {
		return []T{}, nil
	}
	return envelope.Results, nil
}

// openRequestMarkers identify the API's "one open request per student" rejection.
var openRequestMarkers = []string{
	"pending request",
	"open request",
	"already have a request",
}

// decodeAPIError normalizes an error response body into the portal's error taxonomy.
//
// The API reports cooldown violations either at the top level or as the first element of
// non_field_errors; both become a single *apperrors.CooldownError.
func decodeAPIError(status int, data []byte) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		body = nil
	}

	if cd := cooldownFrom(data, body); cd != nil {
		return cd
	}

	message, fields := messageFrom(body)

	sentinel := sentinelFor(status)
	if containsAny(strings.ToLower(message), openRequestMarkers) {
		sentinel = apperrors.ErrOpenRequestExists
	}
	if message == "" {
		message = defaultMessage(sentinel)
	}

	ce := apperrors.NewCustomError(sentinel, message).WithStatus(status)
	if len(fields) > 0 {
		ce.WithFields(fields)
	}
	return ce
}

func cooldownFrom(data []byte, body map[string]json.RawMessage) *apperrors.CooldownError {
	if body == nil {
		return nil
	}
	if isTruthy(body["cooldown"]) {
		var cd apperrors.CooldownError
		if err := json.Unmarshal(data, &cd); err == nil {
			return &cd
		}
	}

	first := firstElement(body["non_field_errors"])
	if len(first) == 0 || first[0] != '{' {
		return nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(first, &nested); err != nil || !isTruthy(nested["cooldown"]) {
		return nil
	}
	var cd apperrors.CooldownError
	if err := json.Unmarshal(first, &cd); err != nil {
		return nil
	}
	return &cd
}

// messageFrom picks the user-facing message and collects field-level messages.
func messageFrom(body map[string]json.RawMessage) (string, map[string]string) {
	if body == nil {
		return "", nil
	}

	for _, key := range []string{"error", "message", "detail"} {
		if msg := asString(body[key]); msg != "" {
			return msg, nil
		}
	}

	if msg := asString(firstElement(body["non_field_errors"])); msg != "" {
		return msg, nil
	}

	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]string)
	message := ""
	for _, key := range keys {
		raw := body[key]
		msg := asString(raw)
		if msg == "" {
			msg = asString(firstElement(raw))
		}
		if msg == "" {
			continue
		}
		fields[key] = msg
		if message == "" {
			message = msg
		}
	}
	return message, fields
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return apperrors.ErrInvalidCredentials
	case status == http.StatusForbidden:
		return apperrors.ErrPermissionDenied
	case status == http.StatusNotFound:
		return apperrors.ErrResourceNotFound
	case status == http.StatusConflict:
		return apperrors.ErrConflict
	case status == http.StatusRequestEntityTooLarge:
		return apperrors.ErrAttachmentTooLarge
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.ErrValidationFailed
	case status >= 500:
		return apperrors.ErrUpstream
	default:
		return apperrors.ErrBadRequest
	}
}

func defaultMessage(sentinel error) string {
	switch sentinel {
	case apperrors.ErrInvalidCredentials:
		return "Invalid username or password."
	case apperrors.ErrPermissionDenied:
		return "You do not have permission to perform this action."
	case apperrors.ErrResourceNotFound:
		return "The requested record was not found."
	case apperrors.ErrValidationFailed, apperrors.ErrBadRequest:
		return "The submitted data was rejected. Please check the form and try again."
	default:
		return apperrors.ErrUpstream.Error()
	}
}

func isTruthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("false")) && !bytes.Equal(raw, []byte("null"))
}

// firstElement returns raw itself unless it is an array, in which case it returns the first item.
func firstElement(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return raw
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil
	}
	return bytes.TrimSpace(items[0])
}

func asString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
