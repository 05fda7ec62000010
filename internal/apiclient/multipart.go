package apiclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// formFile is one file part of a multipart body
type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// withMultipart encodes fields and files as multipart/form-data. Field order is the order given.
func (r *request) withMultipart(fields [][2]string, files ...formFile) (*request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", kv[0], err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.field), escapeQuotes(f.filename)))
		contentType := f.contentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part %s: %w", f.field, err)
		}
		if _, err := part.Write(f.content); err != nil {
			return nil, fmt.Errorf("failed to write file part %s: %w", f.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	r.body = buf.Bytes()
	r.contentType = w.FormDataContentType()
	return r, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
