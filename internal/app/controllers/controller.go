// Package controllers renders the portal pages and handles their forms
package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// credentials binds the request's session to the API calls made while serving it.
func credentials(pages *middleware.SessionMiddleware, c *gin.Context) apiclient.Credentials {
	s := middleware.CurrentSession(c)
	if s == nil {
		return nil
	}
	return pages.Sessions().Credentials(s)
}

// succeed stores a success flash and redirects (Post/Redirect/Get).
func succeed(pages *middleware.SessionMiddleware, c *gin.Context, message, path string) {
	pages.Flash(c, session.FlashSuccess, message)
	c.Redirect(http.StatusSeeOther, path)
}

// readUpload loads an optional uploaded file. Files over limit are returned with their size
// only, so the caller can reject them without buffering the content.
func readUpload(c *gin.Context, field string, limit int64) (*models.Attachment, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return nil, nil
		case errors.As(err, &tooLarge):
			return nil, apperrors.NewCustomError(apperrors.ErrAttachmentTooLarge,
				fmt.Sprintf("File size should not exceed %dMB", limit>>20)).
				WithFields(map[string]string{field: "File is too large"})
		}
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "The uploaded file could not be read")
	}

	att := &models.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if limit > 0 && header.Size > limit {
		return att, nil
	}
	content, err := readFileHeader(header)
	if err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "The uploaded file could not be read")
	}
	att.Content = content
	return att, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Table is one page of a paginated listing
type Table[T any] struct {
	Rows       []T
	Pagination helpers.PaginationInfo
	// Query is the current filter query string without the page parameter.
	Query string
}

func paginate[T any](c *gin.Context, rows []T) Table[T] {
	page, size := helpers.ParsePaginationParams(c)
	items, info := helpers.Paginate(rows, page, size)
	q := c.Request.URL.Query()
	q.Del("page")
	return Table[T]{Rows: items, Pagination: info, Query: q.Encode()}
}

// PageLink builds the href of page n of the table.
func (t Table[T]) PageLink(n int) string {
	if t.Query == "" {
		return fmt.Sprintf("?page=%d", n)
	}
	return fmt.Sprintf("?%s&page=%d", t.Query, n)
}
