package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

// BindForm decodes the submitted form (or query string on GET) into obj.
// Content rules are checked by the services; this only rejects values that do not fit the
// field types, such as letters in a numeric field.
func BindForm(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBind(obj); err != nil {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Please check the highlighted fields and try again")
	}
	return nil
}

// ParamID reads a numeric path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewCustomError(apperrors.ErrResourceNotFound, "Record not found")
	}
	return id, nil
}

// LimitBody caps the request body of upload forms. Reading past the limit fails with
// *http.MaxBytesError.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
