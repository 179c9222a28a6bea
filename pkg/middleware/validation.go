package middleware

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pouchworks/quote-service/pkg/errors"
)

// DecodeJSON binds the request body into obj and classifies failures:
// oversized bodies become PAYLOAD_TOO_LARGE, type mismatches become
// VALIDATION_ERROR naming the field, anything else is INVALID_JSON.
// Struct validation is left to the caller.
func DecodeJSON(c *gin.Context, obj any) *errors.AppError {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return errors.ErrInvalidJSON(io.EOF)
	}

	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return errors.ErrPayloadTooLarge(maxErr.Limit)
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return errors.ErrValidationWithFields("request fields have the wrong type", map[string]string{
			typeErr.Field: "must be of type " + typeErr.Type.String(),
		}).Wrap(err)
	}

	return errors.ErrInvalidJSON(err)
}

// SanitizeString strips NUL bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// ContentType requires application/json on POST bodies
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPatch {
			contentType := c.GetHeader("Content-Type")
			if !strings.HasPrefix(strings.ToLower(contentType), "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, nil, errors.ErrUnsupportedMediaType(contentType))
				return
			}
		}
		c.Next()
	}
}
