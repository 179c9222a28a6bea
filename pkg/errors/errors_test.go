package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := ErrInsufficientStorage("no capacity").Wrap(cause)

	assert.Equal(t, "INSUFFICIENT_STORAGE: no capacity: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInsufficientStorage, err.HTTPStatus)
}

func TestErrValidationWithFields_ListsEveryField(t *testing.T) {
	err := ErrValidationWithFields("required fields are missing", map[string]string{
		"baseParams.width":      "is required",
		"baseParams.materialId": "is required",
	})

	assert.Equal(t, CodeValidationError, err.Code)
	assert.Equal(t, []string{"materialId", "width"}, err.Details["fields"])
	assert.Equal(t, []string{"baseParams.materialId", "baseParams.width"}, err.Details["paths"])
	assert.Len(t, err.Details["errors"], 2)
}

func TestErrValidationWithFields_CollapsesIndexedPaths(t *testing.T) {
	err := ErrValidationWithFields("bad option ids", map[string]string{
		"baseParams.postProcessingOptionIds[0]": "is invalid",
		"baseParams.postProcessingOptionIds[2]": "is invalid",
		"quantity":                              "is required",
	})

	assert.Equal(t, []string{"postProcessingOptionIds", "quantity"}, err.Details["fields"])
	assert.Len(t, err.Details["paths"], 3)
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "width", FieldName("baseParams.width"))
	assert.Equal(t, "optionIds", FieldName("optionIds[3]"))
	assert.Equal(t, "baseParams", FieldName("baseParams"))
}

func TestQuantityErrors(t *testing.T) {
	tooMany := ErrTooManyQuantities(50, 51)
	assert.Equal(t, CodeTooManyQuantities, tooMany.Code)
	assert.Contains(t, tooMany.Message, "maximum of 50")
	assert.Equal(t, http.StatusBadRequest, tooMany.HTTPStatus)

	invalid := ErrInvalidQuantityValues("bad", []float64{0, -100})
	assert.Equal(t, []float64{0, -100}, invalid.Details["invalidValues"])

	assert.Equal(t, CodeInvalidQuantities, ErrInvalidQuantities("empty").Code)
}

func TestStatusMapping(t *testing.T) {
	cases := map[*AppError]int{
		ErrInvalidJSON(nil):           http.StatusBadRequest,
		ErrInvalidInput([]string{"x"}): http.StatusBadRequest,
		ErrForbiddenOrigin("evil"):     http.StatusForbidden,
		ErrTimeout("comparison"):       http.StatusRequestTimeout,
		ErrPayloadTooLarge(10):         http.StatusRequestEntityTooLarge,
		ErrRateLimitExceeded():         http.StatusTooManyRequests,
		ErrCalculation(""):             http.StatusInternalServerError,
		ErrInsufficientStorage("x"):    http.StatusInsufficientStorage,
		ErrCircuitOpen("refdata"):      http.StatusServiceUnavailable,
	}
	for appErr, status := range cases {
		assert.Equal(t, status, appErr.HTTPStatus, appErr.Code)
	}
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	original := ErrNotFound("option")
	wrapped := fmt.Errorf("lookup: %w", original)
	assert.Same(t, original, FromError(wrapped))

	timeout := FromError(fmt.Errorf("compute: %w", context.DeadlineExceeded))
	assert.Equal(t, CodeTimeout, timeout.Code)

	internal := FromError(stderrors.New("boom"))
	require.NotNil(t, internal)
	assert.Equal(t, CodeInternalError, internal.Code)
}
