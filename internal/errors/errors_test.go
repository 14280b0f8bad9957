package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/affectlab/affectlab-server/internal/errors"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeInvalidInput, http.StatusBadRequest},
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeSourceUnavailable, http.StatusBadGateway},
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{errors.CodeRateLimited, http.StatusTooManyRequests},
		{errors.CodeEmptyAggregate, http.StatusInternalServerError},
		{errors.CodeInternal, http.StatusInternalServerError},
		{errors.Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := errors.InvalidInputf("row %d: valence out of range", 3)

	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.False(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestError_WrappedKeepsCode(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("fetch: %w", errors.Wrap(cause, errors.CodeSourceUnavailable, "download failed"))

	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, errors.CodeSourceUnavailable, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_WithDetails(t *testing.T) {
	base := errors.InvalidInput("validation failed")
	detailed := base.WithDetails(map[string]string{"row 2": "valence: must be <= 5"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(stderrors.New("boom")))
}
