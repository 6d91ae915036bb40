package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeAlreadyExists:      http.StatusConflict,
		CodeConflict:           http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidCredentials: http.StatusBadRequest,
		CodeInternal:           http.StatusInternalServerError,
		Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, code.HTTPStatus(), code)
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("get recipe: %w", NotFoundf("recipe %d not found", 3))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "recipe 3 not found", de.Message)
	assert.Equal(t, http.StatusNotFound, de.GetStatus())
}

func TestError_WithCauseKeepsMessage(t *testing.T) {
	cause := errors.New("token expired")
	err := Unauthorized("invalid or expired token").WithCause(cause)

	assert.Equal(t, "invalid or expired token: token expired", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid or expired token", err.Message)
}

func TestError_WithDetailsCopies(t *testing.T) {
	base := AlreadyExists("email taken")
	withDetails := base.WithDetails([]FieldError{{Field: "email", Message: "already in use"}})

	assert.Nil(t, base.Details)
	assert.Equal(t, []FieldError{{Field: "email", Message: "already in use"}}, withDetails.Details)
}

func TestFieldValidation(t *testing.T) {
	err := FieldValidation("price", "must have at most 2 decimal places")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, []FieldError{{Field: "price", Message: "must have at most 2 decimal places"}}, err.Details)
}
