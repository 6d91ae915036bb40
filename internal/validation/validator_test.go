package validation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"omitempty,max=255"`
}

type priceRequest struct {
	Title string           `json:"title" validate:"notblank"`
	Price decimal.Decimal  `json:"price" validate:"money"`
	Cost  *decimal.Decimal `json:"cost,omitempty" validate:"omitempty,money"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(registerRequest{
		Email:    "cook@example.com",
		Password: "secret",
		Name:     "Cook",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       registerRequest
		wantField string
	}{
		{
			name:      "missing email",
			req:       registerRequest{Password: "secret"},
			wantField: "email",
		},
		{
			name:      "invalid email",
			req:       registerRequest{Email: "not-an-email", Password: "secret"},
			wantField: "email",
		},
		{
			name:      "short password",
			req:       registerRequest{Email: "cook@example.com", Password: "pw"},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, 400, domainErr.HTTPStatus())

			details, ok := domainErr.Details.([]domainerrors.FieldError)
			require.True(t, ok)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.wantField, details[0].Field)
			assert.Contains(t, domainErr.Message, tt.wantField)
		})
	}
}

func TestValidator_ShortPasswordMessage(t *testing.T) {
	err := validation.New().Validate(registerRequest{Email: "cook@example.com", Password: "pw"})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "password must be at least 5 characters", domainErr.Message)
}

func TestValidator_Money(t *testing.T) {
	v := validation.New()

	tests := []struct {
		price string
		valid bool
	}{
		{"0", true},
		{"5.25", true},
		{"5.250", true},
		{"999.99", true},
		{"1000.00", false},
		{"5.255", false},
		{"-1.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := v.Validate(priceRequest{Title: "Soup", Price: decimal.RequireFromString(tt.price)})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidator_OptionalMoneyPointer(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(priceRequest{Title: "Soup", Price: decimal.NewFromInt(1)}))

	bad := decimal.RequireFromString("1.234")
	assert.Error(t, v.Validate(priceRequest{Title: "Soup", Price: decimal.NewFromInt(1), Cost: &bad}))
}

func TestValidator_NotBlank(t *testing.T) {
	err := validation.New().Validate(priceRequest{Title: "   ", Price: decimal.NewFromInt(1)})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "title may not be blank", domainErr.Message)
}
