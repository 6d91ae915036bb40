package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases domain", input: "Cook@Example.COM", expected: "Cook@example.com"},
		{name: "trims whitespace", input: "  cook@example.com \n", expected: "cook@example.com"},
		{name: "no at sign", input: "not-an-email", expected: "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEmail(tt.input))
		})
	}
}

func TestUser_Touch(t *testing.T) {
	u := &User{}
	u.InitTimestamps()
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	created := u.CreatedAt
	u.Touch()
	assert.Equal(t, created, u.CreatedAt)
	assert.False(t, u.UpdatedAt.Before(created))
}
