package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorKeepsFirstMessagePerField(t *testing.T) {
	v := newValidator()
	v.checkPassword("")
	v.checkEmail("bad")
	require.True(t, v.hasErrors())

	err := v.toError()
	require.ErrorIs(t, err, errValidation)
	assert.Equal(t, "email must be a valid email address; password must be provided", err.Error())
	assert.Equal(t, map[string]string{
		"email":    "must be a valid email address",
		"password": "must be provided",
	}, errorFields(err))
}

func TestCheckPasswordBounds(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "too short", password: "1234567", valid: false},
		{name: "8 characters", password: "12345678", valid: true},
		{name: "72 characters", password: strings.Repeat("a", 72), valid: true},
		{name: "73 characters", password: strings.Repeat("a", 73), valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			v.checkPassword(tt.password)
			assert.Equal(t, !tt.valid, v.hasErrors())
		})
	}
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, 400, errorStatus(newServiceError(errValidation, "x")))
	assert.Equal(t, 404, errorStatus(newServiceError(errNotFound, "x")))
	assert.Equal(t, 401, errorStatus(newServiceError(errAuth, "x")))
	assert.Equal(t, 400, errorStatus(newServiceError(errDelivery, "x")))
	assert.Equal(t, 400, errorStatus(assert.AnError))
}
