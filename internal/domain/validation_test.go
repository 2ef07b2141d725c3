package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid email", "test@example.com", false},
		{"Valid email with subdomain", "user@mail.example.com", false},
		{"Valid email with numbers", "user123@example.com", false},
		{"Valid email with dots", "user.name@example.com", false},
		{"Valid email with plus", "user+tag@example.com", false},
		{"Invalid email - no @", "testexample.com", true},
		{"Invalid email - no domain", "test@", true},
		{"Invalid email - no local part", "@example.com", true},
		{"Invalid email - no TLD", "test@localhost", true},
		{"Invalid email - empty", "", true},
		{"Invalid email - spaces", "test @example.com", true},
		{"Invalid email - too long", strings.Repeat("a", 250) + "@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"Valid password", "Password123!", nil},
		{"Valid minimum length", "12345678", nil},
		{"Too short", "1234567", ErrPasswordTooShort},
		{"Empty", "", ErrPasswordTooShort},
		{"Too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"Valid maximum length", strings.Repeat("a", 72), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("Free money now!!!"))
	assert.Equal(t, ErrMessageEmpty, ValidateMessage(""))
	assert.Equal(t, ErrMessageEmpty, ValidateMessage("   \t\n"))
	assert.Equal(t, ErrMessageTooLong, ValidateMessage(strings.Repeat("x", MaxMessageLength+1)))
}

func TestLabelValid(t *testing.T) {
	assert.True(t, LabelSpam.Valid())
	assert.True(t, LabelHam.Valid())
	assert.False(t, Label("maybe").Valid())
}
