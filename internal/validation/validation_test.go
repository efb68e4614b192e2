package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		policy   PasswordPolicy
		wantErr  bool
	}{
		{"Basic Short", "pw1", PolicyBasic, false},
		{"Basic Empty", "", PolicyBasic, true},
		{"Basic Too Long", strings.Repeat("a", 129), PolicyBasic, true},
		{"Strong Valid", "SecurePass12!@", PolicyStrong, false},
		{"Strong Exactly Min Length", "Abcdefghij1!", PolicyStrong, false},
		{"Strong Too Short", "Small1!", PolicyStrong, true},
		{"Strong No Upper", "securepass12!", PolicyStrong, true},
		{"Strong No Lower", "SECUREPASS12!", PolicyStrong, true},
		{"Strong No Digit", "SecurePass!!", PolicyStrong, true},
		{"Strong No Special", "SecurePass123", PolicyStrong, true},
		{"Strong Unicode Characters", "ÅngstromPass12!", PolicyStrong, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReservedNames(t *testing.T) {
	t.Parallel()
	reserved := ParseReservedNames(" Admin, root,,moderator ")

	assert.True(t, reserved.Contains("admin"))
	assert.True(t, reserved.Contains("ADMIN"))
	assert.True(t, reserved.Contains("Root"))
	assert.False(t, reserved.Contains("alice"))
	assert.Len(t, reserved, 3)
}
