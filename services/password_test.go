package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordManager_HashAndCompare(t *testing.T) {
	pm := NewPasswordManager()
	pm.cost = bcrypt.MinCost

	hashed, err := pm.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hashed)
	assert.NoError(t, pm.ComparePassword(hashed, "Secret123"))
	assert.Error(t, pm.ComparePassword(hashed, "Secret124"))

	_, err = pm.HashPassword("weak")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"bob", true},
		{"user_name-42", true},
		{"ab", false},
		{"has space", false},
		{"émile", false},
		{string(make([]byte, 51)), false},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if tt.valid {
			assert.NoError(t, err, tt.username)
		} else {
			assert.ErrorIs(t, err, ErrInvalidUsername, tt.username)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("dev@example.com"))
	assert.ErrorIs(t, ValidateEmail("dev@example"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("@example.com"), ErrInvalidEmail)
}
