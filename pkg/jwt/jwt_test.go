package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := Generate("s3cr3t", "agro", 5, Subject{
		UserID:      "u1",
		Email:       "ana@campo.com",
		Role:        "user",
		Permissions: map[string]bool{"fumigations": true},
	})
	require.NoError(t, err)

	claims, err := Parse("s3cr3t", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.True(t, claims.Permissions["fumigations"])
	assert.Equal(t, "agro", claims.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	token, err := Generate("s3cr3t", "agro", 5, Subject{UserID: "u1", Role: "admin"})
	require.NoError(t, err)

	_, err = Parse("otro", token)
	assert.Error(t, err, "firma incorrecta")

	expired, err := Generate("s3cr3t", "agro", -1, Subject{UserID: "u1"})
	require.NoError(t, err)
	_, err = Parse("s3cr3t", expired)
	assert.Error(t, err, "token expirado")

	_, err = Generate("", "agro", 5, Subject{UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptySecret)
}
