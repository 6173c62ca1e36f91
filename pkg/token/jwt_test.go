package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	tok, err := m.GenerateToken(42, "alice", "clinician")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "clinician", claims.Role)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	m1 := NewJWTManager("secret-one", 1, 7)
	m2 := NewJWTManager("secret-two", 1, 7)

	tok, err := m1.GenerateToken(1, "bob", "patient")
	require.NoError(t, err)

	_, err = m2.VerifyToken(tok)
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(16)
	b := GenerateRandomString(16)
	assert.Len(t, a, 32) // hex 编码长度翻倍
	assert.NotEqual(t, a, b)
}
