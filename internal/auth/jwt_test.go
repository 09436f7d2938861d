package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	require.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue("u1", "user")
	require.NoError(t, err)

	uid, role, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, "user", role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, err := NewTokenManager("secret-a", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenManager("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("u1", "user")
	require.NoError(t, err)

	_, _, err = b.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tm, err := NewTokenManager("test-secret", -time.Minute)
	require.NoError(t, err)

	token, err := tm.Issue("u1", "user")
	require.NoError(t, err)

	_, _, err = tm.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsEmptyAndGarbage(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, _, err = tm.Verify("")
	require.Error(t, err)
	_, _, err = tm.Verify("not-a-token")
	require.Error(t, err)
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = tm.Verify(raw)
	require.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = tm.Verify(raw)
	require.Error(t, err)
}
