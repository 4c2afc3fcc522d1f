package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

func newTestTokens(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestTokens(t)
	raw, exp, err := m.Issue(42)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := m.Parse(raw)
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
}

func TestTokenExpired(t *testing.T) {
	m := newTestTokens(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := m.Issue(7)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(raw)
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenExpired))
}

func TestTokenWrongSecret(t *testing.T) {
	other, err := NewTokenManager("other-secret", "HS256", time.Hour)
	require.NoError(t, err)
	raw, _, err := other.Issue(7)
	require.NoError(t, err)

	_, err = newTestTokens(t).Parse(raw)
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenInvalid))
}

func TestTokenMalformed(t *testing.T) {
	_, err := newTestTokens(t).Parse("not-a-token")
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenMalformed))
}

func TestTokenRejectsOtherAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestTokens(t).Parse(raw)
	require.Equal(t, shared.KindUnauthenticated, shared.KindOf(err))
}

func TestTokenRequiresExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestTokens(t).Parse(raw)
	require.Equal(t, shared.KindUnauthenticated, shared.KindOf(err))
}

func TestTokenRejectsNonNumericSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestTokens(t).Parse(raw)
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenInvalid))
}

func TestNewTokenManagerValidates(t *testing.T) {
	_, err := NewTokenManager("", "HS256", time.Hour)
	require.Error(t, err)
	_, err = NewTokenManager("secret", "RS256", time.Hour)
	require.Error(t, err)
	m, err := NewTokenManager("secret", "", 0)
	require.NoError(t, err)
	require.Equal(t, 12*time.Hour, m.ttl)
}
