package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestParseToken_Valid(t *testing.T) {
	tok, err := GenerateToken(99, "steve", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(99), claims.UserID)
	assert.Equal(t, "steve", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := GenerateToken(1, "a", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(1, "a", testSecret, -time.Second)
	require.NoError(t, err)
	noUser, err := GenerateToken(0, "a", testSecret, time.Hour)
	require.NoError(t, err)

	cases := map[string]struct{ token, secret string }{
		"wrong secret": {good, "wrong-secret"},
		"expired":      {expired, testSecret},
		"no user":      {noUser, testSecret},
		"malformed":    {"not.a.jwt", testSecret},
		"empty":        {"", testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.token, tc.secret)
			assert.Error(t, err)
		})
	}
}

func TestGenerateToken_UniqueWithinSameSecond(t *testing.T) {
	t1, err := GenerateToken(1, "a", testSecret, time.Hour)
	require.NoError(t, err)
	t2, err := GenerateToken(1, "a", testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2, "refresh must not reissue the revoked token")
}
