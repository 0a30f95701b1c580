package server

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/00xu00/blog/internal/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func baseClaims(userID uint) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": "test-jti",
	}
}

func TestAuthRequired_MissingToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "Authorization required", body["error"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthRequired_RejectsForeignTokens(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user, _ := env.signup("alice")
	secret := env.srv.config.JWTSecret

	wrongIssuer := baseClaims(user.ID)
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := baseClaims(user.ID)
	wrongAudience["aud"] = "other-client"
	expired := baseClaims(user.ID)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tokens := map[string]string{
		"issuer":   signClaims(t, secret, wrongIssuer),
		"audience": signClaims(t, secret, wrongAudience),
		"expired":  signClaims(t, secret, expired),
		"secret":   signClaims(t, "a-completely-different-secret-value", baseClaims(user.ID)),
		"garbage":  "not.a.jwt",
	}
	for name, token := range tokens {
		resp := env.do(http.MethodGet, "/api/users/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
	}

	resp := env.do(http.MethodGet, "/api/users/me", nil, signClaims(t, secret, baseClaims(user.ID)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, token := env.signup("bob")

	resp := env.do(http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "Token has been revoked", body["error"])

	// The revocation entry lives no longer than the token itself.
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	jti, _ := claims["jti"].(string)
	require.True(t, env.mr.Exists(cache.TokenBlacklistKey(jti)))
	ttl := env.mr.TTL(cache.TokenBlacklistKey(jti))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestOptionalUserID_IgnoresRevokedToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user, _ := env.signup("carol")

	claims := baseClaims(user.ID)
	claims["jti"] = "revoked-jti"
	token := signClaims(t, env.srv.config.JWTSecret, claims)
	require.NoError(t, env.rdb.Set(context.Background(), cache.TokenBlacklistKey("revoked-jti"), user.ID, time.Hour).Err())

	_, err := env.srv.parseToken(context.Background(), token)
	assert.ErrorIs(t, err, errTokenRevoked)
}

func TestWSTicket_IsSingleUse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, token := env.signup("dave")

	resp := env.do(http.MethodPost, "/api/ws/ticket", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)
	assert.EqualValues(t, cache.WSTicketTTL.Seconds(), body["expires_in"])

	// A ticket also authenticates ordinary routes once.
	resp = env.do(http.MethodGet, "/api/users/me?ticket="+ticket, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/ws?ticket="+ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errBody := decode[map[string]string](t, resp)
	assert.Equal(t, "Invalid or expired WebSocket ticket", errBody["error"])
}

func TestWSTicket_Expires(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, token := env.signup("erin")

	resp := env.do(http.MethodPost, "/api/ws/ticket", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	ticket, _ := body["ticket"].(string)

	env.mr.FastForward(cache.WSTicketTTL + time.Second)

	resp = env.do(http.MethodGet, "/api/ws?ticket="+ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
