package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/00xu00/blog/internal/config"
	"github.com/00xu00/blog/internal/database"
	"github.com/00xu00/blog/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3r-Secret-Pass"

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		JWTSecret:           "test-secret-that-is-at-least-32-chars",
		JWTExpireHours:      1,
		DBDriver:            "sqlite",
		FeatureFlags:        "personalized_recs=on,ai_enrichment=on",
		MaxUploadBytes:      5 * 1024 * 1024,
		ViewDedupWindowMS:   1000,
		ViewDedupMaxEntries: 1000,
	}
}

// testEnv is a full server over a private in-memory SQLite database and a
// miniredis instance.
type testEnv struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	return &testEnv{t: t, srv: srv, app: srv.NewApp(), db: db, mr: mr, rdb: rdb}
}

func (e *testEnv) do(method, path string, body any, token string) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// signup registers username and returns the user with a fresh token.
func (e *testEnv) signup(username string) (*models.User, string) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}, "")
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	user := decode[models.User](e.t, resp)

	resp = e.do(http.MethodPost, "/api/auth/token", map[string]string{
		"email":    username + "@example.com",
		"password": testPassword,
	}, "")
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	tok := decode[TokenResponse](e.t, resp)
	return &user, tok.AccessToken
}

func (e *testEnv) createPost(token string, body map[string]any) *models.Post {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/posts", body, token)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	post := decode[models.Post](e.t, resp)
	return &post
}
