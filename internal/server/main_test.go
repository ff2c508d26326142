package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"conduit/internal/config"
	"conduit/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testDefaultImage = "https://static.conduit.test/default-avatar.png"

func testConfig() *config.Config {
	return &config.Config{
		Env:                      "test",
		Port:                     "0",
		JWTSecret:                "server-test-secret-at-least-32-characters",
		JWTIssuer:                "conduit-api",
		JWTAudience:              "conduit-client",
		JWTTTLHours:              1,
		DBDriver:                 "sqlite",
		DBSQLitePath:             ":memory:",
		DBSchemaMode:             "auto",
		DBConnMaxLifetimeMinutes: 60,
		DefaultUserImage:         testDefaultImage,
		TagsCacheTTLSeconds:      60,
	}
}

type testServer struct {
	*Server
	app *fiber.App
}

// newTestServer wires a Server over a fresh sqlite database. rdb may be nil.
func newTestServer(t *testing.T, cfg *config.Config, rdb *redis.Client) *testServer {
	t.Helper()
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testServer{Server: s, app: s.NewApp()}
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// do sends a request through the app and decodes a JSON response body.
// token, when set, is sent as "Authorization: Token <token>".
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(payload) > 0 {
		require.NoError(t, json.Unmarshal(payload, &out), string(payload))
	}
	return resp.StatusCode, out
}

// register creates an account over HTTP and returns its token.
func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"user": map[string]any{
			"username": username,
			"email":    username + "@conduit.test",
			"password": "password-" + username,
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return field(t, body, "user", "token").(string)
}

// publish creates an article over HTTP and returns its slug.
func (ts *testServer) publish(t *testing.T, token, title string, tags ...string) string {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	status, body := ts.do(t, http.MethodPost, "/api/articles", token, map[string]any{
		"article": map[string]any{
			"title":       title,
			"description": "About " + title,
			"body":        "Body of " + title,
			"tagList":     tags,
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return field(t, body, "article", "slug").(string)
}

// field walks nested JSON objects.
func field(t *testing.T, body map[string]any, path ...string) any {
	t.Helper()
	var cur any = body
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		require.True(t, ok, "expected object at %q in %v", key, body)
		cur = obj[key]
	}
	return cur
}

func newRequest(method, path, authorization string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}
