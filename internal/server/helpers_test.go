package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"conduit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"conflict", models.NewConflictError("email", nil), http.StatusConflict},
		{"already following", models.ErrAlreadyFollowing, http.StatusConflict},
		{"already favorited", models.ErrAlreadyFavorited, http.StatusConflict},
		{"not found", models.NewNotFoundError("Article", "x"), http.StatusNotFound},
		{"not following", models.ErrNotFollowing, http.StatusNotFound},
		{"not favorited", models.ErrNotFavorited, http.StatusNotFound},
		{"forbidden", models.NewForbiddenError("nope"), http.StatusForbidden},
		{"self follow", models.ErrSelfFollow, http.StatusForbidden},
		{"unauthorized", models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{"validation", models.NewValidationError("title", "can't be blank"), http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("create: %w", models.ErrSelfFollow), http.StatusForbidden},
		{"internal", models.NewInternalError(errors.New("disk")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapServiceError(tt.err))
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		ts := newTestServer(t, testConfig(), nil)
		status, body := ts.do(t, http.MethodGet, "/health/live", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "up", body["status"])
	})

	t.Run("ready without redis", func(t *testing.T) {
		ts := newTestServer(t, testConfig(), nil)
		status, body := ts.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", field(t, body, "checks", "database"))
		assert.Equal(t, "disabled", field(t, body, "checks", "redis"))
	})

	t.Run("ready with redis", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		ts := newTestServer(t, testConfig(), rdb)
		status, body := ts.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", field(t, body, "checks", "redis"))
	})

	t.Run("redis down", func(t *testing.T) {
		mr, rdb := newMiniredisClient(t)
		ts := newTestServer(t, testConfig(), rdb)
		mr.Close()

		status, body := ts.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "unhealthy", field(t, body, "checks", "redis"))
	})
}

func TestErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	status, body := ts.do(t, http.MethodGet, "/api/articles/missing", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.NotEmpty(t, body["error"])

	status, _ = ts.do(t, http.MethodGet, "/api/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)
	ts.register(t, "jake")

	resp, err := ts.app.Test(newRequest(http.MethodGet, "/metrics", ""), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
