package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fleveque/counter-service/internal/model"
	"github.com/fleveque/counter-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenRepo fails every call the way a dropped database connection would.
type brokenRepo struct{ err error }

func (r brokenRepo) Current(context.Context) (int64, error) { return 0, r.err }
func (r brokenRepo) Increment(context.Context) (*model.CounterRecord, error) {
	return nil, r.err
}
func (r brokenRepo) History(context.Context, int) ([]model.CounterRecord, error) {
	return nil, r.err
}
func (r brokenRepo) Ping(context.Context) error { return r.err }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ready(ctx context.Context) error { return f(ctx) }

func TestCounterHandler_LogsStoreErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	svc := service.NewCounterService(brokenRepo{err: errors.New("connection reset")}, nil, logger)
	h := NewCounterHandler(svc, logger)

	router := gin.New()
	router.GET("/api/count", h.GetCount)
	router.POST("/api/count/increment", h.Increment)
	router.GET("/api/history", h.History)

	cases := []struct {
		method, path, op, message string
	}{
		{"GET", "/api/count", "getting count", "Failed to get count"},
		{"POST", "/api/count/increment", "incrementing count", "Failed to increment count"},
		{"GET", "/api/history", "getting history", "Failed to get history"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"`+tc.message+`"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "connection reset", "store details must not leak")

		entries := logs.FilterMessage(tc.op).All()
		require.Len(t, entries, 1, tc.op)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	}
}

func TestHealthHandler(t *testing.T) {
	var down bool
	h := NewHealthHandler(pingFunc(func(context.Context) error {
		if down {
			return errors.New("no route to host")
		}
		return nil
	}), zap.NewNop())

	router := gin.New()
	router.GET("/healthz", h.Healthz)
	router.GET("/readyz", h.Readyz)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
