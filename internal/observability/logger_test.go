package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "not-a-level"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
	require.False(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(LogConfig{Level: "DEBUG", Console: true, Service: "web", Environment: "local"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	core, _ := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(InjectLogger(logger))
	r.Use(RequestLogger)
	r.Get("/docs/{slug}", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "inside handler", entries[0].Message)
	require.Equal(t, "/docs/missing", entries[0].ContextMap()["path"])

	final := entries[1]
	require.Equal(t, zap.WarnLevel, final.Level)
	ctx := final.ContextMap()
	require.EqualValues(t, http.StatusNotFound, ctx["status"])
	require.Equal(t, "/docs/{slug}", ctx["route"])
	require.NotEmpty(t, ctx["request_id"])
}
