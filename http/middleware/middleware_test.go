package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/essentials/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID_Generated(t *testing.T) {
	var seen string
	h := TraceID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(TraceIDHeader))
}

func TestTraceID_Propagated(t *testing.T) {
	var seen string
	h := TraceID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "upstream-id")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rr.Header().Get(TraceIDHeader))
}

func TestTiming(t *testing.T) {
	var took int64 = -1
	h := Timing(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		took = GetRequestDuration(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.GreaterOrEqual(t, took, int64(5))

	assert.Zero(t, GetRequestDuration(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
