package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, inbound string) (header, seen, chiSeen string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		chiSeen = chimw.GetReqID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	if inbound != "" {
		req.Header.Set(RequestIDHeader, inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), seen, chiSeen
}

func TestRequestID_KeepsWellFormedInboundID(t *testing.T) {
	header, seen, chiSeen := serveWithRequestID(t, "client-42.retry:1")

	assert.Equal(t, "client-42.retry:1", header)
	assert.Equal(t, header, seen)
	assert.Equal(t, header, chiSeen)
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	header, seen, _ := serveWithRequestID(t, "")

	_, err := uuid.Parse(header)
	require.NoError(t, err)
	assert.Equal(t, header, seen)
}

func TestRequestID_ReplacesMalformedInboundID(t *testing.T) {
	for name, inbound := range map[string]string{
		"too long":  strings.Repeat("a", MaxRequestIDLength+1),
		"spaces":    "two words",
		"newline":   "id\nX-Injected: 1",
		"non-ascii": "ïd",
	} {
		t.Run(name, func(t *testing.T) {
			header, seen, _ := serveWithRequestID(t, inbound)

			assert.NotEqual(t, inbound, header)
			_, err := uuid.Parse(header)
			require.NoError(t, err)
			assert.Equal(t, header, seen)
		})
	}
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, ValidRequestID("abc-DEF_123"))
	assert.True(t, ValidRequestID(strings.Repeat("x", MaxRequestIDLength)))
	assert.False(t, ValidRequestID(""))
	assert.False(t, ValidRequestID("a/b"))
}

func TestGetRequestID_OutsideRequest(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
	//nolint:staticcheck // nil context is tolerated
	assert.Equal(t, "", GetRequestID(nil))
}
