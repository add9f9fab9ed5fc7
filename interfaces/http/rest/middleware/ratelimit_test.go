package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testErrorHandler() *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(zap.NewNop(), false)
}

func TestRateLimit_RejectsOverQuota(t *testing.T) {
	limiter := ratelimit.NewLimiter(
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithMaxRequests(2),
	)
	defer limiter.Close()

	handler := RateLimit(limiter, "messages.send", testErrorHandler())(okHandler())

	doRequest := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/messages", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest("10.0.0.1").Code)

	rec := doRequest("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	retryAfter := rec.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)

	var body struct {
		Error   bool                   `json:"error"`
		Type    string                 `json:"type"`
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, string(pkgerrors.ErrorTypeRateLimit), body.Type)
	assert.Equal(t, "TOO_MANY_REQUESTS", body.Code)
	assert.Contains(t, body.Details, "retry_after_seconds")

	// A different client is unaffected.
	assert.Equal(t, http.StatusOK, doRequest("10.0.0.2").Code)
}

func TestRateLimit_UsesAuthenticatedIdentity(t *testing.T) {
	limiter := ratelimit.NewLimiter(
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithMaxRequests(1),
	)
	defer limiter.Close()

	handler := RateLimit(limiter, "sessions.create", testErrorHandler())(okHandler())

	doRequest := func(userID, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
		req.Header.Set("X-Real-IP", ip)
		ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: userID})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	// Same user is throttled across IPs.
	assert.Equal(t, http.StatusOK, doRequest("user-1", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest("user-1", "10.0.0.2").Code)

	// Another user has their own window.
	assert.Equal(t, http.StatusOK, doRequest("user-2", "10.0.0.1").Code)
}

func TestRateLimit_WindowResets(t *testing.T) {
	now := time.Now()

	limiter := ratelimit.NewLimiter(
		ratelimit.WithWindow(10*time.Second),
		ratelimit.WithMaxRequests(1),
		ratelimit.WithClock(func() time.Time { return now }),
	)
	defer limiter.Close()

	handler := RateLimit(limiter, "sessions.list", testErrorHandler())(okHandler())

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest().Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest().Code)

	now = now.Add(11 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest().Code)
}
