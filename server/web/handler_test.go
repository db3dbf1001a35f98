package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/chapter-events/internal/xtime"
	"github.com/topi314/chapter-events/server"
	"github.com/topi314/chapter-events/server/auth"
	"github.com/topi314/chapter-events/server/database"
)

func newTestHandler() *handler {
	cfg := server.Config{
		Server: server.ServerConfig{PublicURL: "https://events.example.com"},
		Auth: auth.Config{
			ClientID: "client",
			Admins:   []string{"admin"},
		},
		RateLimit: server.RateLimitConfig{
			Every: xtime.Duration(time.Hour),
			Burst: 1,
		},
	}
	return &handler{
		Server: &server.Server{
			Cfg:     cfg,
			Auth:    auth.New(cfg.Auth, cfg.Server.PublicURL),
			Limiter: server.NewLimiter(cfg.RateLimit),
		},
	}
}

func withSession(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.SetSession(r.Context(), database.SessionWithUser{
		Session: database.Session{ID: "session-" + userID, UserID: userID},
		User:    database.User{ID: userID, Name: "User " + userID, AvatarURL: "https://cdn/" + userID + ".png"},
	}))
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestLogin(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.Login(rec, httptest.NewRequest(http.MethodGet, "/login?rd=/api/events/1", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "discord.com", location.Host)
	assert.Equal(t, "client", location.Query().Get("client_id"))
	assert.Equal(t, "https://events.example.com/login/callback", location.Query().Get("redirect_uri"))

	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookieName, cookies[0].Name)
	assert.Equal(t, state, cookies[0].Value)
	assert.Equal(t, loginCallbackPath, cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)

	redirect, ok := h.Auth.GetState(state)
	require.True(t, ok)
	assert.Equal(t, "/api/events/1", redirect)
}

func TestLoginRejectsForeignRedirect(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.Login(rec, httptest.NewRequest(http.MethodGet, "/login?rd=https://evil.example.com", nil))

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	redirect, ok := h.Auth.GetState(location.Query().Get("state"))
	require.True(t, ok)
	assert.Equal(t, "/", redirect)
}

func TestLoginCallbackInvalidState(t *testing.T) {
	h := newTestHandler()

	t.Run("missing cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LoginCallback(rec, httptest.NewRequest(http.MethodGet, "/login/callback?state=abc&code=123", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cookie mismatch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/login/callback?state=abc&code=123", nil)
		r.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "other"})
		h.LoginCallback(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown state", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/login/callback?state=abc&code=123", nil)
		r.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "abc"})
		h.LoginCallback(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.Me(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil), "admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	var me meResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, meResponse{ID: "admin", Name: "User admin", AvatarURL: "https://cdn/admin.png", Admin: true}, me)
}

func TestAuthMiddlewareAnonymous(t *testing.T) {
	h := newTestHandler()
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := auth.GetSession(r.Context())
		assert.False(t, ok)
	})

	h.auth(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events/1", nil))
	assert.True(t, called)
}

func TestAdminMiddleware(t *testing.T) {
	h := newTestHandler()
	protected := h.admin(okHandler)

	tests := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "user", userID: "u1", wantStatus: http.StatusForbidden},
		{name: "admin", userID: "admin", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard/events", nil)
			if tt.userID != "" {
				r = withSession(r, tt.userID)
			}
			rec := httptest.NewRecorder()
			protected(rec, r)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLimitMiddleware(t *testing.T) {
	h := newTestHandler()
	limited := h.limit(okHandler)

	do := func(r *http.Request) int {
		rec := httptest.NewRecorder()
		limited(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(withSession(httptest.NewRequest(http.MethodPost, "/api/events/1/rsvp", nil), "u1")))
	assert.Equal(t, http.StatusTooManyRequests, do(withSession(httptest.NewRequest(http.MethodPost, "/api/events/1/rsvp", nil), "u1")))
	assert.Equal(t, http.StatusOK, do(withSession(httptest.NewRequest(http.MethodPost, "/api/events/1/rsvp", nil), "u2")))

	anonymous := httptest.NewRequest(http.MethodPost, "/api/events/1/rsvp", nil)
	anonymous.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusOK, do(anonymous))
	assert.Equal(t, http.StatusTooManyRequests, do(anonymous))
}

func TestLogRequestsKeepsStatus(t *testing.T) {
	handler := logRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestNotFound(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Not found"}`, rec.Body.String())
}

func TestRegisterInterestAnonymous(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/events/5/interest", nil)
	r.SetPathValue("event_id", "5")
	rec := httptest.NewRecorder()

	h.RegisterInterest(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"login_url":"/login?rd=%2Fapi%2Fevents%2F5"`))
}

func TestToggleRSVPInvalidBody(t *testing.T) {
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodPost, "/api/events/1/rsvp", strings.NewReader(`{"join": "maybe"}`))
	r.SetPathValue("event_id", "1")
	rec := httptest.NewRecorder()

	h.ToggleRSVP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
