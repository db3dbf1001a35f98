package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/chapter-events/server/database"
)

func newTestAuth(now *time.Time) *Auth {
	a := New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Admins:       []string{"admin"},
	}, "https://events.example.com/")
	a.now = func() time.Time { return *now }
	return a
}

func TestNewAuthRedirectURL(t *testing.T) {
	now := time.Now()
	a := newTestAuth(&now)

	assert.Equal(t, "https://events.example.com/login/callback", a.Config().RedirectURL)
	assert.Equal(t, []string{"identify"}, a.Config().Scopes)
}

func TestStateIsSingleUse(t *testing.T) {
	now := time.Now()
	a := newTestAuth(&now)

	state := a.NewState("/api/events/3")
	require.Len(t, state, 32)

	redirect, ok := a.GetState(state)
	require.True(t, ok)
	assert.Equal(t, "/api/events/3", redirect)

	_, ok = a.GetState(state)
	assert.False(t, ok)
}

func TestStateExpires(t *testing.T) {
	now := time.Now()
	a := newTestAuth(&now)

	state := a.NewState("/")
	now = now.Add(MaxLoginFlowDuration + time.Second)

	_, ok := a.GetState(state)
	assert.False(t, ok)
}

func TestCleanupStates(t *testing.T) {
	now := time.Now()
	a := newTestAuth(&now)

	expired := a.NewState("/old")
	now = now.Add(MaxLoginFlowDuration + time.Second)
	fresh := a.NewState("/new")

	a.doCleanupStates()

	assert.NotContains(t, a.states, expired)
	assert.Contains(t, a.states, fresh)
}

func TestIsAdmin(t *testing.T) {
	now := time.Now()
	a := newTestAuth(&now)

	assert.True(t, a.IsAdmin("admin"))
	assert.False(t, a.IsAdmin("user"))
	assert.False(t, a.IsAdmin(""))
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/api/events/1", want: "/api/events/1"},
		{in: "/api/events/1?join=true", want: "/api/events/1?join=true"},
		{in: "https://evil.example.com/", want: "/"},
		{in: "//evil.example.com/path", want: "/"},
		{in: "relative/path", want: "/"},
		{in: "", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirect(tt.in))
		})
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetSession(ctx)
	assert.False(t, ok)

	_, ok = GetSession(SetSession(ctx, database.SessionWithUser{}))
	assert.False(t, ok)

	session := database.SessionWithUser{
		Session: database.Session{ID: "abc", UserID: "u1"},
		User:    database.User{ID: "u1", Name: "User One"},
	}
	got, ok := GetSession(SetSession(ctx, session))
	require.True(t, ok)
	assert.Equal(t, "u1", got.User.ID)
}

func TestRandomStr(t *testing.T) {
	a := RandomStr(16)
	b := RandomStr(16)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
