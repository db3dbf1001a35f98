package auth

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const MaxLoginFlowDuration = 30 * time.Minute

type loginState struct {
	RedirectURL string
	CreatedAt   time.Time
}

func (s loginState) isExpired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > MaxLoginFlowDuration
}

// New creates the Discord login helper. publicURL is the externally reachable
// base URL of the service, used for the OAuth2 callback.
func New(cfg Config, publicURL string) *Auth {
	return &Auth{
		cfg: cfg,
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoints.Discord,
			RedirectURL:  strings.TrimSuffix(publicURL, "/") + "/login/callback",
			Scopes:       []string{"identify"},
		},
		states: make(map[string]loginState),
		now:    time.Now,
	}
}

type Auth struct {
	cfg       Config
	oauth2Cfg *oauth2.Config
	states    map[string]loginState
	statesMu  sync.Mutex
	now       func() time.Time
}

func (a *Auth) Config() *oauth2.Config {
	return a.oauth2Cfg
}

func (a *Auth) IsAdmin(userID string) bool {
	return userID != "" && slices.Contains(a.cfg.Admins, userID)
}

// NewState starts a login flow which returns to redirectURL once completed.
func (a *Auth) NewState(redirectURL string) string {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	state := RandomStr(32)
	a.states[state] = loginState{
		RedirectURL: SafeRedirect(redirectURL),
		CreatedAt:   a.now(),
	}
	return state
}

// GetState consumes a login state. Each state can only be used once.
func (a *Auth) GetState(state string) (string, bool) {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	lState, ok := a.states[state]
	if !ok {
		return "", false
	}
	delete(a.states, state)

	if lState.isExpired(a.now()) {
		return "", false
	}

	return lState.RedirectURL, true
}

// CleanupStates drops abandoned login flows every interval until ctx is done.
func (a *Auth) CleanupStates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.doCleanupStates()
		}
	}
}

func (a *Auth) doCleanupStates() {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	now := a.now()
	for state, lState := range a.states {
		if lState.isExpired(now) {
			delete(a.states, state)
		}
	}
}

// SafeRedirect only allows redirects to local paths.
func SafeRedirect(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(redirectURL, "//") {
		return "/"
	}
	return u.RequestURI()
}
