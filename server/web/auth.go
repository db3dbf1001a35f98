package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/disgoorg/disgo/discord"

	"github.com/topi314/chapter-events/server/auth"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

const (
	sessionCookieName    = "session"
	oauthStateCookieName = "oauthstate"
	loginCallbackPath    = "/login/callback"

	defaultSessionDuration = 30 * 24 * time.Hour
)

var discordUserURL = "https://discord.com/api/v10/users/@me"

type meResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Admin     bool   `json:"admin"`
}

func (h *handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		for _, cookie := range r.CookiesNamed(sessionCookieName) {
			session, err := h.DB.GetSession(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, database.ErrSessionExpired) {
					slog.ErrorContext(ctx, "Failed to get session from database", slog.Any("err", err))
				}
				continue
			}
			r = r.WithContext(auth.SetSession(ctx, *session))
			break
		}

		next.ServeHTTP(w, r)
	})
}

// admin only lets users listed in the auth config through.
func (h *handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.GetSession(r.Context())
		if !ok {
			writeError(r.Context(), w, http.StatusUnauthorized, "Login required")
			return
		}
		if !h.Auth.IsAdmin(session.User.ID) {
			writeError(r.Context(), w, http.StatusForbidden, "You are not allowed to do this")
			return
		}
		next(w, r)
	}
}

func viewerFromContext(ctx context.Context) *rsvp.Viewer {
	session, ok := auth.GetSession(ctx)
	if !ok {
		return nil
	}
	return &rsvp.Viewer{
		ID:   session.User.ID,
		Name: session.User.Name,
	}
}

func loginURL(redirect string) string {
	u := url.URL{
		Path:     "/login",
		RawQuery: url.Values{"rd": {redirect}}.Encode(),
	}
	return u.String()
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("rd")
	if redirect == "" {
		redirect = "/"
	}

	state := h.Auth.NewState(redirect)

	h.setCookie(w, oauthStateCookieName, state, loginCallbackPath, time.Now().Add(auth.MaxLoginFlowDuration))
	http.Redirect(w, r, h.Auth.Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *handler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	oauthState, _ := r.Cookie(oauthStateCookieName)
	state := query.Get("state")
	code := query.Get("code")

	h.removeCookie(w, oauthStateCookieName, loginCallbackPath)

	if oauthState == nil || state == "" || state != oauthState.Value {
		writeError(ctx, w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	redirectURL, ok := h.Auth.GetState(state)
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Unknown or expired OAuth state")
		return
	}

	token, err := h.Auth.Config().Exchange(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to exchange OAuth code", slog.Any("err", err))
		writeError(ctx, w, http.StatusBadGateway, "Failed to exchange OAuth code")
		return
	}

	user, err := h.getDiscordUser(ctx, token.AccessToken)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get user info from Discord", slog.Any("err", err))
		writeError(ctx, w, http.StatusBadGateway, "Failed to get user info from Discord")
		return
	}

	if err = h.DB.UpsertUser(ctx, database.User{
		ID:        user.ID.String(),
		Name:      user.EffectiveName(),
		AvatarURL: user.EffectiveAvatarURL(),
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to upsert user", slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	now := time.Now()
	expiration := now.Add(h.Cfg.Auth.SessionDuration.OrDefault(defaultSessionDuration))
	sessionID := auth.RandomStr(32)
	if err = h.DB.CreateSession(ctx, database.Session{
		ID:        sessionID,
		CreatedAt: now,
		ExpiresAt: expiration,
		UserID:    user.ID.String(),
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to create session", slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	slog.InfoContext(ctx, "User logged in", slog.String("user_id", user.ID.String()))

	h.setCookie(w, sessionCookieName, sessionID, "/", expiration)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if session, ok := auth.GetSession(ctx); ok {
		if err := h.DB.DeleteSession(ctx, session.Session.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to delete session", slog.Any("err", err))
			writeError(ctx, w, http.StatusInternalServerError, "Failed to logout")
			return
		}
	}

	h.removeCookie(w, sessionCookieName, "/")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := auth.GetSession(ctx)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(ctx, w, http.StatusOK, meResponse{
		ID:        session.User.ID,
		Name:      session.User.Name,
		AvatarURL: session.User.AvatarURL,
		Admin:     h.Auth.IsAdmin(session.User.ID),
	})
}

func (h *handler) getDiscordUser(ctx context.Context, accessToken string) (*discord.OAuth2User, error) {
	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, discordUserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	rq.Header.Set("Authorization", "Bearer "+accessToken)

	rs, err := h.HttpClient.Do(rq)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer rs.Body.Close()

	if rs.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", rs.StatusCode)
	}

	var user discord.OAuth2User
	if err = json.NewDecoder(rs.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &user, nil
}

func (h *handler) setCookie(w http.ResponseWriter, name string, value string, path string, expiration time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expiration,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Auth.SecureCookies,
		HttpOnly: true,
	})
}

func (h *handler) removeCookie(w http.ResponseWriter, name string, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Auth.SecureCookies,
		HttpOnly: true,
	})
}
