package web

import (
	"net/http"

	"github.com/topi314/chapter-events/server"
)

type handler struct {
	*server.Server
}

func Routes(srv *server.Server) http.Handler {
	h := &handler{
		Server: srv,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET  /login", h.Login)
	mux.HandleFunc("GET  /login/callback", h.LoginCallback)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET  /api/me", h.Me)

	mux.HandleFunc("GET  /api/events/{event_id}", h.GetEvent)
	mux.HandleFunc("POST /api/events/{event_id}/rsvp", h.limit(h.ToggleRSVP))
	mux.HandleFunc("POST /api/events/{event_id}/interest", h.limit(h.RegisterInterest))
	mux.HandleFunc("GET  /events/{event_id}/qr.png", h.EventQRCode)

	mux.HandleFunc("GET  /api/chapters/{chapter_id}", h.GetChapter)

	mux.HandleFunc("GET  /api/dashboard/events", h.admin(h.DashboardEvents))
	mux.HandleFunc("POST /api/dashboard/events", h.admin(h.CreateEvent))
	mux.HandleFunc("PATCH /api/dashboard/events/{event_id}", h.admin(h.UpdateEvent))
	mux.HandleFunc("POST /api/dashboard/events/{event_id}/cancel", h.admin(h.CancelEvent))
	mux.HandleFunc("POST /api/dashboard/events/{event_id}/rsvps/{user_id}/confirm", h.ConfirmRSVP)
	mux.HandleFunc("POST /api/dashboard/chapters", h.admin(h.CreateChapter))

	mux.HandleFunc("/", h.NotFound)

	return logRequests(h.auth(mux))
}

func (h *handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, http.StatusNotFound, "Not found")
}
