package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/topi314/chapter-events/internal/xquery"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

type rsvpRequest struct {
	Join bool `json:"join"`
	// Confirm is the answer to the confirmation prompt. A missing answer
	// makes the request return the prompt instead.
	Confirm *bool `json:"confirm"`
}

type rsvpResponse struct {
	Outcome       rsvp.Outcome        `json:"outcome,omitempty"`
	Message       string              `json:"message,omitempty"`
	Prompt        *rsvp.Prompt        `json:"prompt,omitempty"`
	LoginURL      string              `json:"login_url,omitempty"`
	Notifications []rsvp.Notification `json:"notifications"`
	View          *rsvp.View          `json:"view,omitempty"`
}

// notificationCollector gathers the notifications of a single toggle so
// they can be returned with the response.
type notificationCollector struct {
	mu            sync.Mutex
	notifications []rsvp.Notification
}

func (c *notificationCollector) Notify(_ context.Context, notification rsvp.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, notification)
}

func (c *notificationCollector) Notifications() []rsvp.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notifications == nil {
		return []rsvp.Notification{}
	}
	return append([]rsvp.Notification(nil), c.notifications...)
}

func requestConfirmer(confirm *bool) rsvp.Confirmer {
	return rsvp.ConfirmerFunc(func(_ context.Context, _ rsvp.Prompt) (bool, error) {
		if confirm == nil {
			return false, rsvp.ErrConfirmationPending
		}
		return *confirm, nil
	})
}

// requestAuthenticator can never finish a login inside a request, the client
// has to go through the login flow and retry.
var requestAuthenticator = rsvp.AuthenticatorFunc(func(_ context.Context) (*rsvp.Viewer, error) {
	return nil, rsvp.ErrLoginPending
})

func eventPath(eventID int) string {
	return "/api/events/" + strconv.Itoa(eventID)
}

// toggleRSVP runs the workflow for a single request and translates the
// result into a status code and response body.
func toggleRSVP(ctx context.Context, workflow *rsvp.Workflow, viewer *rsvp.Viewer, event rsvp.Event, rq rsvpRequest) (int, rsvpResponse) {
	notifications := &notificationCollector{}
	in := rsvp.Interaction{
		Auth:    requestAuthenticator,
		Confirm: requestConfirmer(rq.Confirm),
		Notify:  notifications,
	}

	result, err := workflow.Toggle(ctx, in, viewer, event, rq.Join)
	response := rsvpResponse{
		Outcome:       result.Outcome,
		Notifications: notifications.Notifications(),
	}

	current := event
	if result.Event != nil {
		current = *result.Event
	}
	if result.Viewer != nil {
		view := rsvp.NewView(current, result.Viewer)
		response.View = &view
	}

	switch {
	case errors.Is(err, rsvp.ErrConfirmationPending):
		prompt := rsvp.PromptFor(rq.Join)
		response.Prompt = &prompt
		response.Message = prompt.Title
		return http.StatusPreconditionRequired, response
	case errors.Is(err, rsvp.ErrActionNotOffered):
		response.Message = "This action is not available anymore"
		return http.StatusConflict, response
	case errors.Is(err, rsvp.ErrToggleInFlight):
		response.Message = "Your previous request is still being processed"
		return http.StatusConflict, response
	case err != nil:
		slog.ErrorContext(ctx, "Failed to toggle rsvp", slog.Int("event_id", event.ID), slog.Any("err", err))
		response.Message = err.Error()
		return http.StatusInternalServerError, response
	}

	switch result.Outcome {
	case rsvp.OutcomeLoginRequired:
		response.LoginURL = loginURL(eventPath(event.ID))
		response.Message = "Login required"
		return http.StatusUnauthorized, response
	case rsvp.OutcomeFailed:
		switch {
		case errors.Is(result.Err, database.ErrEventCanceled):
			response.Message = "This event has been canceled"
			return http.StatusConflict, response
		case errors.Is(result.Err, database.ErrEventNotFound):
			response.Message = "Event not found"
			return http.StatusNotFound, response
		}
		return http.StatusInternalServerError, response
	}

	return http.StatusOK, response
}

func (h *handler) ToggleRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	var rq rsvpRequest
	if err := decodeJSON(w, r, &rq); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	details, err := h.LoadEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to load event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	status, response := toggleRSVP(ctx, h.Workflow, viewerFromContext(ctx), details.RSVPEvent(), rq)
	writeJSON(ctx, w, status, response)
}

func (h *handler) RegisterInterest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	viewer := viewerFromContext(ctx)
	if viewer == nil {
		writeJSON(ctx, w, http.StatusUnauthorized, rsvpResponse{
			Outcome:       rsvp.OutcomeLoginRequired,
			Message:       "Login required",
			LoginURL:      loginURL(eventPath(eventID)),
			Notifications: []rsvp.Notification{},
		})
		return
	}

	if err := h.DB.RegisterChapterInterest(ctx, eventID, viewer.ID); err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to register chapter interest", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to register interest")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
