package web

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/topi314/chapter-events/internal/xquery"
	"github.com/topi314/chapter-events/server/auth"
	"github.com/topi314/chapter-events/server/database"
)

type EventStatus string

const (
	EventStatusCanceled EventStatus = "canceled"
	EventStatusPassed   EventStatus = "passed"
	EventStatusUpcoming EventStatus = "upcoming"
)

func eventStatus(event database.Event, now time.Time) EventStatus {
	switch {
	case event.Canceled:
		return EventStatusCanceled
	case event.StartAt.Before(now):
		return EventStatusPassed
	default:
		return EventStatusUpcoming
	}
}

type dashboardFilter struct {
	Statuses   []EventStatus
	From       time.Time
	ChapterID  int
	InviteOnly *bool
}

func parseDashboardFilter(r *http.Request) dashboardFilter {
	query := r.URL.Query()

	var filter dashboardFilter
	for _, status := range xquery.ParseStringSlice(query, "status", nil) {
		filter.Statuses = append(filter.Statuses, EventStatus(strings.ToLower(status)))
	}
	filter.From = xquery.ParseTime(query, "from", time.Time{})
	filter.ChapterID = xquery.ParseInt(query, "chapter", 0)
	if query.Has("invite_only") {
		inviteOnly := xquery.ParseBool(query, "invite_only", false)
		filter.InviteOnly = &inviteOnly
	}

	return filter
}

type dashboardEventResponse struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Chapter      chapterSummary `json:"chapter"`
	VenueName    string         `json:"venue_name,omitempty"`
	StreamingURL string         `json:"streaming_url,omitempty"`
	Capacity     int            `json:"capacity"`
	InviteOnly   bool           `json:"invite_only"`
	StartAt      time.Time      `json:"start_at"`
	EndsAt       time.Time      `json:"ends_at"`
	Status       EventStatus    `json:"status"`
	Confirmed    int            `json:"confirmed"`
	Waitlist     int            `json:"waitlist"`
}

func filterDashboardEvents(events []database.DashboardEvent, filter dashboardFilter, now time.Time) []dashboardEventResponse {
	rows := make([]dashboardEventResponse, 0, len(events))
	for _, event := range events {
		e := event.EventWithChapter.Event
		status := eventStatus(e, now)

		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, status) {
			continue
		}
		if !filter.From.IsZero() && e.StartAt.Before(filter.From) {
			continue
		}
		if filter.ChapterID > 0 && e.ChapterID != filter.ChapterID {
			continue
		}
		if filter.InviteOnly != nil && e.InviteOnly != *filter.InviteOnly {
			continue
		}

		rows = append(rows, dashboardEventResponse{
			ID:   e.ID,
			Name: e.Name,
			Chapter: chapterSummary{
				ID:   event.Chapter.ID,
				Name: event.Chapter.Name,
			},
			VenueName:    e.VenueName,
			StreamingURL: e.StreamingURL,
			Capacity:     e.Capacity,
			InviteOnly:   e.InviteOnly,
			StartAt:      e.StartAt,
			EndsAt:       e.EndsAt,
			Status:       status,
			Confirmed:    event.Confirmed,
			Waitlist:     event.Waitlist,
		})
	}
	return rows
}

func (h *handler) DashboardEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.DB.GetDashboardEvents(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get dashboard events", slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, w, http.StatusOK, filterDashboardEvents(events, parseDashboardFilter(r), time.Now()))
}

type createEventRequest struct {
	ChapterID    int       `json:"chapter_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	VenueName    string    `json:"venue_name"`
	StreamingURL string    `json:"streaming_url"`
	Capacity     int       `json:"capacity"`
	InviteOnly   bool      `json:"invite_only"`
	StartAt      time.Time `json:"start_at"`
	EndsAt       time.Time `json:"ends_at"`
}

func (rq createEventRequest) Validate() error {
	switch {
	case rq.ChapterID <= 0:
		return errors.New("chapter_id is required")
	case strings.TrimSpace(rq.Name) == "":
		return errors.New("name is required")
	case rq.Capacity < 0:
		return errors.New("capacity must not be negative")
	case rq.StartAt.IsZero():
		return errors.New("start_at is required")
	case !rq.EndsAt.IsZero() && rq.EndsAt.Before(rq.StartAt):
		return errors.New("ends_at must not be before start_at")
	}
	return nil
}

func (rq createEventRequest) Event(ownerID string) database.Event {
	endsAt := rq.EndsAt
	if endsAt.IsZero() {
		endsAt = rq.StartAt
	}
	return database.Event{
		ChapterID:    rq.ChapterID,
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(rq.Name),
		Description:  rq.Description,
		ImageURL:     rq.ImageURL,
		VenueName:    rq.VenueName,
		StreamingURL: rq.StreamingURL,
		Capacity:     rq.Capacity,
		InviteOnly:   rq.InviteOnly,
		StartAt:      rq.StartAt,
		EndsAt:       endsAt,
	}
}

func (h *handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := auth.GetSession(ctx)

	var rq createEventRequest
	if err := decodeJSON(w, r, &rq); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := rq.Validate(); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.DB.InsertEvent(ctx, rq.Event(session.User.ID))
	if err != nil {
		if errors.Is(err, database.ErrChapterNotFound) {
			writeError(ctx, w, http.StatusBadRequest, "Chapter not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to create event", slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.InfoContext(ctx, "Created event", slog.Int("event_id", event.ID), slog.String("owner_id", event.OwnerID))
	writeJSON(ctx, w, http.StatusCreated, dashboardEventResponse{
		ID:           event.ID,
		Name:         event.Name,
		Chapter:      chapterSummary{ID: event.ChapterID},
		VenueName:    event.VenueName,
		StreamingURL: event.StreamingURL,
		Capacity:     event.Capacity,
		InviteOnly:   event.InviteOnly,
		StartAt:      event.StartAt,
		EndsAt:       event.EndsAt,
		Status:       eventStatus(*event, time.Now()),
	})
}

// updateEventRequest only changes the fields which are present.
type updateEventRequest struct {
	ChapterID    *int       `json:"chapter_id"`
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	ImageURL     *string    `json:"image_url"`
	VenueName    *string    `json:"venue_name"`
	StreamingURL *string    `json:"streaming_url"`
	Capacity     *int       `json:"capacity"`
	InviteOnly   *bool      `json:"invite_only"`
	StartAt      *time.Time `json:"start_at"`
	EndsAt       *time.Time `json:"ends_at"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply merges the request into event and validates the result with the same
// rules as a new event.
func (rq updateEventRequest) Apply(event database.Event) (database.Event, error) {
	merged := createEventRequest{
		ChapterID:    event.ChapterID,
		Name:         event.Name,
		Description:  event.Description,
		ImageURL:     event.ImageURL,
		VenueName:    event.VenueName,
		StreamingURL: event.StreamingURL,
		Capacity:     event.Capacity,
		InviteOnly:   event.InviteOnly,
		StartAt:      event.StartAt,
		EndsAt:       event.EndsAt,
	}
	setIf(&merged.ChapterID, rq.ChapterID)
	setIf(&merged.Name, rq.Name)
	setIf(&merged.Description, rq.Description)
	setIf(&merged.ImageURL, rq.ImageURL)
	setIf(&merged.VenueName, rq.VenueName)
	setIf(&merged.StreamingURL, rq.StreamingURL)
	setIf(&merged.Capacity, rq.Capacity)
	setIf(&merged.InviteOnly, rq.InviteOnly)
	setIf(&merged.StartAt, rq.StartAt)
	setIf(&merged.EndsAt, rq.EndsAt)

	if err := merged.Validate(); err != nil {
		return database.Event{}, err
	}

	updated := merged.Event(event.OwnerID)
	updated.ID = event.ID
	updated.Canceled = event.Canceled
	updated.CreatedAt = event.CreatedAt
	return updated, nil
}

// UpdateEvent edits an event. Canceled events can not be edited.
func (h *handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	var rq updateEventRequest
	if err := decodeJSON(w, r, &rq); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	current, err := h.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to get event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to get event")
		return
	}
	if current.Event.Canceled {
		writeError(ctx, w, http.StatusConflict, "This event has been canceled")
		return
	}

	merged, err := rq.Apply(current.Event)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.DB.UpdateEvent(ctx, merged)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEventNotFound):
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		case errors.Is(err, database.ErrChapterNotFound):
			writeError(ctx, w, http.StatusBadRequest, "Chapter not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to update event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	slog.InfoContext(ctx, "Updated event", slog.Int("event_id", event.ID))
	writeJSON(ctx, w, http.StatusOK, dashboardEventResponse{
		ID:           event.ID,
		Name:         event.Name,
		Chapter:      chapterSummary{ID: event.ChapterID},
		VenueName:    event.VenueName,
		StreamingURL: event.StreamingURL,
		Capacity:     event.Capacity,
		InviteOnly:   event.InviteOnly,
		StartAt:      event.StartAt,
		EndsAt:       event.EndsAt,
		Status:       eventStatus(*event, time.Now()),
	})
}

func (h *handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if err := h.DB.CancelEvent(ctx, eventID); err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to cancel event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to cancel event")
		return
	}

	slog.InfoContext(ctx, "Canceled event", slog.Int("event_id", eventID))
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmRSVP accepts a waitlisted request. Only the event owner and admins
// may do this.
func (h *handler) ConfirmRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := auth.GetSession(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "Login required")
		return
	}

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	userID := r.PathValue("user_id")

	event, err := h.DB.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to get event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	if event.OwnerID != session.User.ID && !h.Auth.IsAdmin(session.User.ID) {
		writeError(ctx, w, http.StatusForbidden, "You are not allowed to do this")
		return
	}

	change, err := h.DB.ConfirmRSVP(ctx, eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrRSVPNotFound), errors.Is(err, database.ErrEventNotFound):
			writeError(ctx, w, http.StatusNotFound, "RSVP not found")
			return
		case errors.Is(err, database.ErrRSVPNotWaitlisted):
			writeError(ctx, w, http.StatusConflict, "RSVP is not on the waitlist")
			return
		case errors.Is(err, database.ErrEventCanceled):
			writeError(ctx, w, http.StatusConflict, "This event has been canceled")
			return
		}
		slog.ErrorContext(ctx, "Failed to confirm rsvp", slog.Int("event_id", eventID), slog.String("user_id", userID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to confirm rsvp")
		return
	}

	h.NotifyRSVPConfirmed(ctx, userID, change.Event)
	w.WriteHeader(http.StatusNoContent)
}
