package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/topi314/chapter-events/internal/xquery"
	"github.com/topi314/chapter-events/server"
	"github.com/topi314/chapter-events/server/auth"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

type eventResponse struct {
	ID           int                `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	ImageURL     string             `json:"image_url,omitempty"`
	VenueName    string             `json:"venue_name,omitempty"`
	StreamingURL string             `json:"streaming_url,omitempty"`
	Capacity     int                `json:"capacity"`
	InviteOnly   bool               `json:"invite_only"`
	Canceled     bool               `json:"canceled"`
	StartAt      time.Time          `json:"start_at"`
	EndsAt       time.Time          `json:"ends_at"`
	OwnerID      string             `json:"owner_id"`
	Chapter      chapterSummary     `json:"chapter"`
	Sponsors     []sponsorResponse  `json:"sponsors"`
	Confirmed    []attendeeResponse `json:"confirmed"`
	Waitlist     []attendeeResponse `json:"waitlist,omitempty"`
	QRCodeURL    string             `json:"qr_code_url"`
	View         rsvp.View          `json:"view"`
}

type chapterSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type sponsorResponse struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	Type    string `json:"type"`
}

type attendeeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	RSVPedAt  time.Time `json:"rsvped_at"`
}

func newAttendees(rsvps []rsvp.RSVP) []attendeeResponse {
	attendees := make([]attendeeResponse, 0, len(rsvps))
	for _, r := range rsvps {
		attendees = append(attendees, attendeeResponse{
			ID:        r.User.ID,
			Name:      r.User.Name,
			AvatarURL: r.User.AvatarURL,
			RSVPedAt:  r.CreatedAt,
		})
	}
	return attendees
}

// newEventResponse builds the event page for viewer. The waitlist of invite
// only events is only shown to the owner and admins.
func newEventResponse(details server.EventDetails, viewer *rsvp.Viewer, admin bool) eventResponse {
	event := details.Event.Event
	view := rsvp.NewView(details.RSVPEvent(), viewer)

	sponsors := make([]sponsorResponse, 0, len(details.Sponsors))
	for _, sponsor := range details.Sponsors {
		sponsors = append(sponsors, sponsorResponse{
			Name:    sponsor.Name,
			Website: sponsor.Website,
			Type:    sponsor.Type,
		})
	}

	response := eventResponse{
		ID:           event.ID,
		Name:         event.Name,
		Description:  event.Description,
		ImageURL:     event.ImageURL,
		VenueName:    event.VenueName,
		StreamingURL: event.StreamingURL,
		Capacity:     event.Capacity,
		InviteOnly:   event.InviteOnly,
		Canceled:     event.Canceled,
		StartAt:      event.StartAt,
		EndsAt:       event.EndsAt,
		OwnerID:      event.OwnerID,
		Chapter: chapterSummary{
			ID:   details.Event.Chapter.ID,
			Name: details.Event.Chapter.Name,
		},
		Sponsors:  sponsors,
		Confirmed: newAttendees(view.Confirmed),
		QRCodeURL: "/events/" + strconv.Itoa(event.ID) + "/qr.png",
		View:      view,
	}

	isOwner := viewer != nil && viewer.ID == event.OwnerID
	if view.ShowWaitlist || isOwner || admin {
		response.Waitlist = newAttendees(view.Waitlist)
	}

	return response
}

func (h *handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
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

	viewer := viewerFromContext(ctx)
	var admin bool
	if session, ok := auth.GetSession(ctx); ok {
		admin = h.Auth.IsAdmin(session.User.ID)
	}

	writeJSON(ctx, w, http.StatusOK, newEventResponse(*details, viewer, admin))
}
