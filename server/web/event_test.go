package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/chapter-events/server"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

func testEventDetails(inviteOnly bool) server.EventDetails {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return server.EventDetails{
		Event: database.EventWithChapter{
			Event: database.Event{
				ID:         4,
				ChapterID:  2,
				OwnerID:    "owner",
				Name:       "Meetup",
				Capacity:   1,
				InviteOnly: inviteOnly,
			},
			Chapter: database.Chapter{ID: 2, Name: "Berlin"},
		},
		RSVPs: []database.EventRSVPWithUser{
			{
				EventRSVP: database.EventRSVP{EventID: 4, UserID: "u1", CreatedAt: createdAt},
				User:      database.User{ID: "u1", Name: "Ada"},
			},
			{
				EventRSVP: database.EventRSVP{EventID: 4, UserID: "u2", OnWaitlist: true, CreatedAt: createdAt.Add(time.Minute)},
				User:      database.User{ID: "u2", Name: "Grace"},
			},
		},
		Sponsors: []database.Sponsor{{ID: 1, Name: "ACME", Type: "venue"}},
	}
}

func TestNewEventResponse(t *testing.T) {
	response := newEventResponse(testEventDetails(false), &rsvp.Viewer{ID: "u2"}, false)

	assert.Equal(t, 4, response.ID)
	assert.Equal(t, "Berlin", response.Chapter.Name)
	assert.Equal(t, "/events/4/qr.png", response.QRCodeURL)
	require.Len(t, response.Sponsors, 1)
	assert.Equal(t, "ACME", response.Sponsors[0].Name)
	require.Len(t, response.Confirmed, 1)
	assert.Equal(t, "u1", response.Confirmed[0].ID)
	require.Len(t, response.Waitlist, 1)
	assert.Equal(t, "u2", response.Waitlist[0].ID)
	assert.Equal(t, rsvp.StateWaitlist, response.View.State)
	assert.Equal(t, "You're on waitlist for this event", response.View.Message)
}

func TestNewEventResponseInviteOnlyWaitlist(t *testing.T) {
	details := testEventDetails(true)

	tests := []struct {
		name         string
		viewer       *rsvp.Viewer
		admin        bool
		wantWaitlist bool
	}{
		{name: "anonymous", viewer: nil, wantWaitlist: false},
		{name: "member", viewer: &rsvp.Viewer{ID: "u1"}, wantWaitlist: false},
		{name: "owner", viewer: &rsvp.Viewer{ID: "owner"}, wantWaitlist: true},
		{name: "admin", viewer: &rsvp.Viewer{ID: "someone"}, admin: true, wantWaitlist: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := newEventResponse(details, tt.viewer, tt.admin)
			if tt.wantWaitlist {
				assert.Len(t, response.Waitlist, 1)
			} else {
				assert.Empty(t, response.Waitlist)
			}
		})
	}

	anonymous := newEventResponse(details, nil, false)
	assert.Equal(t, rsvp.StateNone, anonymous.View.State)
	assert.Equal(t, "Request", anonymous.View.Action.Label)
}

func TestWriteQRCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeQRCode(&buf, eventPageURL("https://events.example.com", 4)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestEventPageURL(t *testing.T) {
	assert.Equal(t, "https://events.example.com/events/4", eventPageURL("https://events.example.com/", 4))
	assert.Equal(t, "https://events.example.com/events/4", eventPageURL("https://events.example.com", 4))
}
