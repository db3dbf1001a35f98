package rsvp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewView(t *testing.T) {
	tests := []struct {
		name         string
		inviteOnly   bool
		viewer       *Viewer
		wantState    State
		wantMessage  string
		wantAction   Action
		wantWaitlist bool
	}{
		{
			name:         "anonymous on open event",
			viewer:       nil,
			wantState:    StateNone,
			wantAction:   Action{Join: true, Label: "RSVP"},
			wantWaitlist: true,
		},
		{
			name:         "anonymous on invite only event",
			inviteOnly:   true,
			viewer:       nil,
			wantState:    StateNone,
			wantAction:   Action{Join: true, Label: "Request"},
			wantWaitlist: false,
		},
		{
			name:         "confirmed viewer",
			viewer:       &Viewer{ID: "u1"},
			wantState:    StateRSVP,
			wantMessage:  "You've RSVPed to this event",
			wantAction:   Action{Join: false, Label: "Cancel"},
			wantWaitlist: true,
		},
		{
			name:         "waitlisted viewer",
			viewer:       &Viewer{ID: "u2"},
			wantState:    StateWaitlist,
			wantMessage:  "You're on waitlist for this event",
			wantAction:   Action{Join: false, Label: "Cancel"},
			wantWaitlist: true,
		},
		{
			name:         "waitlisted viewer on invite only event",
			inviteOnly:   true,
			viewer:       &Viewer{ID: "u2"},
			wantState:    StateWaitlist,
			wantMessage:  "Event owner will soon confirm your request",
			wantAction:   Action{Join: false, Label: "Cancel"},
			wantWaitlist: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := Event{
				ID:         1,
				InviteOnly: tt.inviteOnly,
				RSVPs:      []RSVP{rsvpOf("u1", false), rsvpOf("u2", true)},
			}

			view := NewView(event, tt.viewer)

			assert.Equal(t, tt.wantState, view.State)
			assert.Equal(t, tt.wantMessage, view.Message)
			assert.Equal(t, tt.wantAction, view.Action)
			assert.Equal(t, tt.wantWaitlist, view.ShowWaitlist)
			assert.Len(t, view.Confirmed, 1)
			assert.Len(t, view.Waitlist, 1)
		})
	}
}
