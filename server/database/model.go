package database

import (
	"time"
)

type User struct {
	ID        string    `db:"user_id"`
	Name      string    `db:"user_name"`
	AvatarURL string    `db:"user_avatar_url"`
	CreatedAt time.Time `db:"user_created_at"`
}

type Chapter struct {
	ID          int       `db:"chapter_id"`
	Name        string    `db:"chapter_name"`
	Description string    `db:"chapter_description"`
	CreatedAt   time.Time `db:"chapter_created_at"`
}

type Event struct {
	ID           int       `db:"event_id"`
	ChapterID    int       `db:"event_chapter_id"`
	OwnerID      string    `db:"event_owner_id"`
	Name         string    `db:"event_name"`
	Description  string    `db:"event_description"`
	ImageURL     string    `db:"event_image_url"`
	VenueName    string    `db:"event_venue_name"`
	StreamingURL string    `db:"event_streaming_url"`
	Capacity     int       `db:"event_capacity"`
	InviteOnly   bool      `db:"event_invite_only"`
	Canceled     bool      `db:"event_canceled"`
	StartAt      time.Time `db:"event_start_at"`
	EndsAt       time.Time `db:"event_ends_at"`
	CreatedAt    time.Time `db:"event_created_at"`
}

type EventWithChapter struct {
	Event
	Chapter
}

type EventRSVP struct {
	EventID    int       `db:"event_rsvp_event_id"`
	UserID     string    `db:"event_rsvp_user_id"`
	OnWaitlist bool      `db:"event_rsvp_on_waitlist"`
	CreatedAt  time.Time `db:"event_rsvp_created_at"`
}

type EventRSVPWithUser struct {
	EventRSVP
	User
}

// RSVPChange describes what RSVPToEvent and ConfirmRSVP did.
type RSVPChange struct {
	// Changed is false when the call was a no-op.
	Changed    bool
	OnWaitlist bool
	// PromotedUserID is the waitlisted user moved up after a leave.
	PromotedUserID string
	Event          Event
}

type RSVPCounts struct {
	EventID   int `db:"event_rsvp_event_id"`
	Confirmed int `db:"confirmed"`
	Waitlist  int `db:"waitlist"`
}

type DashboardEvent struct {
	EventWithChapter
	Confirmed int
	Waitlist  int
}

type Sponsor struct {
	ID      int    `db:"sponsor_id"`
	Name    string `db:"sponsor_name"`
	Website string `db:"sponsor_website"`
	Type    string `db:"sponsor_type"`
}

type Session struct {
	ID        string    `db:"session_id"`
	CreatedAt time.Time `db:"session_created_at"`
	ExpiresAt time.Time `db:"session_expires_at"`
	UserID    string    `db:"session_user_id"`
}

type SessionWithUser struct {
	Session
	User
}
