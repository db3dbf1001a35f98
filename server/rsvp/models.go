package rsvp

import (
	"fmt"
	"time"
)

type Viewer struct {
	ID   string
	Name string
}

type User struct {
	ID        string
	Name      string
	AvatarURL string
}

type RSVP struct {
	User       User
	OnWaitlist bool
	CreatedAt  time.Time
}

// Event is the slice of an event the resolver and the workflow care about.
// RSVPs are kept in creation order.
type Event struct {
	ID          int
	Name        string
	Description string
	InviteOnly  bool
	ChapterID   int
	OwnerID     string
	RSVPs       []RSVP
}

type State string

const (
	StateNone     State = "none"
	StateRSVP     State = "rsvp"
	StateWaitlist State = "waitlist"
)

type Outcome string

const (
	OutcomeJoined        Outcome = "joined"
	OutcomeLeft          Outcome = "left"
	OutcomeDeclined      Outcome = "declined"
	OutcomeLoginRequired Outcome = "login_required"
	OutcomeNoChange      Outcome = "no_change"
	OutcomeFailed        Outcome = "failed"
)

type Kind string

const (
	KindSuccess  Kind = "success"
	KindCanceled Kind = "canceled"
	KindError    Kind = "error"
)

type Notification struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

func (n Notification) String() string {
	return fmt.Sprintf("%s: %s", n.Kind, n.Message)
}

type Prompt struct {
	Title string `json:"title"`
	Join  bool   `json:"join"`
}
