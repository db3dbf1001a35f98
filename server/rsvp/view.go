package rsvp

const (
	messageRSVP              = "You've RSVPed to this event"
	messageWaitlist          = "You're on waitlist for this event"
	messageWaitlistRequested = "Event owner will soon confirm your request"

	labelRSVP    = "RSVP"
	labelRequest = "Request"
	labelCancel  = "Cancel"
)

type Action struct {
	Join  bool   `json:"join"`
	Label string `json:"label"`
}

// View is everything the event page needs to present the viewer's
// membership. It is recomputed from the attendee list on every load.
type View struct {
	State        State  `json:"state"`
	Message      string `json:"message,omitempty"`
	Action       Action `json:"action"`
	Confirmed    []RSVP `json:"-"`
	Waitlist     []RSVP `json:"-"`
	ShowWaitlist bool   `json:"show_waitlist"`
}

func NewView(event Event, viewer *Viewer) View {
	state := Resolve(event.RSVPs, viewerID(viewer))
	confirmed, waitlist := Partition(event.RSVPs)

	view := View{
		State:        state,
		Confirmed:    confirmed,
		Waitlist:     waitlist,
		ShowWaitlist: !event.InviteOnly,
	}

	switch state {
	case StateRSVP:
		view.Message = messageRSVP
		view.Action = Action{Join: false, Label: labelCancel}
	case StateWaitlist:
		if event.InviteOnly {
			view.Message = messageWaitlistRequested
		} else {
			view.Message = messageWaitlist
		}
		view.Action = Action{Join: false, Label: labelCancel}
	default:
		label := labelRSVP
		if event.InviteOnly {
			label = labelRequest
		}
		view.Action = Action{Join: true, Label: label}
	}

	return view
}
