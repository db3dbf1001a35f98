package rsvp

// Resolve derives the viewer's membership from the event's attendee list.
// An empty viewerID means nobody is logged in.
func Resolve(rsvps []RSVP, viewerID string) State {
	if viewerID == "" {
		return StateNone
	}
	for _, rsvp := range rsvps {
		if rsvp.User.ID != viewerID {
			continue
		}
		if rsvp.OnWaitlist {
			return StateWaitlist
		}
		return StateRSVP
	}
	return StateNone
}

// Partition splits rsvps into confirmed and waitlisted entries, keeping their
// relative order.
func Partition(rsvps []RSVP) (confirmed []RSVP, waitlist []RSVP) {
	for _, rsvp := range rsvps {
		if rsvp.OnWaitlist {
			waitlist = append(waitlist, rsvp)
			continue
		}
		confirmed = append(confirmed, rsvp)
	}
	return confirmed, waitlist
}

// OffersJoin reports whether the join action is the one offered in state s.
// Members are only ever offered the cancel action.
func OffersJoin(s State) bool {
	return s == StateNone
}

func viewerID(viewer *Viewer) string {
	if viewer == nil {
		return ""
	}
	return viewer.ID
}
