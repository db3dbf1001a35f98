package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/topi314/chapter-events/internal/tsync"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

// EventDetails is everything the event page shows. Values returned by
// LoadEvent can be shared between requests and must not be modified.
type EventDetails struct {
	Event    database.EventWithChapter
	RSVPs    []database.EventRSVPWithUser
	Sponsors []database.Sponsor
}

func (d EventDetails) RSVPEvent() rsvp.Event {
	rsvps := make([]rsvp.RSVP, 0, len(d.RSVPs))
	for _, r := range d.RSVPs {
		rsvps = append(rsvps, rsvp.RSVP{
			User: rsvp.User{
				ID:        r.User.ID,
				Name:      r.User.Name,
				AvatarURL: r.User.AvatarURL,
			},
			OnWaitlist: r.OnWaitlist,
			CreatedAt:  r.EventRSVP.CreatedAt,
		})
	}

	return rsvp.Event{
		ID:          d.Event.Event.ID,
		Name:        d.Event.Event.Name,
		Description: d.Event.Event.Description,
		InviteOnly:  d.Event.InviteOnly,
		ChapterID:   d.Event.ChapterID,
		OwnerID:     d.Event.OwnerID,
		RSVPs:       rsvps,
	}
}

// LoadEvent loads an event with its RSVPs and sponsors. Concurrent loads of
// the same event share one set of queries.
func (s *Server) LoadEvent(ctx context.Context, eventID int) (*EventDetails, error) {
	v, err, _ := s.events.Do(strconv.Itoa(eventID), func() (any, error) {
		return s.loadEvent(context.WithoutCancel(ctx), eventID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*EventDetails), nil
}

// ReloadEvent is LoadEvent without joining loads which started before the
// call.
func (s *Server) ReloadEvent(ctx context.Context, eventID int) (*EventDetails, error) {
	s.events.Forget(strconv.Itoa(eventID))
	return s.LoadEvent(ctx, eventID)
}

func (s *Server) loadEvent(ctx context.Context, eventID int) (*EventDetails, error) {
	var details EventDetails

	eg, ctx := tsync.ErrorGroupWithContext(ctx)
	eg.Go("event", func() error {
		event, err := s.DB.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		details.Event = *event
		return nil
	})
	eg.Go("rsvps", func() error {
		rsvps, err := s.DB.GetEventRSVPs(ctx, eventID)
		if err != nil {
			return err
		}
		details.RSVPs = rsvps
		return nil
	})
	eg.Go("sponsors", func() error {
		sponsors, err := s.DB.GetEventSponsors(ctx, eventID)
		if err != nil {
			return err
		}
		details.Sponsors = sponsors
		return nil
	})

	if err := eg.Wait(); err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return nil, database.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	return &details, nil
}

// eventStore backs the rsvp workflow with the database.
type eventStore struct {
	server *Server
}

func (e *eventStore) GetEvent(ctx context.Context, eventID int) (*rsvp.Event, error) {
	details, err := e.server.ReloadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event := details.RSVPEvent()
	return &event, nil
}

func (e *eventStore) RSVPToEvent(ctx context.Context, eventID int, userID string, join bool) error {
	change, err := e.server.DB.RSVPToEvent(ctx, eventID, userID, join)
	if err != nil {
		return err
	}
	e.server.notifyRSVPChange(ctx, userID, *change, join)
	return nil
}

func (e *eventStore) RegisterChapterInterest(ctx context.Context, eventID int, userID string) error {
	return e.server.DB.RegisterChapterInterest(ctx, eventID, userID)
}
