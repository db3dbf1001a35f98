package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (d *Database) InsertEvent(ctx context.Context, event Event) (*Event, error) {
	query := `
		INSERT INTO events (event_chapter_id, event_owner_id, event_name, event_description, event_image_url, event_venue_name, event_streaming_url, event_capacity, event_invite_only, event_start_at, event_ends_at)
		VALUES (:event_chapter_id, :event_owner_id, :event_name, :event_description, :event_image_url, :event_venue_name, :event_streaming_url, :event_capacity, :event_invite_only, :event_start_at, :event_ends_at)
		RETURNING *
	`

	rows, err := d.db.NamedQueryContext(ctx, query, event)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("failed to insert event: %w", ErrChapterNotFound)
		}
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	defer rows.Close()

	var inserted Event
	if !rows.Next() {
		return nil, fmt.Errorf("failed to insert event: %w", sql.ErrNoRows)
	}
	if err = rows.StructScan(&inserted); err != nil {
		return nil, fmt.Errorf("failed to scan inserted event: %w", err)
	}

	return &inserted, nil
}

// UpdateEvent overwrites the editable fields of an existing event.
func (d *Database) UpdateEvent(ctx context.Context, event Event) (*Event, error) {
	query := `
		UPDATE events SET
			event_chapter_id = :event_chapter_id,
			event_name = :event_name,
			event_description = :event_description,
			event_image_url = :event_image_url,
			event_venue_name = :event_venue_name,
			event_streaming_url = :event_streaming_url,
			event_capacity = :event_capacity,
			event_invite_only = :event_invite_only,
			event_start_at = :event_start_at,
			event_ends_at = :event_ends_at
		WHERE event_id = :event_id
		RETURNING *
	`

	rows, err := d.db.NamedQueryContext(ctx, query, event)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("failed to update event: %w", ErrChapterNotFound)
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		return nil, ErrEventNotFound
	}

	var updated Event
	if err = rows.StructScan(&updated); err != nil {
		return nil, fmt.Errorf("failed to scan updated event: %w", err)
	}

	return &updated, nil
}

func (d *Database) CancelEvent(ctx context.Context, eventID int) error {
	res, err := d.db.ExecContext(ctx, "UPDATE events SET event_canceled = TRUE WHERE event_id = $1", eventID)
	if err != nil {
		return fmt.Errorf("failed to cancel event: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (d *Database) GetEvent(ctx context.Context, eventID int) (*EventWithChapter, error) {
	query := `
		SELECT events.*, chapters.*
		FROM events
		JOIN chapters ON events.event_chapter_id = chapters.chapter_id
		WHERE events.event_id = $1
	`

	var event EventWithChapter
	if err := d.db.GetContext(ctx, &event, query, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

func (d *Database) GetEventSponsors(ctx context.Context, eventID int) ([]Sponsor, error) {
	query := `
		SELECT sponsors.*
		FROM sponsors
		JOIN event_sponsors ON sponsors.sponsor_id = event_sponsors.event_sponsor_sponsor_id
		WHERE event_sponsors.event_sponsor_event_id = $1
		ORDER BY sponsors.sponsor_name, sponsors.sponsor_id
	`

	var sponsors []Sponsor
	if err := d.db.SelectContext(ctx, &sponsors, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to get event sponsors: %w", err)
	}

	return sponsors, nil
}

// GetDashboardEvents returns all events, newest first, with their RSVP counts.
func (d *Database) GetDashboardEvents(ctx context.Context) ([]DashboardEvent, error) {
	query := `
		SELECT events.*, chapters.*
		FROM events
		JOIN chapters ON events.event_chapter_id = chapters.chapter_id
		ORDER BY events.event_start_at DESC, events.event_name, events.event_id
	`

	var events []EventWithChapter
	if err := d.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("failed to get dashboard events: %w", err)
	}

	eventIDs := make([]int64, 0, len(events))
	for _, event := range events {
		eventIDs = append(eventIDs, int64(event.Event.ID))
	}

	counts, err := d.GetRSVPCounts(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	dashboardEvents := make([]DashboardEvent, 0, len(events))
	for _, event := range events {
		c := counts[event.Event.ID]
		dashboardEvents = append(dashboardEvents, DashboardEvent{
			EventWithChapter: event,
			Confirmed:        c.Confirmed,
			Waitlist:         c.Waitlist,
		})
	}

	return dashboardEvents, nil
}

func (d *Database) GetUpcomingEventsByChapter(ctx context.Context, chapterID int, from time.Time) ([]Event, error) {
	query := `
		SELECT * FROM events
		WHERE event_chapter_id = $1 AND event_start_at >= $2 AND NOT event_canceled
		ORDER BY event_start_at, event_name, event_id
	`

	var events []Event
	if err := d.db.SelectContext(ctx, &events, query, chapterID, from); err != nil {
		return nil, fmt.Errorf("failed to get upcoming chapter events: %w", err)
	}

	return events, nil
}
