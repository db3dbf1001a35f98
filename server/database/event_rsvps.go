package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetEventRSVPs returns the RSVPs of an event in the order they were made.
func (d *Database) GetEventRSVPs(ctx context.Context, eventID int) ([]EventRSVPWithUser, error) {
	query := `
		SELECT event_rsvps.*, users.*
		FROM event_rsvps
		JOIN users ON event_rsvps.event_rsvp_user_id = users.user_id
		WHERE event_rsvps.event_rsvp_event_id = $1
		ORDER BY event_rsvps.event_rsvp_created_at, users.user_id
	`

	var rsvps []EventRSVPWithUser
	if err := d.db.SelectContext(ctx, &rsvps, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to get event rsvps: %w", err)
	}

	return rsvps, nil
}

func (d *Database) GetRSVPCounts(ctx context.Context, eventIDs []int64) (map[int]RSVPCounts, error) {
	counts := make(map[int]RSVPCounts, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT event_rsvp_event_id,
			COUNT(*) FILTER (WHERE NOT event_rsvp_on_waitlist) AS confirmed,
			COUNT(*) FILTER (WHERE event_rsvp_on_waitlist) AS waitlist
		FROM event_rsvps
		WHERE event_rsvp_event_id = ANY($1)
		GROUP BY event_rsvp_event_id
	`

	var rows []RSVPCounts
	if err := d.db.SelectContext(ctx, &rows, query, pq.Array(eventIDs)); err != nil {
		return nil, fmt.Errorf("failed to get rsvp counts: %w", err)
	}

	for _, row := range rows {
		counts[row.EventID] = row
	}
	return counts, nil
}

// RSVPToEvent adds (join = true) or removes the user's RSVP in a single
// transaction. Joins land on the waitlist when the event is invite only or
// full. Removing a confirmed RSVP promotes the oldest waitlist entry of an
// open event when a seat is free.
func (d *Database) RSVPToEvent(ctx context.Context, eventID int, userID string, join bool) (*RSVPChange, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	var event Event
	if err = tx.GetContext(ctx, &event, "SELECT * FROM events WHERE event_id = $1 FOR UPDATE", eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	var change *RSVPChange
	if join {
		change, err = joinEvent(ctx, tx, event, userID)
	} else {
		change, err = leaveEvent(ctx, tx, event, userID)
	}
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return change, nil
}

func joinEvent(ctx context.Context, tx *sqlx.Tx, event Event, userID string) (*RSVPChange, error) {
	var existing EventRSVP
	err := tx.GetContext(ctx, &existing, "SELECT * FROM event_rsvps WHERE event_rsvp_event_id = $1 AND event_rsvp_user_id = $2", event.ID, userID)
	if err == nil {
		return &RSVPChange{OnWaitlist: existing.OnWaitlist, Event: event}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get existing rsvp: %w", err)
	}

	if event.Canceled {
		return nil, ErrEventCanceled
	}

	onWaitlist := event.InviteOnly
	if !onWaitlist && event.Capacity > 0 {
		confirmed, err := countConfirmed(ctx, tx, event.ID)
		if err != nil {
			return nil, err
		}
		onWaitlist = confirmed >= event.Capacity
	}

	query := `
		INSERT INTO event_rsvps (event_rsvp_event_id, event_rsvp_user_id, event_rsvp_on_waitlist)
		VALUES ($1, $2, $3)
	`
	if _, err = tx.ExecContext(ctx, query, event.ID, userID, onWaitlist); err != nil {
		return nil, fmt.Errorf("failed to insert rsvp: %w", err)
	}

	return &RSVPChange{Changed: true, OnWaitlist: onWaitlist, Event: event}, nil
}

func leaveEvent(ctx context.Context, tx *sqlx.Tx, event Event, userID string) (*RSVPChange, error) {
	var wasWaitlisted bool
	query := `
		DELETE FROM event_rsvps
		WHERE event_rsvp_event_id = $1 AND event_rsvp_user_id = $2
		RETURNING event_rsvp_on_waitlist
	`
	if err := tx.GetContext(ctx, &wasWaitlisted, query, event.ID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &RSVPChange{Event: event}, nil
		}
		return nil, fmt.Errorf("failed to delete rsvp: %w", err)
	}

	change := &RSVPChange{Changed: true, OnWaitlist: wasWaitlisted, Event: event}
	if wasWaitlisted || event.InviteOnly || event.Canceled {
		return change, nil
	}

	if event.Capacity > 0 {
		confirmed, err := countConfirmed(ctx, tx, event.ID)
		if err != nil {
			return nil, err
		}
		if confirmed >= event.Capacity {
			return change, nil
		}
	}

	promoteQuery := `
		UPDATE event_rsvps SET event_rsvp_on_waitlist = FALSE
		WHERE event_rsvp_event_id = $1 AND event_rsvp_user_id = (
			SELECT event_rsvp_user_id FROM event_rsvps
			WHERE event_rsvp_event_id = $1 AND event_rsvp_on_waitlist
			ORDER BY event_rsvp_created_at, event_rsvp_user_id
			LIMIT 1
		)
		RETURNING event_rsvp_user_id
	`
	if err := tx.GetContext(ctx, &change.PromotedUserID, promoteQuery, event.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to promote waitlisted rsvp: %w", err)
	}

	return change, nil
}

// ConfirmRSVP moves a waitlisted RSVP to the confirmed list. Canceled events
// and RSVPs which are not on the waitlist are rejected.
func (d *Database) ConfirmRSVP(ctx context.Context, eventID int, userID string) (*RSVPChange, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	var event Event
	if err = tx.GetContext(ctx, &event, "SELECT * FROM events WHERE event_id = $1 FOR UPDATE", eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event.Canceled {
		return nil, ErrEventCanceled
	}

	var existing EventRSVP
	if err = tx.GetContext(ctx, &existing, "SELECT * FROM event_rsvps WHERE event_rsvp_event_id = $1 AND event_rsvp_user_id = $2", eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRSVPNotFound
		}
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}
	if !existing.OnWaitlist {
		return nil, ErrRSVPNotWaitlisted
	}

	query := `
		UPDATE event_rsvps SET event_rsvp_on_waitlist = FALSE
		WHERE event_rsvp_event_id = $1 AND event_rsvp_user_id = $2 AND event_rsvp_on_waitlist
	`
	if _, err = tx.ExecContext(ctx, query, eventID, userID); err != nil {
		return nil, fmt.Errorf("failed to confirm rsvp: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &RSVPChange{Changed: true, OnWaitlist: false, Event: event}, nil
}

func countConfirmed(ctx context.Context, tx *sqlx.Tx, eventID int) (int, error) {
	var confirmed int
	query := "SELECT COUNT(*) FROM event_rsvps WHERE event_rsvp_event_id = $1 AND NOT event_rsvp_on_waitlist"
	if err := tx.GetContext(ctx, &confirmed, query, eventID); err != nil {
		return 0, fmt.Errorf("failed to count confirmed rsvps: %w", err)
	}
	return confirmed, nil
}

func rollback(ctx context.Context, tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.ErrorContext(ctx, "failed to rollback transaction", slog.Any("err", err))
	}
}
