package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (d *Database) InsertChapter(ctx context.Context, name string, description string) (*Chapter, error) {
	query := `
		INSERT INTO chapters (chapter_name, chapter_description)
		VALUES ($1, $2)
		RETURNING *
	`

	var chapter Chapter
	if err := d.db.GetContext(ctx, &chapter, query, name, description); err != nil {
		return nil, fmt.Errorf("failed to insert chapter: %w", err)
	}

	return &chapter, nil
}

func (d *Database) GetChapter(ctx context.Context, chapterID int) (*Chapter, error) {
	var chapter Chapter
	if err := d.db.GetContext(ctx, &chapter, "SELECT * FROM chapters WHERE chapter_id = $1", chapterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}

	return &chapter, nil
}

// RegisterChapterInterest records that the user is interested in the chapter
// the event belongs to. Registering twice is a no-op.
func (d *Database) RegisterChapterInterest(ctx context.Context, eventID int, userID string) error {
	query := `
		INSERT INTO chapter_interests (chapter_interest_chapter_id, chapter_interest_user_id)
		SELECT event_chapter_id, $2 FROM events WHERE event_id = $1
		ON CONFLICT DO NOTHING
	`

	res, err := d.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to register chapter interest: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// nothing inserted: either already interested or the event is missing
	var exists bool
	if err = d.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM events WHERE event_id = $1)", eventID); err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return ErrEventNotFound
	}

	return nil
}

func (d *Database) GetChapterInterestCount(ctx context.Context, chapterID int) (int, error) {
	var count int
	if err := d.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM chapter_interests WHERE chapter_interest_chapter_id = $1", chapterID); err != nil {
		return 0, fmt.Errorf("failed to count chapter interests: %w", err)
	}
	return count, nil
}
