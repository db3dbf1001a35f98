package database

import (
	"context"
	"fmt"
)

func (d *Database) UpsertUser(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (user_id, user_name, user_avatar_url)
		VALUES (:user_id, :user_name, :user_avatar_url)
		ON CONFLICT (user_id) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			user_avatar_url = EXCLUDED.user_avatar_url
	`

	if _, err := d.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}
