package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/topi314/gomigrate"
	"github.com/topi314/gomigrate/drivers/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventCanceled     = errors.New("event canceled")
	ErrRSVPNotFound      = errors.New("rsvp not found")
	ErrRSVPNotWaitlisted = errors.New("rsvp not on waitlist")
	ErrChapterNotFound   = errors.New("chapter not found")
)

const (
	foreignKeyViolation = "23503"
)

func New(cfg Config) (*Database, error) {
	return connect(cfg.DataSourceName())
}

func connect(dataSourceName string) (*Database, error) {
	dbx, err := sqlx.Connect("pgx", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = gomigrate.Migrate(ctx, dbx, postgres.New, migrations); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{
		db: dbx,
	}, nil
}

type Database struct {
	db *sqlx.DB
}

func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// CleanupSessions deletes expired sessions every interval until ctx is done.
func (d *Database) CleanupSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		d.doCleanupSessions(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Database) doCleanupSessions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	rows, err := d.DeleteExpiredSessions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cleanup expired sessions", slog.Any("err", err))
		return
	}
	if rows > 0 {
		slog.DebugContext(ctx, "cleaned up expired sessions", slog.Int64("rows", rows))
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
