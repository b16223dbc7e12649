package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages per-episode pipeline state backed by SQLite. One store lives
// inside each podcast directory, which is what makes an interrupted run
// resumable: terminal states and transcripts survive the process.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the episode database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Upsert records an episode descriptor, creating a pending item on first
// sight. An existing row keeps its status, transcript, and error message so a
// re-run resumes instead of restarting; title and audio URL are refreshed from
// the feed.
func (s *Store) Upsert(ctx context.Context, episodeKey, title string, published time.Time, audioURL string) (*Item, error) {
	episodeKey = strings.TrimSpace(episodeKey)
	if episodeKey == "" {
		return nil, errors.New("episode key required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (episode_key, title, published, audio_url, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(episode_key) DO UPDATE SET
             title = excluded.title,
             audio_url = excluded.audio_url,
             updated_at = excluded.updated_at`,
		episodeKey,
		title,
		published.UTC().Format(time.RFC3339Nano),
		audioURL,
		StatusPending,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert episode: %w", err)
	}
	return s.GetByKey(ctx, episodeKey)
}

// GetByKey fetches an item by episode key, or nil when absent.
func (s *Store) GetByKey(ctx context.Context, episodeKey string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM episodes WHERE episode_key = ?`, episodeKey)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return item, nil
}

// Update persists the item's mutable fields.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item required")
	}
	item.UpdatedAt = time.Now().UTC()
	err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET
             title = ?, published = ?, audio_url = ?, audio_path = ?,
             transcript = ?, status = ?, error_message = ?, updated_at = ?
         WHERE episode_key = ?`,
		item.Title,
		item.Published.UTC().Format(time.RFC3339Nano),
		item.AudioURL,
		item.AudioPath,
		item.Transcript,
		item.Status,
		item.ErrorMessage,
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.EpisodeKey,
	)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	return nil
}

// List returns every item ordered by publication time, oldest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM episodes ORDER BY published, id`)
}

// ListChaptered returns transcribed items in chronological order. This is the
// chapter source for document assembly: sequence numbers are dense over these
// rows only.
func (s *Store) ListChaptered(ctx context.Context) ([]Item, error) {
	return s.queryItems(
		ctx,
		`SELECT `+itemColumns+` FROM episodes WHERE status = ? ORDER BY published, id`,
		StatusChaptered,
	)
}

// ResetInFlight returns episodes stranded mid-operation by a crashed run to
// pending. Already-downloaded audio is detected by the orchestrator's
// file-exists check, so no work is lost.
func (s *Store) ResetInFlight(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var reset int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(
			ctx,
			`UPDATE episodes SET status = ?, updated_at = ? WHERE status IN (?, ?, ?)`,
			StatusPending,
			now,
			StatusFetching,
			StatusFetched,
			StatusTranscribing,
		)
		if execErr != nil {
			return execErr
		}
		reset, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("reset in-flight episodes: %w", err)
	}
	return reset, nil
}

// Summarize aggregates item counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM episodes GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize episodes: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusChaptered:
			summary.Chaptered += count
		case StatusSkipped:
			summary.Skipped += count
		case StatusFailed:
			summary.Failed += count
		default:
			summary.InFlight += count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate summary rows: %w", err)
	}
	return summary, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item      Item
		published string
		status    string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&item.ID,
		&item.EpisodeKey,
		&item.Title,
		&published,
		&item.AudioURL,
		&item.AudioPath,
		&item.Transcript,
		&status,
		&item.ErrorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	item.Status = parsed
	item.Published = parseTimestamp(published)
	item.CreatedAt = parseTimestamp(createdAt)
	item.UpdatedAt = parseTimestamp(updatedAt)
	return &item, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}
