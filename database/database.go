// Package database implements the SQLite-backed queue store. It supports
// the targeted per-field operations, so pushing or shifting a single track
// touches one row instead of rewriting the whole queue document.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"queuebot/models"
	"queuebot/store"
)

type Store struct {
	db *sql.DB
}

var _ store.TargetedQueueStoreManager = (*Store)(nil)

// New opens the store at DB_PATH (default /app/data/queuebot.db).
func New() (*Store, error) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "/app/data/queuebot.db"
	}
	return NewWithPath(dbPath)
}

// NewWithPath opens or creates the SQLite database at dbPath and runs
// migrations.
func NewWithPath(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Queue database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS queue_meta (
			guild_id TEXT PRIMARY KEY,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS queue_current (
			guild_id TEXT PRIMARY KEY,
			track TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS queue_tracks (
			guild_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			track TEXT NOT NULL,
			PRIMARY KEY (guild_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_tracks_guild ON queue_tracks(guild_id, position)`,
		`CREATE TABLE IF NOT EXISTS queue_previous (
			guild_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			track TEXT NOT NULL,
			PRIMARY KEY (guild_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_previous_guild ON queue_previous(guild_id, position)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

func encodeTrack(t *models.Track) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode track: %w", err)
	}
	return string(b), nil
}

func decodeTrack(raw string) (*models.Track, error) {
	var t models.Track
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	return &t, nil
}

// Get assembles the guild's full document and returns it in the store's
// raw form (JSON text). Returns (nil, nil) when the guild has no entry.
func (s *Store) Get(ctx context.Context, guildID string) (any, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_meta WHERE guild_id = ?`, guildID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check queue existence: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	q, err := s.LoadFull(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return s.Stringify(q)
}

func (s *Store) Set(ctx context.Context, guildID string, raw any) error {
	q, err := s.Parse(raw)
	if err != nil {
		return err
	}
	return s.SaveFull(ctx, guildID, q)
}

func (s *Store) Delete(ctx context.Context, guildID string) error {
	return s.DeleteAll(ctx, guildID)
}

// Stringify serializes the document to JSON text, the store's wire format.
func (s *Store) Stringify(q *models.StoredQueue) (any, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue document: %w", err)
	}
	return string(b), nil
}

func (s *Store) Parse(raw any) (*models.StoredQueue, error) {
	if raw == nil {
		return nil, nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case *models.StoredQueue:
		return v, nil
	default:
		return nil, fmt.Errorf("sqlite store: unexpected raw queue type %T", raw)
	}

	var q models.StoredQueue
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to decode queue document: %w", err)
	}
	return &q, nil
}

// SupportsTargetedOps marks the store as capable of field-granular
// remote mutations.
func (s *Store) SupportsTargetedOps() bool {
	return true
}

func (s *Store) GetCurrent(ctx context.Context, guildID string) (*models.Track, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT track FROM queue_current WHERE guild_id = ?`, guildID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query current track: %w", err)
	}
	return decodeTrack(raw)
}

// SaveCurrent writes the current-track row, clearing it when t is nil.
func (s *Store) SaveCurrent(ctx context.Context, guildID string, t *models.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if t == nil {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM queue_current WHERE guild_id = ?`, guildID,
		)
	} else {
		var raw string
		if raw, err = encodeTrack(t); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO queue_current (guild_id, track) VALUES (?, ?)`,
			guildID, raw,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save current track: %w", err)
	}

	if err := touchMeta(ctx, tx, guildID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit current track: %w", err)
	}
	return nil
}

// PushTrack appends a single track and returns the new track count.
// Positions are sparse: appending claims max(position)+1.
func (s *Store) PushTrack(ctx context.Context, guildID string, t *models.Track) (int, error) {
	raw, err := encodeTrack(t)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO queue_tracks (guild_id, position, track)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM queue_tracks WHERE guild_id = ?), ?)`,
		guildID, guildID, raw,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to push track: %w", err)
	}

	if err := touchMeta(ctx, tx, guildID); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_tracks WHERE guild_id = ?`, guildID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit push: %w", err)
	}
	return count, nil
}

// ShiftTrack removes and returns the head of the track list, nil if empty.
func (s *Store) ShiftTrack(ctx context.Context, guildID string) (*models.Track, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pos int64
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT position, track FROM queue_tracks WHERE guild_id = ? ORDER BY position LIMIT 1`,
		guildID,
	).Scan(&pos, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query head track: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM queue_tracks WHERE guild_id = ? AND position = ?`, guildID, pos,
	); err != nil {
		return nil, fmt.Errorf("failed to shift track: %w", err)
	}

	if err := touchMeta(ctx, tx, guildID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit shift: %w", err)
	}
	return decodeTrack(raw)
}

// GetTracksRange returns tracks[start:end] (end exclusive) without loading
// the rest of the document.
func (s *Store) GetTracksRange(ctx context.Context, guildID string, start, end int) ([]*models.Track, error) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return []*models.Track{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT track FROM queue_tracks WHERE guild_id = ? ORDER BY position LIMIT ? OFFSET ?`,
		guildID, end-start, start,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query track range: %w", err)
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		t, err := decodeTrack(raw)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *Store) GetTrackCount(ctx context.Context, guildID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_tracks WHERE guild_id = ?`, guildID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// AddToPrevious prepends to the previous list. Retention trimming happens
// on full saves; single prepends stay single-row writes.
func (s *Store) AddToPrevious(ctx context.Context, guildID string, t *models.Track) error {
	raw, err := encodeTrack(t)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO queue_previous (guild_id, position, track)
		 VALUES (?, (SELECT COALESCE(MIN(position), 1) - 1 FROM queue_previous WHERE guild_id = ?), ?)`,
		guildID, guildID, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to prepend previous track: %w", err)
	}

	if err := touchMeta(ctx, tx, guildID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit previous prepend: %w", err)
	}
	return nil
}

// LoadFull assembles the whole document from the three tables. A guild
// with no rows yields an empty document.
func (s *Store) LoadFull(ctx context.Context, guildID string) (*models.StoredQueue, error) {
	q := &models.StoredQueue{}
	q.Normalize()

	current, err := s.GetCurrent(ctx, guildID)
	if err != nil {
		return nil, err
	}
	q.Current = current

	q.Tracks, err = s.loadList(ctx, "queue_tracks", guildID)
	if err != nil {
		return nil, err
	}
	q.Previous, err = s.loadList(ctx, "queue_previous", guildID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Store) loadList(ctx context.Context, table, guildID string) ([]*models.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT track FROM %s WHERE guild_id = ? ORDER BY position`, table),
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		t, err := decodeTrack(raw)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// SaveFull replaces the guild's document in one transaction, renumbering
// positions from zero.
func (s *Store) SaveFull(ctx context.Context, guildID string, q *models.StoredQueue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"queue_current", "queue_tracks", "queue_previous"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE guild_id = ?`, table), guildID,
		); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if q.Current != nil {
		raw, err := encodeTrack(q.Current)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queue_current (guild_id, track) VALUES (?, ?)`, guildID, raw,
		); err != nil {
			return fmt.Errorf("failed to save current track: %w", err)
		}
	}

	if err := insertList(ctx, tx, "queue_tracks", guildID, q.Tracks); err != nil {
		return err
	}
	if err := insertList(ctx, tx, "queue_previous", guildID, q.Previous); err != nil {
		return err
	}

	if err := touchMeta(ctx, tx, guildID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

func insertList(ctx context.Context, tx *sql.Tx, table, guildID string, tracks []*models.Track) error {
	for i, t := range tracks {
		raw, err := encodeTrack(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (guild_id, position, track) VALUES (?, ?, ?)`, table),
			guildID, i, raw,
		); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func touchMeta(ctx context.Context, tx *sql.Tx, guildID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO queue_meta (guild_id, updated_at) VALUES (?, ?)`,
		guildID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to update queue meta: %w", err)
	}
	return nil
}

// DeleteAll removes every row for the guild.
func (s *Store) DeleteAll(ctx context.Context, guildID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"queue_meta", "queue_current", "queue_tracks", "queue_previous"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE guild_id = ?`, table), guildID,
		); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
