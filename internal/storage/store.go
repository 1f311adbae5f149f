package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tuneroom/internal/relay"
)

const defaultBusyTimeout = 5000

// Store wraps the SQLite handle backing the client's local state: profile,
// recently visited rooms, chat history, and saved queues. It is the
// client-side collaborator the relay never reads or writes.
type Store struct {
	db *sql.DB
}

// Profile is the locally persisted identity; there is no server-side
// account behind it.
type Profile struct {
	DisplayName   string
	FavoriteGenre string
	UpdatedAt     time.Time
}

// RoomVisit records one entry in the recently-joined list.
type RoomVisit struct {
	Key        string
	Name       string
	LastJoined time.Time
}

// NewStore initializes the SQLite database at the provided path. Call Close
// when done.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "tuneroom.db"
	}
	dsn := buildDSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d&_pragma=foreign_keys=ON", path, separator, defaultBusyTimeout)
}

// Migrate runs the schema creation statements.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			display_name TEXT NOT NULL,
			favorite_genre TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			last_joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room_key TEXT NOT NULL,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			content TEXT NOT NULL,
			ts DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_key, ts);`,
		`CREATE TABLE IF NOT EXISTS queue_tracks (
			room_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			media_id TEXT NOT NULL,
			title TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			added_by TEXT NOT NULL DEFAULT '',
			added_at DATETIME NOT NULL,
			thumbnail TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (room_key, position)
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveProfile upserts the single local profile row.
func (s *Store) SaveProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (id, display_name, favorite_genre, updated_at)
		 VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			favorite_genre = excluded.favorite_genre,
			updated_at = CURRENT_TIMESTAMP;`,
		p.DisplayName, p.FavoriteGenre)
	return err
}

// GetProfile returns the stored profile, or nil when none was saved yet.
func (s *Store) GetProfile(ctx context.Context) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT display_name, favorite_genre, updated_at FROM profile WHERE id = 1;`)
	var p Profile
	if err := row.Scan(&p.DisplayName, &p.FavoriteGenre, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// TouchRoom records a visit so the room shows up in the recent list.
func (s *Store) TouchRoom(ctx context.Context, key, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (key, name, last_joined_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE rooms.name END,
			last_joined_at = CURRENT_TIMESTAMP;`,
		key, name)
	return err
}

// RecentRooms lists visited rooms, most recent first.
func (s *Store) RecentRooms(ctx context.Context, limit int) ([]RoomVisit, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, last_joined_at FROM rooms ORDER BY last_joined_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var visits []RoomVisit
	for rows.Next() {
		var v RoomVisit
		if err := rows.Scan(&v.Key, &v.Name, &v.LastJoined); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// AppendMessage persists one chat message to the room's local history.
// Duplicate ids are ignored; the same message can arrive again after a
// reconnect replays the join sequence.
func (s *Store) AppendMessage(ctx context.Context, roomKey string, msg relay.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (id, room_key, user_id, username, content, ts)
		 VALUES (?, ?, ?, ?, ?, ?);`,
		msg.ID, roomKey, msg.UserID, msg.Username, msg.Content, msg.Timestamp)
	return err
}

// MessagesForRoom returns up to limit most recent messages, oldest first.
func (s *Store) MessagesForRoom(ctx context.Context, roomKey string, limit int) ([]relay.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, username, content, ts FROM (
			SELECT id, user_id, username, content, ts
			FROM messages WHERE room_key = ? ORDER BY ts DESC LIMIT ?
		 ) ORDER BY ts ASC;`,
		roomKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []relay.ChatMessage
	for rows.Next() {
		var m relay.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveQueue replaces the saved queue for a room with the given tracks.
func (s *Store) SaveQueue(ctx context.Context, roomKey string, tracks []relay.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_tracks WHERE room_key = ?;`, roomKey); err != nil {
		return err
	}
	for i, t := range tracks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queue_tracks (room_key, position, track_id, media_id, title, channel, added_by, added_at, thumbnail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			roomKey, i, t.ID, t.MediaID, t.Title, t.Channel, t.AddedBy, t.AddedAt, t.Thumbnail); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// QueueForRoom returns the saved queue in order.
func (s *Store) QueueForRoom(ctx context.Context, roomKey string) ([]relay.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, media_id, title, channel, added_by, added_at, thumbnail
		 FROM queue_tracks WHERE room_key = ? ORDER BY position ASC;`, roomKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tracks []relay.Track
	for rows.Next() {
		var t relay.Track
		if err := rows.Scan(&t.ID, &t.MediaID, &t.Title, &t.Channel, &t.AddedBy, &t.AddedAt, &t.Thumbnail); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
