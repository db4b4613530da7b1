package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoteNotFound is returned when a video has no saved note.
var ErrNoteNotFound = errors.New("note not found")

// Note is the Markdown study note kept for one video.
type Note struct {
	VideoID   string    `json:"video_id"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteStore persists notes in SQLite.
type NoteStore struct {
	db  *sql.DB
	now func() time.Time
}

const notesSchema = `
	CREATE TABLE IF NOT EXISTS notes (
		video_id   TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`

// OpenNoteStore opens (creating if needed) the note database at path.
// ":memory:" gives a private in-memory store.
func OpenNoteStore(path string) (*NoteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(notesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &NoteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *NoteStore) Close() error {
	return s.db.Close()
}

// Save stores body as the note for videoID, replacing any previous note.
func (s *NoteStore) Save(ctx context.Context, videoID, body string) (*Note, error) {
	note := &Note{VideoID: videoID, Body: body, UpdatedAt: s.now().UTC().Truncate(time.Millisecond)}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (video_id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, note.VideoID, note.Body, note.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// Get returns the note for videoID or ErrNoteNotFound.
func (s *NoteStore) Get(ctx context.Context, videoID string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT video_id, body, updated_at FROM notes WHERE video_id = ?`, videoID)

	var n Note
	var updatedAt int64
	if err := row.Scan(&n.VideoID, &n.Body, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, videoID)
		}
		return nil, fmt.Errorf("query note: %w", err)
	}
	n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &n, nil
}

// List returns all notes, most recently updated first.
func (s *NoteStore) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT video_id, body, updated_at FROM notes ORDER BY updated_at DESC, video_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var updatedAt int64
		if err := rows.Scan(&n.VideoID, &n.Body, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Delete removes the note for videoID. Deleting a missing note returns ErrNoteNotFound.
func (s *NoteStore) Delete(ctx context.Context, videoID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, videoID)
	}
	return nil
}
