// Package db persists exported recording sessions in a local SQLite
// database so captures survive process restarts and can be fetched over
// the HTTP API.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session not found")

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the session archive at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			started_at        TIMESTAMP,
			frame_count       BIGINT,
			frame_time        DOUBLE,
			bvh               TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Session is one archived recording's metadata.
type Session struct {
	ID         string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	FrameCount int       `json:"frame_count"`
	FrameTime  float64   `json:"frame_time"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordSession stores one exported BVH document with its metadata.
func (db *DB) RecordSession(id string, startedAt time.Time, frameCount int, frameTime float64, bvh string) error {
	_, err := db.Exec(
		"INSERT INTO sessions (session_id, started_at, frame_count, frame_time, bvh) VALUES (?, ?, ?, ?, ?)",
		id, startedAt, frameCount, frameTime, bvh,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// Sessions lists archived sessions, newest first, without their BVH
// payloads.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		"SELECT session_id, started_at, frame_count, frame_time, timestamp FROM sessions ORDER BY timestamp DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.FrameCount, &s.FrameTime, &s.Timestamp); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionBVH fetches one archived session's BVH document.
func (db *DB) SessionBVH(id string) (string, error) {
	var bvh string
	err := db.QueryRow("SELECT bvh FROM sessions WHERE session_id = ?", id).Scan(&bvh)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return bvh, nil
}
