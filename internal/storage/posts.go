package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreatePost inserts a new post. Hashtags are stored as a JSON array in a
// text column; they are decoded with a real JSON parser on the way out, never
// evaluated.
func (s *Store) CreatePost(p Post) error {
	tags, err := encodeHashtags(p.Hashtags)
	if err != nil {
		return fmt.Errorf("encoding hashtags: %w", err)
	}
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	_, err = s.db.Exec(`
		INSERT INTO posts (id, session_id, title, content, hashtags, status, rejection_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SessionID, p.Title, p.Content, tags, status, p.RejectionReason,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetPost returns the post with the given id, or ErrNotFound.
func (s *Store) GetPost(id string) (Post, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, title, content, hashtags, status, rejection_reason, created_at
		FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return Post{}, ErrNotFound
	}
	return p, err
}

// ListPosts returns the most recent posts, newest first.
func (s *Store) ListPosts(limit int) ([]Post, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, title, content, hashtags, status, rejection_reason, created_at
		FROM posts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ApprovePost marks the post approved. Re-approving an already-approved post
// is a no-op success. Returns ErrNotFound if the id does not exist.
func (s *Store) ApprovePost(id string) error {
	res, err := s.db.Exec(`UPDATE posts SET status = ?, rejection_reason = '' WHERE id = ?`, StatusApproved, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectPost marks the post rejected with the given reason. Returns
// ErrNotFound if the id does not exist.
func (s *Store) RejectPost(id, reason string) error {
	res, err := s.db.Exec(`UPDATE posts SET status = ?, rejection_reason = ? WHERE id = ?`, StatusRejected, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostCreationTimes returns created_at for every post, in insertion order.
// The metrics aggregator buckets these by ISO week.
func (s *Store) PostCreationTimes() ([]time.Time, error) {
	rows, err := s.db.Query(`SELECT created_at FROM posts ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func encodeHashtags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeHashtags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding hashtags: %w", err)
	}
	return tags, nil
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var tags, createdAt string
	if err := row.Scan(&p.ID, &p.SessionID, &p.Title, &p.Content, &tags, &p.Status, &p.RejectionReason, &createdAt); err != nil {
		return Post{}, err
	}
	decoded, err := decodeHashtags(tags)
	if err != nil {
		return Post{}, err
	}
	p.Hashtags = decoded
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Post{}, fmt.Errorf("parsing created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}
