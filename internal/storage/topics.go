package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertTopic adds a fresh topic to the pool and returns its assigned id.
func (s *Store) InsertTopic(text string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("topic text must not be empty")
	}
	res, err := s.db.Exec(`INSERT INTO topics (topic, usage_count) VALUES (?, 0)`, text)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SeedTopics inserts the given topic texts in order, inside one transaction.
func (s *Store) SeedTopics(texts []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	for _, text := range texts {
		if _, err := tx.Exec(`INSERT INTO topics (topic, usage_count) VALUES (?, 0)`, text); err != nil {
			tx.Rollback()
			return fmt.Errorf("seeding topic %q: %w", text, err)
		}
	}
	return tx.Commit()
}

// CountTopics returns the size of the topic pool.
func (s *Store) CountTopics() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListTopics returns all topics in insertion order.
func (s *Store) ListTopics() ([]Topic, error) {
	rows, err := s.db.Query(`SELECT id, topic, usage_count, last_used FROM topics ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTopics(rows)
}

// TopTopics returns the n most-used topics, most used first. Ties keep
// insertion order.
func (s *Store) TopTopics(n int) ([]Topic, error) {
	rows, err := s.db.Query(`
		SELECT id, topic, usage_count, last_used
		FROM topics ORDER BY usage_count DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTopics(rows)
}

// LeastUsedTopic returns the topic with the lowest usage_count, breaking ties
// by lowest id. Returns ErrNotFound on an empty pool.
func (s *Store) LeastUsedTopic() (Topic, error) {
	row := s.db.QueryRow(`
		SELECT id, topic, usage_count, last_used
		FROM topics ORDER BY usage_count ASC, id ASC LIMIT 1`)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return Topic{}, ErrNotFound
	}
	return t, err
}

// FindTopicByText returns the first topic matching text exactly.
func (s *Store) FindTopicByText(text string) (Topic, error) {
	row := s.db.QueryRow(`
		SELECT id, topic, usage_count, last_used
		FROM topics WHERE topic = ? ORDER BY id ASC LIMIT 1`, text)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return Topic{}, ErrNotFound
	}
	return t, err
}

// EnsureTopic returns the topic matching text, inserting it first if the pool
// does not contain it yet. The pool never shrinks, it only grows.
func (s *Store) EnsureTopic(text string) (Topic, error) {
	t, err := s.FindTopicByText(text)
	if err == nil {
		return t, nil
	}
	if err != ErrNotFound {
		return Topic{}, err
	}
	id, err := s.InsertTopic(text)
	if err != nil {
		return Topic{}, fmt.Errorf("inserting topic: %w", err)
	}
	return Topic{ID: id, Text: text}, nil
}

// RecordTopicUse bumps usage_count and stamps last_used in a single atomic
// statement, so concurrent uses of the same topic never lose an increment.
func (s *Store) RecordTopicUse(id int64) error {
	res, err := s.db.Exec(`
		UPDATE topics SET usage_count = usage_count + 1, last_used = ?
		WHERE id = ?`, time.Now().UTC().Format(time.RFC3339), id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (Topic, error) {
	var t Topic
	var lastUsed sql.NullString
	if err := row.Scan(&t.ID, &t.Text, &t.UsageCount, &lastUsed); err != nil {
		return Topic{}, err
	}
	if lastUsed.Valid && lastUsed.String != "" {
		ts, err := time.Parse(time.RFC3339, lastUsed.String)
		if err != nil {
			return Topic{}, fmt.Errorf("parsing last_used: %w", err)
		}
		t.LastUsed = ts
	}
	return t, nil
}

func scanTopics(rows *sql.Rows) ([]Topic, error) {
	var topics []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
