package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Post lifecycle statuses. A post starts pending and moves to approved or
// rejected via the approval workflow; terminal statuses never revert to
// pending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Topic is a candidate subject for generated posts. The pool is seeded at
// startup and never shrinks; usage_count and last_used are updated each time
// a topic backs a generated post.
type Topic struct {
	ID         int64
	Text       string
	UsageCount int
	LastUsed   time.Time // zero until first use
}

// Post is a generated LinkedIn draft moving through the approval workflow.
type Post struct {
	ID              string
	SessionID       string
	Title           string
	Content         string
	Hashtags        []string
	Status          string
	RejectionReason string // set iff Status == StatusRejected
	CreatedAt       time.Time
}
