// Package approval drives the post review state machine: pending posts are
// dispatched to a human reviewer and later moved to approved or rejected by
// explicit confirmation calls.
package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/muriloWeber/linkedin-content-agent/internal/notify"
	"github.com/muriloWeber/linkedin-content-agent/internal/obs"
	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
)

// DefaultRejectionReason is recorded when a reject call carries no reason.
const DefaultRejectionReason = "no reason given"

// PostStore is the slice of storage the workflow needs.
type PostStore interface {
	GetPost(id string) (storage.Post, error)
	ApprovePost(id string) error
	RejectPost(id, reason string) error
}

// Service exposes the approval state transitions.
type Service struct {
	store PostStore
	sink  notify.Sink
}

// NewService creates the workflow over the given store and notification sink.
func NewService(store PostStore, sink notify.Sink) *Service {
	return &Service{store: store, sink: sink}
}

// Approve moves the post to approved. Approving an already-approved post is
// accepted as a no-op success. Returns storage.ErrNotFound for unknown ids.
func (s *Service) Approve(id string) error {
	if err := s.store.ApprovePost(id); err != nil {
		return err
	}
	obs.ApprovalTransitions.WithLabelValues(storage.StatusApproved).Inc()
	return nil
}

// Reject moves the post to rejected, recording reason (or the fixed default
// when blank), and returns the reason that was recorded. Returns
// storage.ErrNotFound for unknown ids.
func (s *Service) Reject(id, reason string) (string, error) {
	if reason == "" {
		reason = DefaultRejectionReason
	}
	if err := s.store.RejectPost(id, reason); err != nil {
		return "", err
	}
	obs.ApprovalTransitions.WithLabelValues(storage.StatusRejected).Inc()
	return reason, nil
}

// Dispatch notifies the reviewer that post awaits approval. Failures are
// captured as a string result, never an error: generation is not rolled back
// because the reviewer could not be reached.
func (s *Service) Dispatch(ctx context.Context, post storage.Post) string {
	if err := s.sink.NotifyPendingPost(ctx, post); err != nil {
		obs.NotificationErrors.Inc()
		slog.Warn("reviewer notification failed", "post_id", post.ID, "error", err)
		return fmt.Sprintf("notification failed: %v", err)
	}
	return "reviewer notified"
}
