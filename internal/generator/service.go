// Package generator orchestrates the full post pipeline: topic selection,
// composition, persistence and reviewer dispatch, wrapped in a bounded retry
// policy with a deterministic fallback. From the caller's perspective a
// generation request always yields a persisted pending post.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"

	"github.com/muriloWeber/linkedin-content-agent/internal/composer"
	"github.com/muriloWeber/linkedin-content-agent/internal/llm"
	"github.com/muriloWeber/linkedin-content-agent/internal/obs"
	"github.com/muriloWeber/linkedin-content-agent/internal/session"
	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
)

const (
	// maxAttempts bounds the composer pipeline, counting the first try.
	maxAttempts = 3
	// defaultBackoff is the fixed wait between transient-failure retries.
	defaultBackoff = 2 * time.Second

	// DefaultTopic marks a request that wants the selector to pick.
	DefaultTopic        = "A relevant topic about Data Science, CRM or AI."
	defaultTone         = "professional and direct"
	defaultLength       = 1000
	defaultCallToAction = "What do you think? Share your opinion!"
	defaultSessionID    = "default"

	// backstopTopic is used when the selector yields nothing fresh.
	backstopTopic = "Practical AI applications in CRM for small and mid-sized businesses"
)

// Request is one inbound generation request. Zero values take defaults.
type Request struct {
	Topic        string
	Tone         string
	Length       int
	CallToAction string
	SessionID    string
}

func (r *Request) applyDefaults() {
	if r.Topic == "" {
		r.Topic = DefaultTopic
	}
	if r.Tone == "" {
		r.Tone = defaultTone
	}
	if r.Length <= 0 {
		r.Length = defaultLength
	}
	if r.CallToAction == "" {
		r.CallToAction = defaultCallToAction
	}
	if r.SessionID == "" {
		r.SessionID = defaultSessionID
	}
}

// Result carries the persisted post and the reviewer dispatch outcome.
type Result struct {
	Post         storage.Post
	Notification string
}

// Store is the slice of storage the controller needs.
type Store interface {
	CreatePost(storage.Post) error
	EnsureTopic(text string) (storage.Topic, error)
	RecordTopicUse(id int64) error
	LeastUsedTopic() (storage.Topic, error)
}

// TopicSource picks candidate topics for a session.
type TopicSource interface {
	Select(ctx context.Context, sess *session.Context, areaOfInterest string) []string
}

// PostComposer turns a topic plus style parameters into a draft.
type PostComposer interface {
	Compose(ctx context.Context, req composer.Request) (composer.Draft, error)
}

// Dispatcher notifies the reviewer about a pending post.
type Dispatcher interface {
	Dispatch(ctx context.Context, post storage.Post) string
}

// Service is the retry/fallback controller.
type Service struct {
	store     Store
	selector  TopicSource
	composer  PostComposer
	approvals Dispatcher
	sessions  *session.Registry
	backoff   time.Duration
	now       func() time.Time
}

// NewService wires the controller. A backoff <= 0 takes the 2s default.
func NewService(store Store, selector TopicSource, comp PostComposer, approvals Dispatcher, sessions *session.Registry, backoff time.Duration) *Service {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Service{
		store:     store,
		selector:  selector,
		composer:  comp,
		approvals: approvals,
		sessions:  sessions,
		backoff:   backoff,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type attemptResult struct {
	topic string
	draft composer.Draft
}

// GenerateAndPersist runs the pipeline and always hands back a persisted
// pending post. Transient backend failures ("503"-style overload) are retried
// up to three attempts with a fixed backoff; any other failure, or exhausted
// retries, switches to the deterministic fallback post. Only a storage
// failure surfaces as an error.
func (s *Service) GenerateAndPersist(ctx context.Context, req Request) (Result, error) {
	obs.GenerationRequests.Inc()
	start := time.Now()
	defer func() { obs.GenerationDuration.Observe(time.Since(start).Seconds()) }()

	req.applyDefaults()
	sess := s.sessions.Get(req.SessionID)

	policy := retrypolicy.NewBuilder[attemptResult]().
		HandleIf(func(_ attemptResult, err error) bool { return err != nil && llm.IsTransient(err) }).
		WithDelay(s.backoff).
		WithMaxRetries(maxAttempts - 1).
		Build()

	res, err := failsafe.With(policy).WithContext(ctx).Get(func() (attemptResult, error) {
		return s.attempt(ctx, sess, req)
	})
	if err != nil {
		slog.Warn("generation failed, using fallback post", "session_id", sess.ID, "error", err)
		res = s.fallback(req)
		obs.GenerationFallbacks.Inc()
	}

	post := storage.Post{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Title:     res.draft.Title,
		Content:   res.draft.Content,
		Hashtags:  res.draft.Hashtags,
		Status:    storage.StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePost(post); err != nil {
		return Result{}, fmt.Errorf("persisting post: %w", err)
	}

	s.recordUsage(res.topic)
	sess.MarkUsed(res.topic)
	sess.MarkUsed(post.Title)

	notification := s.approvals.Dispatch(ctx, post)
	return Result{Post: post, Notification: notification}, nil
}

// attempt resolves the topic (delegating to the selector for generic
// requests) and composes a draft. Composer errors propagate so the retry
// policy can classify them.
func (s *Service) attempt(ctx context.Context, sess *session.Context, req Request) (attemptResult, error) {
	topic := req.Topic
	if isGenericTopic(topic) {
		topic = backstopTopic
		for _, c := range s.selector.Select(ctx, sess, "") {
			if !sess.WasUsed(c) {
				topic = c
				break
			}
		}
	}

	draft, err := s.composer.Compose(ctx, composer.Request{
		Topic:        topic,
		Tone:         req.Tone,
		TargetLength: req.Length,
		CallToAction: req.CallToAction,
	})
	if err != nil {
		outcome := "error"
		if llm.IsTransient(err) {
			outcome = "transient_error"
		}
		obs.GenerationAttempts.WithLabelValues(outcome).Inc()
		return attemptResult{}, err
	}

	obs.GenerationAttempts.WithLabelValues("success").Inc()
	return attemptResult{topic: topic, draft: draft}, nil
}

// fallback synthesizes a deterministic post from the least-used stored topic.
func (s *Service) fallback(req Request) attemptResult {
	topicText := backstopTopic
	if t, err := s.store.LeastUsedTopic(); err == nil {
		topicText = t.Text
	} else {
		slog.Warn("least-used topic lookup failed", "error", err)
	}

	return attemptResult{
		topic: topicText,
		draft: composer.Draft{
			Title: topicText,
			Content: fmt.Sprintf(
				"%s keeps coming up in conversations with clients, and for good reason: done well, it turns data you already have into revenue you are leaving on the table.\n\n%s",
				topicText, req.CallToAction),
			Hashtags: append([]string(nil), composer.DefaultHashtags...),
		},
	}
}

// recordUsage bumps the consumed topic's counters, growing the pool when the
// backend invented a topic the store has not seen. Usage bookkeeping never
// fails the request.
func (s *Service) recordUsage(topicText string) {
	t, err := s.store.EnsureTopic(topicText)
	if err != nil {
		slog.Warn("topic usage bookkeeping failed", "topic", topicText, "error", err)
		return
	}
	if err := s.store.RecordTopicUse(t.ID); err != nil {
		slog.Warn("topic usage increment failed", "topic_id", t.ID, "error", err)
	}
}

func isGenericTopic(topic string) bool {
	t := strings.ToLower(strings.TrimSpace(topic))
	return t == "" || strings.Contains(t, "relevant topic")
}
