package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/muriloWeber/linkedin-content-agent/internal/composer"
	"github.com/muriloWeber/linkedin-content-agent/internal/session"
	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
)

type mockSelector struct {
	candidates []string
	calls      int
}

func (m *mockSelector) Select(_ context.Context, _ *session.Context, _ string) []string {
	m.calls++
	return m.candidates
}

type mockComposer struct {
	draft composer.Draft
	err   error
	calls int
	last  composer.Request
}

func (m *mockComposer) Compose(_ context.Context, req composer.Request) (composer.Draft, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return composer.Draft{}, m.err
	}
	return m.draft, nil
}

type mockDispatcher struct {
	posts []storage.Post
}

func (m *mockDispatcher) Dispatch(_ context.Context, post storage.Post) string {
	m.posts = append(m.posts, post)
	return "reviewer notified"
}

func newTestService(t *testing.T, comp *mockComposer, sel *mockSelector) (*Service, *storage.Store, *mockDispatcher) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.SeedTopics([]string{"Automating lead capture with AI", "Optimizing CRM with data science"}); err != nil {
		t.Fatalf("SeedTopics failed: %v", err)
	}
	dispatcher := &mockDispatcher{}
	svc := NewService(store, sel, comp, dispatcher, session.NewRegistry(), 1)
	return svc, store, dispatcher
}

func TestGenerateAndPersistSuccess(t *testing.T) {
	comp := &mockComposer{draft: composer.Draft{
		Title:    "Why CRM data is your best asset",
		Content:  "Most teams sit on gold.",
		Hashtags: []string{"#CRM", "#AI"},
	}}
	sel := &mockSelector{candidates: []string{"CRM data quality"}}
	svc, store, dispatcher := newTestService(t, comp, sel)

	res, err := svc.GenerateAndPersist(context.Background(), Request{})
	if err != nil {
		t.Fatalf("GenerateAndPersist failed: %v", err)
	}

	if comp.calls != 1 {
		t.Errorf("expected 1 compose call, got %d", comp.calls)
	}
	if comp.last.Topic != "CRM data quality" {
		t.Errorf("expected selector topic to reach composer, got %q", comp.last.Topic)
	}
	if comp.last.Tone != defaultTone || comp.last.TargetLength != defaultLength || comp.last.CallToAction != defaultCallToAction {
		t.Errorf("defaults not applied: %+v", comp.last)
	}
	if res.Post.Status != storage.StatusPending {
		t.Errorf("expected pending status, got %q", res.Post.Status)
	}
	if res.Notification != "reviewer notified" {
		t.Errorf("unexpected notification result: %q", res.Notification)
	}

	stored, err := store.GetPost(res.Post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if stored.Title != comp.draft.Title || stored.Content != comp.draft.Content {
		t.Errorf("stored post differs from draft: %+v", stored)
	}
	if len(dispatcher.posts) != 1 || dispatcher.posts[0].ID != res.Post.ID {
		t.Errorf("expected one dispatch for post %s, got %+v", res.Post.ID, dispatcher.posts)
	}
}

func TestGenerateExplicitTopicSkipsSelector(t *testing.T) {
	comp := &mockComposer{draft: composer.Draft{Title: "t", Content: "c", Hashtags: []string{"#x"}}}
	sel := &mockSelector{candidates: []string{"should not be used"}}
	svc, _, _ := newTestService(t, comp, sel)

	_, err := svc.GenerateAndPersist(context.Background(), Request{Topic: "AI in retail CRM"})
	if err != nil {
		t.Fatalf("GenerateAndPersist failed: %v", err)
	}
	if sel.calls != 0 {
		t.Errorf("selector should not run for explicit topics, got %d calls", sel.calls)
	}
	if comp.last.Topic != "AI in retail CRM" {
		t.Errorf("expected explicit topic, got %q", comp.last.Topic)
	}
}

func TestGenerateTransientErrorRetriesThenFallsBack(t *testing.T) {
	comp := &mockComposer{err: errors.New("backend returned status 503: overloaded")}
	sel := &mockSelector{candidates: []string{"some topic"}}
	svc, store, _ := newTestService(t, comp, sel)

	res, err := svc.GenerateAndPersist(context.Background(), Request{})
	if err != nil {
		t.Fatalf("GenerateAndPersist failed: %v", err)
	}
	if comp.calls != maxAttempts {
		t.Errorf("expected %d compose attempts, got %d", maxAttempts, comp.calls)
	}

	// Fallback takes the least-used stored topic as title and keeps the post
	// flowing through the normal pending pipeline.
	if res.Post.Title != "Automating lead capture with AI" {
		t.Errorf("expected least-used topic as fallback title, got %q", res.Post.Title)
	}
	if res.Post.Status != storage.StatusPending {
		t.Errorf("expected pending status, got %q", res.Post.Status)
	}
	if len(res.Post.Hashtags) != len(composer.DefaultHashtags) {
		t.Errorf("expected default hashtags on fallback, got %v", res.Post.Hashtags)
	}

	stored, err := store.GetPost(res.Post.ID)
	if err != nil {
		t.Fatalf("fallback post not persisted: %v", err)
	}
	if stored.Title != res.Post.Title {
		t.Errorf("stored fallback differs: %+v", stored)
	}
}

func TestGenerateNonTransientErrorFallsBackImmediately(t *testing.T) {
	comp := &mockComposer{err: errors.New("backend returned status 400: bad request")}
	sel := &mockSelector{}
	svc, _, _ := newTestService(t, comp, sel)

	res, err := svc.GenerateAndPersist(context.Background(), Request{})
	if err != nil {
		t.Fatalf("GenerateAndPersist failed: %v", err)
	}
	if comp.calls != 1 {
		t.Errorf("non-transient errors must not retry, got %d attempts", comp.calls)
	}
	if res.Post.Status != storage.StatusPending {
		t.Errorf("expected pending status, got %q", res.Post.Status)
	}
}

func TestGenerateRecordsTopicUsageAndSession(t *testing.T) {
	comp := &mockComposer{draft: composer.Draft{Title: "A title", Content: "c", Hashtags: []string{"#x"}}}
	sel := &mockSelector{candidates: []string{"Brand new topic"}}
	svc, store, _ := newTestService(t, comp, sel)

	if _, err := svc.GenerateAndPersist(context.Background(), Request{SessionID: "s1"}); err != nil {
		t.Fatalf("GenerateAndPersist failed: %v", err)
	}

	topic, err := store.FindTopicByText("Brand new topic")
	if err != nil {
		t.Fatalf("consumed topic was not added to the pool: %v", err)
	}
	if topic.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", topic.UsageCount)
	}

	sess := svc.sessions.Get("s1")
	if !sess.WasUsed("Brand new topic") || !sess.WasUsed("A title") {
		t.Errorf("session should record topic and title, used = %v", sess.Used())
	}
}

func TestGenerateSessionDedupAcrossCalls(t *testing.T) {
	comp := &mockComposer{draft: composer.Draft{Title: "t", Content: "c", Hashtags: []string{"#x"}}}
	sel := &mockSelector{candidates: []string{"topic one", "topic two"}}
	svc, _, _ := newTestService(t, comp, sel)

	if _, err := svc.GenerateAndPersist(context.Background(), Request{SessionID: "s"}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if comp.last.Topic != "topic one" {
		t.Fatalf("expected first candidate, got %q", comp.last.Topic)
	}
	if _, err := svc.GenerateAndPersist(context.Background(), Request{SessionID: "s"}); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if comp.last.Topic != "topic two" {
		t.Errorf("expected second candidate after dedup, got %q", comp.last.Topic)
	}

	// All candidates consumed: the controller falls back to the fixed topic.
	if _, err := svc.GenerateAndPersist(context.Background(), Request{SessionID: "s"}); err != nil {
		t.Fatalf("third call failed: %v", err)
	}
	if comp.last.Topic != backstopTopic {
		t.Errorf("expected backstop topic, got %q", comp.last.Topic)
	}
}

func TestDefaultBackoffAndAttempts(t *testing.T) {
	if maxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", maxAttempts)
	}
	if defaultBackoff.Seconds() != 2 {
		t.Errorf("expected 2s backoff, got %v", defaultBackoff)
	}
}
