// Package topics picks non-repeated post topics, asking the generation
// backend for fresh ideas and falling back to a fixed list when the backend
// is unavailable.
package topics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/muriloWeber/linkedin-content-agent/internal/llm"
	"github.com/muriloWeber/linkedin-content-agent/internal/session"
)

// DefaultAreas is the interest area used when a request does not name one.
const DefaultAreas = "Data Science, CRM and AI"

// FallbackTopics is returned when the backend cannot produce ideas. It also
// seeds the topic pool on first startup.
var FallbackTopics = []string{
	"Automating lead capture with AI",
	"Optimizing CRM with data science",
	"AI trends to watch this year",
	"Customer experience powered by AI",
}

const ideaSystemPrompt = `You are a content idea generator for LinkedIn, focused on %s, with a strong consulting tone.
Generate 5 post topic ideas that are innovative, practical and engaging.
Consider themes such as: CRM KPI tips, new AI trends, AI applications in CRM, data science applications in CRM, how data science drives revenue and profit, process automation, customer personalization, AI ethics, MLOps, data storytelling.
Reply with only the topic titles, one per line, without numbering or bullets.`

// Selector asks the generation backend for candidate topics, avoiding the
// ones a session already consumed.
type Selector struct {
	backend llm.Completer
}

// NewSelector creates a Selector on top of the given backend.
func NewSelector(backend llm.Completer) *Selector {
	return &Selector{backend: backend}
}

// Select returns candidate topics for the session, most relevant first.
// Backend failures are swallowed: the fixed fallback list is returned and the
// error is only logged. Dedup against already-used topics is per-session.
func (s *Selector) Select(ctx context.Context, sess *session.Context, areaOfInterest string) []string {
	if areaOfInterest == "" {
		areaOfInterest = DefaultAreas
	}

	user := "Please generate the topic ideas now."
	if used := sess.Used(); len(used) > 0 {
		user = fmt.Sprintf("Please generate the topic ideas now. Avoid these topics, they were already covered in this conversation:\n%s", strings.Join(used, "\n"))
	}

	raw, err := s.backend.Complete(ctx, fmt.Sprintf(ideaSystemPrompt, areaOfInterest), user)
	if err != nil {
		slog.Warn("topic generation failed, using fallback list", "error", err)
		return append([]string(nil), FallbackTopics...)
	}

	candidates := parseTopicLines(raw)
	if len(candidates) == 0 {
		slog.Warn("topic generation returned no usable lines, using fallback list")
		return append([]string(nil), FallbackTopics...)
	}

	fresh := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !sess.WasUsed(c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return candidates
	}
	return fresh
}

// SeedPool returns exactly n topic texts for startup seeding. It asks the
// backend for candidates and replicates or truncates the result to n,
// falling back to the fixed list when the backend is down.
func (s *Selector) SeedPool(ctx context.Context, n int) []string {
	raw, err := s.backend.Complete(ctx,
		fmt.Sprintf(ideaSystemPrompt, DefaultAreas),
		fmt.Sprintf("Please generate %d topic ideas now.", n))

	candidates := FallbackTopics
	if err != nil {
		slog.Warn("seed topic generation failed, replicating fallback list", "error", err)
	} else if parsed := parseTopicLines(raw); len(parsed) > 0 {
		candidates = parsed
	}

	out := make([]string, n)
	for i := range out {
		out[i] = candidates[i%len(candidates)]
	}
	return out
}

// parseTopicLines splits newline-delimited plain-text topics, dropping blank
// lines and stray list markers.
func parseTopicLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
