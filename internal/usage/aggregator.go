// Package usage derives read-only metrics from the persisted posts and
// topics: time-bucketed post counts and the most popular topics.
package usage

import (
	"fmt"
	"time"

	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
)

const topTopicCount = 5

// Report is the metrics payload served by GET /metrics.
type Report struct {
	PostsPerWeek  map[string]int `json:"posts_per_week"`
	PopularTopics []string       `json:"popular_topics"`
}

// Store is the slice of storage the aggregator reads.
type Store interface {
	PostCreationTimes() ([]time.Time, error)
	TopTopics(n int) ([]storage.Topic, error)
}

// Aggregator computes usage metrics on demand. It has no side effects.
type Aggregator struct {
	store Store
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Compute buckets post counts by ISO week of year and lists the top five
// topics by usage, ties keeping the pool's insertion order.
func (a *Aggregator) Compute() (Report, error) {
	times, err := a.store.PostCreationTimes()
	if err != nil {
		return Report{}, fmt.Errorf("reading post timestamps: %w", err)
	}

	perWeek := make(map[string]int)
	for _, t := range times {
		_, week := t.ISOWeek()
		perWeek[fmt.Sprintf("%02d", week)]++
	}

	top, err := a.store.TopTopics(topTopicCount)
	if err != nil {
		return Report{}, fmt.Errorf("reading top topics: %w", err)
	}

	popular := make([]string, 0, len(top))
	for _, t := range top {
		popular = append(popular, t.Text)
	}

	return Report{PostsPerWeek: perWeek, PopularTopics: popular}, nil
}
