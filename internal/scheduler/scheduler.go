// Package scheduler runs unattended post generation on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/muriloWeber/linkedin-content-agent/internal/generator"
)

// sessionID isolates scheduled runs from interactive sessions so the topic
// de-dup window spans the whole process lifetime.
const sessionID = "scheduler"

// Scheduler triggers generation runs according to a cron expression.
type Scheduler struct {
	cron *cron.Cron
	gen  *generator.Service
	spec string
}

// New builds a scheduler for the given cron spec. An empty spec disables it.
func New(spec string, gen *generator.Service) *Scheduler {
	return &Scheduler{cron: cron.New(), gen: gen, spec: spec}
}

// Start registers the job and launches the cron loop. It is a no-op when the
// schedule is empty.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.spec == "" {
		return
	}
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	res, err := s.gen.GenerateAndPersist(ctx, generator.Request{SessionID: sessionID})
	if err != nil {
		slog.Error("scheduled generation failed", "error", err)
		return
	}
	slog.Info("scheduled post generated",
		"post_id", res.Post.ID,
		"title", res.Post.Title,
		"notification", res.Notification)
}
