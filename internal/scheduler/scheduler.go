// Package scheduler wires up the cron job that periodically re-runs a
// complete scrape. Each run starts from the top of the listing.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one complete scrape.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the scrape loop.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 6h"
	job    Job
	logger *slog.Logger

	// running guards against the startup run overlapping the first tick
	running sync.Mutex
	// startup tracks the immediate run, which cron does not know about
	startup sync.WaitGroup
}

// New validates spec and builds a Scheduler. Overlapping runs are skipped.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

// Start registers the job and starts the scheduler. Also runs one scrape
// immediately so the archive is written without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", "spec", s.spec)

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.run(ctx)
	}()
	return nil
}

// Stop waits for a running scrape to finish, including the startup run.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.TryLock() {
		s.logger.Warn("Previous scrape still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled scrape failed", "err", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
