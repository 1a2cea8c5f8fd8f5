// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/blogicum/internal/store"
)

// Default schedules.
const (
	GoLiveSchedule   = "* * * * *"
	OptimizeSchedule = "@hourly"
)

// Invalidator drops cached data that depends on which posts are visible.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string
	Schedule string
	LastRun  time.Time
	NextRun  time.Time
}

type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
}

// Scheduler watches for scheduled posts going live and keeps SQLite
// statistics fresh.
type Scheduler struct {
	db          *sql.DB
	driver      string
	invalidator Invalidator
	cron        *cron.Cron
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	lastScan time.Time
	jobs     []job
}

// New creates a new scheduler instance. invalidator may be nil.
func New(db *sql.DB, driver string, invalidator Invalidator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:          db,
		driver:      driver,
		invalidator: invalidator,
		cron:        cron.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.lastScan = s.now()
	s.mu.Unlock()

	if err := s.add("posts-go-live", GoLiveSchedule, func() {
		if err := s.checkGoingLive(context.Background()); err != nil {
			s.logger.Error("failed to check scheduled posts", "error", err)
		}
	}); err != nil {
		return err
	}

	if s.driver != store.DriverMySQL {
		if err := s.add("db-optimize", OptimizeSchedule, func() {
			if err := store.Optimize(s.db, s.driver); err != nil {
				s.logger.Error("failed to optimize database", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

func (s *Scheduler) add(name, schedule string, fn func()) error {
	id, err := s.cron.AddFunc(schedule, fn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job{name: name, schedule: schedule, entryID: id})
	s.mu.Unlock()
	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// checkGoingLive invalidates cached listings when a published post's
// pub_date passed since the previous scan.
func (s *Scheduler) checkGoingLive(ctx context.Context) error {
	s.mu.Lock()
	since := s.lastScan
	now := s.now()
	s.mu.Unlock()

	n, err := store.New(s.db).CountPostsGoingLive(ctx, since, now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastScan = now
	s.mu.Unlock()

	if n == 0 {
		return nil
	}

	s.logger.Info("scheduled posts went live", "count", n)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	return nil
}
