// Package schedule runs the board repair pass on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/switchyard/internal/notify"
	"github.com/zulandar/switchyard/internal/project"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Opts configures a Scheduler.
type Opts struct {
	Expr     string // 5-field cron expression
	Workers  int
	Notifier notify.Notifier // nil disables notifications
}

// Scheduler runs project.Repair on each tick of a cron schedule.
type Scheduler struct {
	db   *gorm.DB
	opts Opts
	c    *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
}

// New validates the expression and returns a stopped scheduler.
func New(db *gorm.DB, opts Opts) (*Scheduler, error) {
	if db == nil {
		return nil, fmt.Errorf("schedule: db is required")
	}
	if _, err := cronParser.Parse(opts.Expr); err != nil {
		return nil, fmt.Errorf("schedule: parse %q: %w", opts.Expr, err)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	s := &Scheduler{
		db:   db,
		opts: opts,
		c:    cron.New(cron.WithParser(cronParser), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
	s.ctx, s.stop = context.WithCancel(context.Background())
	if _, err := s.c.AddFunc(opts.Expr, func() { s.RunOnce(s.ctx) }); err != nil {
		return nil, fmt.Errorf("schedule: add %q: %w", opts.Expr, err)
	}
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.c.Start()
	log.Printf("schedule: repair scheduled %q, next in %s", s.opts.Expr, NextRun(s.opts.Expr).Round(time.Second))
}

// Stop cancels a running pass and waits for it to return.
func (s *Scheduler) Stop() {
	s.stop()
	<-s.c.Stop().Done()
}

// RunOnce performs one repair pass and notifies when anything changed.
func (s *Scheduler) RunOnce(ctx context.Context) (*project.RepairResult, error) {
	result, err := project.Repair(ctx, s.db, project.RepairOpts{Workers: s.opts.Workers})
	if err != nil {
		log.Printf("schedule: repair failed: %v", err)
		return nil, err
	}
	if msg, ok := notify.FromRepair(result); ok {
		if err := s.opts.Notifier.Notify(ctx, msg); err != nil {
			log.Printf("schedule: notify: %v", err)
		}
	}
	return result, nil
}

// NextRun parses a 5-field cron expression and returns the duration until
// the next fire time. Returns 0 on parse error.
func NextRun(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}
