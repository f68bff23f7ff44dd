package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// TaskScheduler is the engine's "run this at time T" primitive. Delayed
// tasks are never cancelled; consumers rely on the idempotency guards to
// make a stale firing a cheap no-op.
type TaskScheduler interface {
	After(d time.Duration, task func())
}

// GocronScheduler schedules one-shot tasks on a shared gocron scheduler.
type GocronScheduler struct {
	sched gocron.Scheduler
}

func NewGocronScheduler() (*GocronScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()
	return &GocronScheduler{sched: sched}, nil
}

func (g *GocronScheduler) After(d time.Duration, task func()) {
	_, err := g.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(d))),
		gocron.NewTask(task),
	)
	if err != nil {
		log.Printf("[Scheduler] failed to schedule task: %v", err)
	}
}

// Shutdown stops the underlying scheduler; pending tasks are dropped.
func (g *GocronScheduler) Shutdown() {
	if err := g.sched.Shutdown(); err != nil {
		log.Printf("[Scheduler] shutdown: %v", err)
	}
}
