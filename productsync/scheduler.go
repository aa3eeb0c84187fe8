package productsync

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler arms the retry and polling timers. Stop functions may be called
// more than once.
type Scheduler interface {
	After(d time.Duration, fn func()) (stop func())
	Every(d time.Duration, fn func()) (stop func())
}

// CronScheduler runs repeating jobs on a robfig/cron runner and one-shot
// timers on the runtime timer heap
type CronScheduler struct {
	cron *cron.Cron
}

// NewCronScheduler creates and starts the cron runner
func NewCronScheduler() *CronScheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &CronScheduler{cron: c}
}

// After runs fn once after d
func (s *CronScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Every runs fn every d (whole seconds, at least one), first run one interval from now
func (s *CronScheduler) Every(d time.Duration, fn func()) func() {
	id := s.cron.Schedule(cron.Every(d), cron.FuncJob(fn))
	return func() { s.cron.Remove(id) }
}

// Stop halts the runner; running jobs are not awaited
func (s *CronScheduler) Stop() {
	s.cron.Stop()
}
