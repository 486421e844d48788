package triggers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is the procedure invoked by a trigger.
type Job func(ctx context.Context) error

// Run describes a single invocation of a triggered job.
type Run struct {
	Trigger  string
	Started  time.Time
	Finished time.Time
	Err      error
}

// Cron is an in-process trigger facility. A trigger that is still running when it next fires is skipped,
// so a job never overlaps with itself.
type Cron struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	jobs     map[string]Job
	entries  map[string]cron.EntryID
	triggers map[string]Trigger
	listener func(Run)
	log      logrus.FieldLogger
	guard    sync.Mutex
}

// NewCron creates a scheduler for the named jobs. 'listener' (optional) is invoked after every run.
func NewCron(location *time.Location, jobs map[string]Job, listener func(Run), log logrus.FieldLogger) *Cron {
	if log == nil {
		log = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(log)

	return &Cron{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		ctx:      ctx,
		cancel:   cancel,
		jobs:     jobs,
		entries:  map[string]cron.EntryID{},
		triggers: map[string]Trigger{},
		listener: listener,
		log:      log,
	}
}

func (c *Cron) Register(t Trigger) error {
	if err := validate(t); err != nil {
		return err
	}

	job, ok := c.jobs[t.Name]
	if !ok {
		return fmt.Errorf("no job for trigger '%v'", t.Name)
	}

	c.guard.Lock()
	defer c.guard.Unlock()

	id, err := c.cron.AddFunc(t.Schedule, func() { c.run(t.Name, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule '%v' for %v (%w)", t.Schedule, t.Name, err)
	}

	if existing, ok := c.entries[t.Name]; ok {
		c.cron.Remove(existing)
	}

	c.entries[t.Name] = id
	c.triggers[t.Name] = t

	return nil
}

func (c *Cron) Triggers() []Trigger {
	c.guard.Lock()
	defer c.guard.Unlock()

	return sorted(c.triggers)
}

// Next returns the next scheduled invocation of the named trigger.
func (c *Cron) Next(name string) (time.Time, bool) {
	c.guard.Lock()
	defer c.guard.Unlock()

	if id, ok := c.entries[name]; ok {
		return c.cron.Entry(id).Next, true
	}

	return time.Time{}, false
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop stops the scheduler, cancels any running jobs and waits for them to finish or for the context to
// expire.
func (c *Cron) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	c.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger runs the named job immediately, outside of its schedule.
func (c *Cron) Trigger(name string) error {
	job, ok := c.jobs[name]
	if !ok {
		return fmt.Errorf("no job for trigger '%v'", name)
	}

	c.run(name, job)

	return nil
}

func (c *Cron) run(name string, job Job) {
	run := Run{
		Trigger: name,
		Started: time.Now(),
	}

	c.log.Infof("%v: started", name)

	run.Err = job(c.ctx)
	run.Finished = time.Now()

	if run.Err != nil {
		c.log.Warnf("%v: %v", name, run.Err)
	} else {
		c.log.Infof("%v: completed in %v", name, run.Finished.Sub(run.Started).Round(time.Millisecond))
	}

	if c.listener != nil {
		c.listener(run)
	}
}
