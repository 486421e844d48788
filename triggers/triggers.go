// Package triggers registers the time-based triggers that invoke the post synchronizer and the row pruner.
package triggers

import (
	"fmt"
	"sort"
	"strings"
)

const (
	SyncPosts = "sync-posts"
	PruneRows = "prune-rows"
)

// Trigger is a named procedure and the standard 5 field cron schedule that invokes it.
type Trigger struct {
	Name     string
	Schedule string
}

func (t Trigger) String() string {
	return fmt.Sprintf("%-9s  %s", t.Schedule, t.Name)
}

// Scheduler is a trigger facility. Registering a trigger with the name of an existing trigger replaces the
// existing trigger.
type Scheduler interface {
	Register(trigger Trigger) error
	Triggers() []Trigger
}

// Defaults returns the sync trigger (every 'interval' hours, on the hour) and the prune trigger (daily at
// 'hour' o'clock).
func Defaults(interval, hour int) ([]Trigger, error) {
	if interval < 1 || interval > 24 {
		return nil, fmt.Errorf("invalid sync interval %v - expected 1 to 24 hours", interval)
	}

	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid prune hour %v - expected 0 to 23", hour)
	}

	sync := "0 * * * *"
	switch {
	case interval == 24:
		sync = "0 0 * * *"
	case interval > 1:
		sync = fmt.Sprintf("0 */%d * * *", interval)
	}

	return []Trigger{
		{Name: SyncPosts, Schedule: sync},
		{Name: PruneRows, Schedule: fmt.Sprintf("0 %d * * *", hour)},
	}, nil
}

// Registrar installs the default triggers with a scheduler.
type Registrar struct {
	Scheduler         Scheduler
	SyncIntervalHours int
	PruneHourOfDay    int
}

func (r Registrar) Setup() ([]Trigger, error) {
	list, err := Defaults(r.SyncIntervalHours, r.PruneHourOfDay)
	if err != nil {
		return nil, err
	}

	for _, t := range list {
		if err := r.Scheduler.Register(t); err != nil {
			return nil, fmt.Errorf("error registering %v trigger (%w)", t.Name, err)
		}
	}

	return list, nil
}

func sorted(m map[string]Trigger) []Trigger {
	list := []Trigger{}
	for _, t := range m {
		list = append(list, t)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	return list
}

func validate(t Trigger) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("trigger has no name")
	}

	if len(strings.Fields(t.Schedule)) != 5 {
		return fmt.Errorf("invalid schedule '%v' for %v - expected 5 fields", t.Schedule, t.Name)
	}

	return nil
}
