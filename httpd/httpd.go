// Package httpd implements the daemon status endpoints.
package httpd

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/triggers"
)

// Job is the reported state of a single trigger.
type Job struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Next     *time.Time `json:"next,omitempty"`
	Started  *time.Time `json:"started,omitempty"`
	Finished *time.Time `json:"finished,omitempty"`
	Error    string     `json:"error,omitempty"`
	Runs     uint       `json:"runs"`
	Failures uint       `json:"failures"`
}

// Status tracks the most recent run of each trigger.
type Status struct {
	started time.Time
	next    func(name string) (time.Time, bool)
	jobs    map[string]*Job
	order   []string
	guard   sync.RWMutex
}

// NewStatus creates a tracker for the list of triggers. 'next' (optional) supplies the next scheduled
// invocation of a trigger.
func NewStatus(list []triggers.Trigger, next func(string) (time.Time, bool)) *Status {
	s := Status{
		started: time.Now(),
		next:    next,
		jobs:    map[string]*Job{},
		order:   []string{},
	}

	for _, t := range list {
		s.jobs[t.Name] = &Job{Name: t.Name, Schedule: t.Schedule}
		s.order = append(s.order, t.Name)
	}

	return &s
}

// Record updates the state of the trigger that ran. Runs of unknown triggers are added to the list.
func (s *Status) Record(run triggers.Run) {
	s.guard.Lock()
	defer s.guard.Unlock()

	job, ok := s.jobs[run.Trigger]
	if !ok {
		job = &Job{Name: run.Trigger}
		s.jobs[run.Trigger] = job
		s.order = append(s.order, run.Trigger)
	}

	started := run.Started
	finished := run.Finished

	job.Started = &started
	job.Finished = &finished
	job.Runs++
	job.Error = ""

	if run.Err != nil {
		job.Error = run.Err.Error()
		job.Failures++
	}
}

// Jobs returns a snapshot of the tracked triggers, in registration order.
func (s *Status) Jobs() []Job {
	s.guard.RLock()
	defer s.guard.RUnlock()

	list := []Job{}
	for _, name := range s.order {
		job := *s.jobs[name]
		if s.next != nil {
			if t, ok := s.next(name); ok && !t.IsZero() {
				job.Next = &t
			}
		}

		list = append(list, job)
	}

	return list
}

// Router initialises the HTTP router for the status endpoints.
func Router(status *Status) http.Handler {
	r := chi.NewRouter()

	r.Route("/", func(r chi.Router) {
		r.Get("/healthz", healthz)
		r.Get("/status", func(w http.ResponseWriter, rq *http.Request) {
			getStatus(status, w, rq)
		})
	})

	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func getStatus(status *Status, w http.ResponseWriter, r *http.Request) {
	response := struct {
		Started time.Time `json:"started"`
		Uptime  string    `json:"uptime"`
		Jobs    []Job     `json:"jobs"`
	}{
		Started: status.started,
		Uptime:  time.Since(status.started).Round(time.Second).String(),
		Jobs:    status.Jobs(),
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Warnf("error encoding status response (%v)", err)
	}
}
