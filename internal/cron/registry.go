package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Job is one unit of scheduled work. Name must be unique within a registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

var errNilJob = errors.New("cron job is nil")

// Registry keeps jobs in insertion order; a cycle runs them in that order.
type Registry struct {
	ordered []Job
	index   map[string]int
}

// NewRegistry registers jobs in order. Every job Register refuses is
// reported; a partially built registry is never returned.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{}
	var errs error
	for i, job := range jobs {
		if err := r.Register(job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %d: %w", i, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return errNilJob
	}
	name := strings.TrimSpace(job.Name())
	switch {
	case name == "":
		return fmt.Errorf("cron job name is blank")
	case r.has(name):
		return fmt.Errorf("cron job %q already registered", name)
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[name] = len(r.ordered)
	r.ordered = append(r.ordered, job)
	return nil
}

func (r *Registry) has(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) Lookup(name string) (Job, bool) {
	i, ok := r.index[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	return r.ordered[i], true
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.ordered...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, job := range r.ordered {
		names = append(names, job.Name())
	}
	return names
}
