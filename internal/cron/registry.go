package cron

import (
	"context"
	"fmt"
)

// Job is one unit of scheduled work. Run receives a context bounded by the
// service's job timeout.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

// NewJob adapts a plain function into a Job.
func NewJob(name string, fn func(context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

// Registry runs jobs in registration order and finds them by name.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry registers jobs in order, skipping nils. Two jobs sharing a
// name is a wiring mistake and panics.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{byName: map[string]Job{}}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := r.Register(job); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron: nil job")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron: job name required")
	}
	if r.byName == nil {
		r.byName = map[string]Job{}
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("cron: job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[name]
	return job, ok
}

// Jobs returns a fresh slice; callers may modify it.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
