package cron

import (
	"context"
	"errors"
	"testing"
)

func noop(context.Context) error { return nil }

func TestRegistryKeepsOrderAndLooksUp(t *testing.T) {
	sweep := NewJob("overdue-sweep", noop)
	report := NewJob("stock-report", noop)
	registry := NewRegistry(sweep, nil, report)

	names := registry.Names()
	if len(names) != 2 || names[0] != "overdue-sweep" || names[1] != "stock-report" {
		t.Fatalf("unexpected names %v", names)
	}
	if job, ok := registry.Lookup("stock-report"); !ok || job.Name() != "stock-report" {
		t.Fatalf("lookup failed: %v %v", job, ok)
	}
	if _, ok := registry.Lookup("missing"); ok {
		t.Fatalf("expected unknown job lookup to fail")
	}

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("Jobs leaked internal state")
	}
}

func TestRegistryRejectsDuplicatesAndBlankNames(t *testing.T) {
	registry := NewRegistry(NewJob("overdue-sweep", noop))
	if err := registry.Register(NewJob("overdue-sweep", noop)); err == nil {
		t.Fatalf("expected duplicate name to fail")
	}
	if err := registry.Register(NewJob("", noop)); err == nil {
		t.Fatalf("expected blank name to fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil job to fail")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected NewRegistry to panic on duplicate names")
		}
	}()
	NewRegistry(NewJob("a", noop), NewJob("a", noop))
}

func TestNewJobRunsFunction(t *testing.T) {
	want := errors.New("boom")
	job := NewJob("failing", func(context.Context) error { return want })
	if err := job.Run(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected wrapped function error, got %v", err)
	}
}
