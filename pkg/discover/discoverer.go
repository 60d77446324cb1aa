package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Policy controls what happens when a module fails to load.
type Policy int

const (
	// Strict stops the run at the first load error.
	Strict Policy = iota
	// BestEffort logs load errors and skips the failing module.
	BestEffort
)

// Module is a loaded module with its path relative to the source root.
type Module struct {
	Path  string
	Value any
}

// HandlerFunc receives every module matched by a task.
type HandlerFunc func(ctx context.Context, m Module) error

type task struct {
	pattern string
	onEach  HandlerFunc
}

// Discoverer queues glob searches and runs them strictly in order.
type Discoverer struct {
	src    Source
	policy Policy
	logger *slog.Logger

	mu    sync.Mutex
	tasks []task
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithPolicy sets the load error policy. Defaults to Strict.
func WithPolicy(p Policy) Option {
	return func(d *Discoverer) { d.policy = p }
}

// WithLogger sets the logger used for discovered and skipped modules.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Discoverer reading from src.
func New(src Source, opts ...Option) *Discoverer {
	d := &Discoverer{
		src:    src,
		policy: Strict,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Source returns the underlying source.
func (d *Discoverer) Source() Source { return d.src }

// Enqueue appends one task per pattern. Tasks run in the order they were
// enqueued, across calls.
func (d *Discoverer) Enqueue(patterns []string, onEach HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range patterns {
		d.tasks = append(d.tasks, task{pattern: p, onEach: onEach})
	}
}

// Pending returns the number of queued tasks.
func (d *Discoverer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// Run drains the queue. For every task it globs the pattern, loads each match
// in path order and passes non-nil modules to the task handler.
// Handler errors always stop the run; load errors stop it under Strict.
func (d *Discoverer) Run(ctx context.Context) error {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Discoverer) runTask(ctx context.Context, t task) error {
	paths, err := d.src.Glob(t.pattern)
	if err != nil {
		return err
	}

	for _, p := range paths {
		v, err := d.src.Load(ctx, p)
		if err != nil {
			err = errors.Join(ErrLoadFailed, fmt.Errorf("path %q: %w", p, err))
			if d.policy == Strict {
				return err
			}
			d.logger.WarnContext(ctx, "skipping module", slog.String("path", p), slog.Any("error", err))
			continue
		}
		if v == nil {
			continue
		}

		d.logger.DebugContext(ctx, "found module", slog.String("path", p), slog.String("pattern", t.pattern))

		if t.onEach == nil {
			continue
		}
		if err := t.onEach(ctx, Module{Path: p, Value: v}); err != nil {
			return fmt.Errorf("module %q: %w", p, err)
		}
	}
	return nil
}
