package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/thruflo/snapview/internal/logging"
)

// Result describes a finished action run.
type Result struct {
	ID   string
	Name string
	Err  error
}

// Runner fires commands on behalf of a surface. At most one run per
// action name is in flight at a time.
type Runner struct {
	mu       sync.Mutex
	inflight map[string]string // name -> run id
	wg       sync.WaitGroup
	results  chan Result
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{
		inflight: make(map[string]string),
		results:  make(chan Result, 16),
	}
}

// Results returns a channel that receives finished runs. Results are
// dropped when nobody reads them.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// InFlight reports whether an action with the given name is running.
func (r *Runner) InFlight(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[name]
	return ok
}

func (r *Runner) acquire(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.inflight[name]; ok {
		return id, fmt.Errorf("%s: %w", name, ErrInFlight)
	}
	id := uuid.NewString()
	r.inflight[name] = id
	return id, nil
}

func (r *Runner) release(name string) {
	r.mu.Lock()
	delete(r.inflight, name)
	r.mu.Unlock()
}

// Run fires cmd and waits for it.
func (r *Runner) Run(ctx context.Context, cmd Command) error {
	id, err := r.acquire(cmd.Name)
	if err != nil {
		return err
	}
	defer r.release(cmd.Name)

	return r.fire(ctx, id, cmd)
}

// Start fires cmd on its own goroutine and returns the run id.
func (r *Runner) Start(ctx context.Context, cmd Command) (string, error) {
	id, err := r.acquire(cmd.Name)
	if err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(cmd.Name)

		err := r.fire(ctx, id, cmd)
		select {
		case r.results <- Result{ID: id, Name: cmd.Name, Err: err}:
		default:
		}
	}()
	return id, nil
}

func (r *Runner) fire(ctx context.Context, id string, cmd Command) error {
	log := logging.With("action", cmd.Name).With("run", id)
	if cmd.Trigger == nil {
		return fmt.Errorf("%s: %w", cmd.Name, ErrNotConfigured)
	}

	log.Info("action started")
	if err := cmd.Trigger.Fire(ctx); err != nil {
		log.Warn("action failed", "error", err)
		return err
	}
	log.Info("action finished")
	return nil
}

// Wait blocks until every started run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
