package workers

import (
	"sync"
	"time"

	"hermes/pkg/errors"
)

// Registry manages all workers in the system
type Registry struct {
	workers map[string]WorkerWithHealth
	mu      sync.RWMutex
}

// NewRegistry creates a new worker registry
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[string]WorkerWithHealth),
	}
}

// Register adds a worker to the registry
func (r *Registry) Register(w WorkerWithHealth) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := w.Name()
	if _, exists := r.workers[name]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "worker %s already registered", name)
	}

	r.workers[name] = w
	return nil
}

// Get returns a worker by name
func (r *Registry) Get(name string) (WorkerWithHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[name]
	return w, ok
}

// List returns all registered workers
func (r *Registry) List() []WorkerWithHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workers := make([]WorkerWithHealth, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	return workers
}

// EnableWorker enables or disables a worker by name
func (r *Registry) EnableWorker(name string, enabled bool) error {
	r.mu.RLock()
	w, ok := r.workers[name]
	r.mu.RUnlock()

	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "worker %s not found", name)
	}
	w.SetEnabled(enabled)
	return nil
}

// GetAllHealth returns health information for all workers
func (r *Registry) GetAllHealth() map[string]WorkerHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make(map[string]WorkerHealth, len(r.workers))
	for name, w := range r.workers {
		health[name] = w.Health()
	}
	return health
}

// GetUnhealthyWorkers returns enabled workers that either have not run
// within maxAge or fail more than half their runs
func (r *Registry) GetUnhealthyWorkers(maxAge time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var unhealthy []string
	now := time.Now()

	for name, w := range r.workers {
		h := w.Health()
		if !h.Enabled {
			continue
		}
		if now.Sub(h.LastRun) > maxAge {
			unhealthy = append(unhealthy, name)
			continue
		}
		if h.RunCount > 10 && float64(h.ErrorCount)/float64(h.RunCount) > 0.5 {
			unhealthy = append(unhealthy, name)
		}
	}
	return unhealthy
}

// Count returns the number of registered workers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
