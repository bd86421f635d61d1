package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/skillsenselab/assetpipe/logger"
)

// Registry holds named tasks with deterministic lookup. Tasks are listed
// in sorted name order regardless of registration order.
type Registry struct {
	lookup map[string]Task
	mu     sync.RWMutex
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		lookup: make(map[string]Task),
	}
}

// Register adds a task to the registry. Duplicate names are rejected.
func (r *Registry) Register(t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if _, exists := r.lookup[t.Name]; exists {
		return fmt.Errorf("task %s already registered", t.Name)
	}
	r.lookup[t.Name] = t

	logger.Debug("Task registered", map[string]interface{}{
		"task": t.Name,
	})
	return nil
}

// RegisterAll registers every task from a provider.
func (r *Registry) RegisterAll(p Provider) error {
	for _, t := range p.Tasks() {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a registered task by name.
func (r *Registry) Get(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.lookup[name]
	return t, ok
}

// All returns all registered tasks sorted by name.
func (r *Registry) All() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Task, 0, len(r.lookup))
	for _, t := range r.lookup {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
