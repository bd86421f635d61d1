package watch

import (
	"context"
	"sort"
	"sync"

	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/pipeline"
)

// RunFunc executes an operation for a batch of changed paths.
type RunFunc func(ctx context.Context, paths []string) pipeline.Outcome

// Binding connects a set of glob patterns to an operation. Runs for a
// binding are serialized; changes arriving while a run is in flight are
// coalesced into a single follow-up run with the latest set of paths.
type Binding struct {
	// Name identifies the binding in logs, e.g. "sass:compile".
	Name string
	// Globs select the paths that trigger the operation, relative to
	// the session root.
	Globs []string
	// Run executes the operation. Failures are logged and the binding
	// keeps watching.
	Run RunFunc
}

type boundOp struct {
	Binding

	mu      sync.Mutex
	pending map[string]struct{}
	kick    chan struct{}
}

func newBoundOp(b Binding) *boundOp {
	return &boundOp{
		Binding: b,
		pending: make(map[string]struct{}),
		kick:    make(chan struct{}, 1),
	}
}

// enqueue records a changed path and signals the dispatcher. The signal
// channel has capacity one, so a busy dispatcher accumulates paths and
// picks them all up on its next pass.
func (b *boundOp) enqueue(path string) {
	b.mu.Lock()
	b.pending[path] = struct{}{}
	b.mu.Unlock()

	select {
	case b.kick <- struct{}{}:
	default:
	}
}

func (b *boundOp) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(b.pending))
	for p := range b.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	b.pending = make(map[string]struct{})
	return paths
}

// dispatch runs the binding's operation for each settled batch of paths.
// One dispatcher per binding keeps runs serialized while separate
// bindings run concurrently.
func (b *boundOp) dispatch(ctx context.Context, stopCh <-chan struct{}, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-b.kick:
			paths := b.take()
			if len(paths) == 0 {
				continue
			}

			log.Info("Change detected", map[string]interface{}{
				"binding": b.Name,
				"files":   len(paths),
			})

			outcome := b.Run(ctx, paths)
			if outcome.Failed() {
				log.Error("Run failed, still watching", map[string]interface{}{
					"binding": b.Name,
					"error":   outcome.Err.Error(),
				})
			} else {
				log.Info("Run finished", map[string]interface{}{
					"binding":     b.Name,
					"duration_ms": outcome.Duration.Milliseconds(),
				})
			}
		}
	}
}
