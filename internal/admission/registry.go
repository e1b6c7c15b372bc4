package admission

import (
	"context"
	"sync"

	"github.com/gdg-garage/guest-checkin-api/internal/metrics"
	"github.com/google/uuid"
)

// Runner is a live scan session with its running pipeline.
type Runner struct {
	Controller *Controller
	Pipeline   *Pipeline
	cancel     context.CancelFunc
}

func (r *Runner) Session() *Session {
	return r.Controller.Session()
}

func (r *Runner) stop() {
	r.cancel()
	<-r.Pipeline.Done()
}

// Registry tracks the open scan sessions of this process.
type Registry struct {
	queueSize int

	mu      sync.Mutex
	runners map[uuid.UUID]*Runner
}

func NewRegistry(queueSize int) *Registry {
	return &Registry{
		queueSize: queueSize,
		runners:   make(map[uuid.UUID]*Runner),
	}
}

// Open starts a pipeline for ctrl and registers it under the session ID.
func (r *Registry) Open(ctrl *Controller) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &Runner{
		Controller: ctrl,
		Pipeline:   NewPipeline(ctrl, r.queueSize),
		cancel:     cancel,
	}
	go runner.Pipeline.Run(ctx)

	r.mu.Lock()
	r.runners[ctrl.Session().ID] = runner
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	return runner
}

func (r *Registry) Get(id uuid.UUID) (*Runner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runner, ok := r.runners[id]
	return runner, ok
}

// Close stops the session's pipeline and waits for its consumer to exit.
func (r *Registry) Close(id uuid.UUID) bool {
	r.mu.Lock()
	runner, ok := r.runners[id]
	delete(r.runners, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	runner.stop()
	metrics.ActiveSessions.Dec()
	return true
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.runners))
	for id := range r.runners {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Close(id)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runners)
}
