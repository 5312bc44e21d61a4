package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/events"
)

// EventHandler processes one event off the request path.
type EventHandler interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// Worker drains a bounded queue of events with a fixed number of goroutines.
type Worker struct {
	name    string
	handler EventHandler
	queue   chan events.Event
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// New creates a worker. queueSize bounds pending events; extra events are dropped and logged.
func New(name string, handler EventHandler, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		name:    name,
		handler: handler,
		queue:   make(chan events.Event, queueSize),
		logger:  logger.With(zap.String("worker", name)),
	}
}

// Register subscribes the worker's enqueue function to the dispatcher.
func (w *Worker) Register(d events.Dispatcher) {
	for _, t := range w.handler.EventTypes() {
		d.Subscribe(t, w.enqueue)
	}
}

func (w *Worker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Start launches n goroutines that run until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	w.logger.Info("worker started", zap.Int("goroutines", n))
}

// Wait blocks until every goroutine has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.queue:
			if err := w.handler.Handle(ctx, event); err != nil {
				w.logger.Warn("event handling failed",
					zap.String("event_type", string(event.Type)),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}
