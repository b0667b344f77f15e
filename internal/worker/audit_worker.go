package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-gateway/internal/events"
	"github.com/spec-kit/admin-gateway/internal/service"
)

// DefaultAuditBuffer is the queue length used when none is given.
const DefaultAuditBuffer = 256

// AuditWorker takes access events off the request goroutine. The gate publishes
// synchronously; the worker only enqueues there and writes audit records on its own
// goroutine. When the queue is full the event is dropped and counted.
type AuditWorker struct {
	audit   *service.AuditService
	logger  *zap.Logger
	queue   chan events.Event
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// StartAuditWorker subscribes the worker to every event the audit service records and
// runs it until ctx is cancelled. Events already queued at cancellation are still written.
func StartAuditWorker(ctx context.Context, dispatcher events.Dispatcher, audit *service.AuditService, logger *zap.Logger, buffer int) *AuditWorker {
	w := newAuditWorker(audit, logger, buffer)
	for _, et := range audit.EventTypes() {
		dispatcher.Subscribe(et, w.enqueue)
	}
	w.wg.Add(1)
	go w.run(ctx)
	return w
}

func newAuditWorker(audit *service.AuditService, logger *zap.Logger, buffer int) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultAuditBuffer
	}
	return &AuditWorker{
		audit:  audit,
		logger: logger.Named("audit_worker"),
		queue:  make(chan events.Event, buffer),
	}
}

// Wait blocks until the worker has stopped.
func (w *AuditWorker) Wait() {
	w.wg.Wait()
}

// Dropped reports how many events were discarded because the queue was full.
func (w *AuditWorker) Dropped() int64 {
	return w.dropped.Load()
}

func (w *AuditWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.dropped.Add(1)
		w.logger.Warn("audit queue full; event dropped",
			zap.String("type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

func (w *AuditWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event := <-w.queue:
			w.write(event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.write(event)
		default:
			return
		}
	}
}

// write uses a fresh context: the request that produced the event is usually over.
func (w *AuditWorker) write(event events.Event) {
	if err := w.audit.Handle(context.Background(), event); err != nil {
		w.logger.Warn("audit record failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}
