package mqtt

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/logic"
)

// DefaultQueueDepth is the number of pending publishes an AsyncPublisher holds.
const DefaultQueueDepth = 32

// ErrQueueFull is returned when a publish is dropped because the queue is full.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// ErrClosed is returned by publishes after Close.
var ErrClosed = errors.New("mqtt: publisher closed")

// AsyncPublisher hands publishes to a worker goroutine so callers never wait
// on the network. When the queue is full the publish is dropped.
type AsyncPublisher struct {
	next    Publisher
	log     *zap.SugaredLogger
	queue   chan func() error
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncPublisher wraps next and starts its worker.
func NewAsyncPublisher(next Publisher, depth int, log *zap.SugaredLogger) *AsyncPublisher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	a := &AsyncPublisher{
		next:  next,
		log:   log,
		queue: make(chan func() error, depth),
		done:  make(chan struct{}),
	}
	go a.worker()
	return a
}

func (a *AsyncPublisher) worker() {
	defer close(a.done)
	for job := range a.queue {
		if err := job(); err != nil {
			a.log.Warnw("mqtt publish failed", "error", err)
		}
	}
}

func (a *AsyncPublisher) enqueue(job func() error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// Publish queues a state transition.
func (a *AsyncPublisher) Publish(at time.Time, tr logic.Transition) error {
	return a.enqueue(func() error { return a.next.Publish(at, tr) })
}

// PublishSystem queues a system event.
func (a *AsyncPublisher) PublishSystem(event SystemEvent) error {
	return a.enqueue(func() error { return a.next.PublishSystem(event) })
}

// Dropped returns how many publishes were discarded on a full queue.
func (a *AsyncPublisher) Dropped() uint64 {
	return a.dropped.Load()
}

// IsConnected reports the wrapped publisher's connection state, or false if
// it does not track one.
func (a *AsyncPublisher) IsConnected() bool {
	if cs, ok := a.next.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close flushes queued publishes, then closes the wrapped publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
