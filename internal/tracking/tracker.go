package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

const (
	// DefaultCapacity bounds the stored event log; older events are evicted first.
	DefaultCapacity = 50
	// DefaultStorageKey is the namespaced key holding the serialized log.
	DefaultStorageKey = "barber_enrollment_events"

	defaultSinkTimeout = 5 * time.Second
	timestampLayout    = "2006-01-02T15:04:05.000Z07:00"
)

// Config wires a Tracker's collaborators. Only Storage is expected; everything else has defaults.
type Config struct {
	Storage     Storage
	Key         string
	Capacity    int
	Sinks       []Sink
	SinkTimeout time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.TrackingMetrics
	Now         func() time.Time
}

// Tracker records enrollment-intent events on a bounded log and forwards them to sinks.
// None of its methods return errors: analytics failures must never reach the caller.
type Tracker struct {
	storage     Storage
	key         string
	capacity    int
	sinks       []Sink
	sinkTimeout time.Duration
	logger      *logging.Logger
	metrics     *metrics.TrackingMetrics
	now         func() time.Time

	// mu serializes the log read-modify-write so concurrent Track calls never drop events.
	mu       sync.Mutex
	inflight sync.WaitGroup
}

// New creates a Tracker. A nil Storage falls back to process memory.
func New(cfg Config) *Tracker {
	t := &Tracker{
		storage:     cfg.Storage,
		key:         cfg.Key,
		capacity:    cfg.Capacity,
		sinks:       cfg.Sinks,
		sinkTimeout: cfg.SinkTimeout,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}
	if t.storage == nil {
		t.storage = NewMemoryStorage()
	}
	if t.key == "" {
		t.key = DefaultStorageKey
	}
	if t.capacity <= 0 {
		t.capacity = DefaultCapacity
	}
	if t.sinkTimeout <= 0 {
		t.sinkTimeout = defaultSinkTimeout
	}
	if t.logger == nil {
		t.logger = logging.Default()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// TrackOption sets an optional event field.
type TrackOption func(*EnrollmentEvent)

// WithCourse attaches the course the visitor was looking at.
func WithCourse(name string) TrackOption {
	return func(e *EnrollmentEvent) { e.CourseName = name }
}

// WithPrice attaches the course price.
func WithPrice(price float64) TrackOption {
	return func(e *EnrollmentEvent) { e.CoursePrice = &price }
}

// Track records one event. The log append happens before Track returns; sink
// deliveries are dispatched on their own goroutines and their results discarded.
func (t *Tracker) Track(ctx context.Context, method Method, source Source, opts ...TrackOption) {
	evt := EnrollmentEvent{
		Method:    method,
		Source:    source,
		Timestamp: t.now().UTC().Format(timestampLayout),
	}
	for _, opt := range opts {
		opt(&evt)
	}

	t.appendEvent(ctx, evt)
	t.metrics.ObserveEvent(string(method), string(source))
	t.logger.Debug("enrollment event tracked", "method", method, "source", source, "course", evt.CourseName)
	t.dispatch(ctx, evt)
}

// StoredEvents returns the log oldest first. Missing or corrupt storage yields an empty slice.
func (t *Tracker) StoredEvents(ctx context.Context) []EnrollmentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	events, err := t.load(ctx)
	if err != nil {
		t.storageFailed(err)
		return []EnrollmentEvent{}
	}
	return events
}

// Stats aggregates the stored log.
func (t *Tracker) Stats(ctx context.Context) Stats {
	return ComputeStats(t.StoredEvents(ctx))
}

// Clear deletes the stored log. Failures are logged and otherwise ignored.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.recoverStorage("remove")

	if err := t.storage.Remove(ctx, t.key); err != nil {
		t.storageFailed(&StorageError{Op: "remove", Key: t.key, Err: err})
	}
}

// Flush blocks until dispatched sink deliveries finish or ctx is done.
// It is meant for shutdown and tests: callers must stop calling Track before
// Flush, because a Track racing with Flush may start a delivery Flush does not wait for.
func (t *Tracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) appendEvent(ctx context.Context, evt EnrollmentEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.recoverStorage("write")

	events, err := t.load(ctx)
	if err != nil {
		t.storageFailed(err)
		events = nil
	}
	events = append(events, evt)
	if over := len(events) - t.capacity; over > 0 {
		events = events[over:]
	}

	data, err := json.Marshal(events)
	if err != nil {
		t.storageFailed(&StorageError{Op: "encode", Key: t.key, Err: err})
		return
	}
	if err := t.storage.Set(ctx, t.key, data); err != nil {
		t.storageFailed(&StorageError{Op: "write", Key: t.key, Err: err})
	}
}

// load must be called with mu held.
func (t *Tracker) load(ctx context.Context) (events []EnrollmentEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			events, err = nil, &StorageError{Op: "read", Key: t.key, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	data, err := t.storage.Get(ctx, t.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []EnrollmentEvent{}, nil
		}
		return nil, &StorageError{Op: "read", Key: t.key, Err: err}
	}
	if len(data) == 0 {
		return []EnrollmentEvent{}, nil
	}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, &StorageError{Op: "decode", Key: t.key, Err: err}
	}
	if events == nil {
		events = []EnrollmentEvent{}
	}
	return events, nil
}

func (t *Tracker) storageFailed(err error) {
	op := "unknown"
	var se *StorageError
	if errors.As(err, &se) {
		op = se.Op
	}
	t.metrics.ObserveStorageError(op)
	t.logger.Warn("enrollment event log unavailable", "op", op, "error", err)
}

func (t *Tracker) recoverStorage(op string) {
	if r := recover(); r != nil {
		t.storageFailed(&StorageError{Op: op, Key: t.key, Err: fmt.Errorf("panic: %v", r)})
	}
}

func (t *Tracker) dispatch(ctx context.Context, evt EnrollmentEvent) {
	base := context.WithoutCancel(ctx)
	for _, sink := range t.sinks {
		if sink == nil {
			continue
		}
		t.inflight.Add(1)
		go t.deliver(base, sink, evt)
	}
}

func (t *Tracker) deliver(ctx context.Context, sink Sink, evt EnrollmentEvent) {
	defer t.inflight.Done()
	name := "unknown"
	defer func() {
		if r := recover(); r != nil {
			t.sinkFailed(&SinkError{Sink: name, Err: fmt.Errorf("panic: %v", r)})
		}
	}()
	name = sink.Name()

	ctx, cancel := context.WithTimeout(ctx, t.sinkTimeout)
	defer cancel()

	if err := sink.Send(ctx, evt); err != nil {
		t.sinkFailed(&SinkError{Sink: name, Err: err})
		return
	}
	t.metrics.ObserveSink(name, true)
}

func (t *Tracker) sinkFailed(err *SinkError) {
	t.metrics.ObserveSink(err.Sink, false)
	t.logger.Warn("analytics sink delivery failed", "sink", err.Sink, "error", err.Err)
}
