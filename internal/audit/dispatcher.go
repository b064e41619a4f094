package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// FailureRecorder counts entries a sink failed to record.
type FailureRecorder interface {
	RecordAuditFailure(sink string)
}

type namedSink struct {
	name string
	sink Sink
}

// Dispatcher fans entries out to the registered sinks.
//
// Sink failures are logged and counted, never returned: by the time an entry
// is dispatched the mutation it describes is already saved.
type Dispatcher struct {
	mu       sync.RWMutex
	sinks    []namedSink
	failures FailureRecorder
}

// NewDispatcher returns an empty dispatcher. failures may be nil.
func NewDispatcher(failures FailureRecorder) *Dispatcher {
	return &Dispatcher{failures: failures}
}

// Register appends sink to the notification order.
func (d *Dispatcher) Register(name string, sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sinks = append(d.sinks, namedSink{name: name, sink: sink})
}

// Remove unregisters the first sink registered under name.
func (d *Dispatcher) Remove(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.sinks {
		if s.name == name {
			d.sinks = append(d.sinks[:i:i], d.sinks[i+1:]...)
			return true
		}
	}

	return false
}

// Len returns the number of registered sinks.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.sinks)
}

// Notify passes e to every sink in registration order on the calling goroutine.
func (d *Dispatcher) Notify(ctx context.Context, e Entry) {
	d.mu.RLock()
	sinks := make([]namedSink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	for _, s := range sinks {
		if err := record(ctx, s.sink, e); err != nil {
			zerolog.Ctx(ctx).Error().
				Err(err).
				Str("sink", s.name).
				Str("account", e.AccountRef).
				Str("kind", e.Kind.String()).
				Int64("amount", e.Amount).
				Msg("audit sink failure")

			if d.failures != nil {
				d.failures.RecordAuditFailure(s.name)
			}
		}
	}
}

func record(ctx context.Context, s Sink, e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()

	return s.Record(ctx, e)
}

// Close closes every sink that holds resources.
func (d *Dispatcher) Close() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error

	for _, s := range d.sinks {
		if c, ok := s.sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s sink: %w", s.name, err))
			}
		}
	}

	return errors.Join(errs...)
}
