package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/platform/metrics"
)

// Listener consumes lifecycle events after the transition that produced them committed.
type Listener interface {
	Name() string
	Handle(ctx context.Context, event bookingDomain.Event) error
}

const listenerTimeout = 5 * time.Second

// Dispatcher fans events out to listeners. A failing or panicking listener
// is logged and counted; it never affects other listeners or the caller.
type Dispatcher struct {
	listeners []Listener
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher for the given listeners.
func NewDispatcher(logger *zap.Logger, listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners, logger: logger}
}

// Dispatch delivers each event to every listener in order. Delivery is
// detached from ctx cancellation so a request timeout after commit does not
// drop notifications.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...bookingDomain.Event) {
	if d == nil {
		return
	}
	for _, e := range events {
		for _, l := range d.listeners {
			d.deliver(ctx, l, e)
		}
	}
}

func (d *Dispatcher) deliver(parent context.Context, l Listener, e bookingDomain.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), listenerTimeout)
	defer cancel()

	if err := safeHandle(ctx, l, e); err != nil {
		failure := apperror.NewCollaboratorFailure(l.Name(), err)
		metrics.ListenerFailuresTotal.WithLabelValues(l.Name(), string(e.Type)).Inc()
		d.logger.Error("listener failed",
			zap.String("listener", l.Name()),
			zap.String("kind", string(failure.Kind)),
			zap.String("event_type", string(e.Type)),
			zap.String("booking_id", e.BookingID.String()),
			zap.Error(failure),
		)
	}
}

func safeHandle(ctx context.Context, l Listener, e bookingDomain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.Handle(ctx, e)
}
