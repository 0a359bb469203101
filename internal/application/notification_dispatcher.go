package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/metrics"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	notifySent    = "sent"
	notifyFailed  = "failed"
	notifySkipped = "skipped"
)

// NotificationDispatcher announces reconciled orders without blocking the request.
// Deliveries run detached from the request context and are attempted once.
type NotificationDispatcher struct {
	notifier    ports.Notifier
	destination string
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[any]
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	wg          sync.WaitGroup
}

// NewNotificationDispatcher creates a new dispatcher. metrics may be nil.
func NewNotificationDispatcher(
	notifier ports.Notifier,
	destination string,
	timeout time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *NotificationDispatcher {
	settings := gobreaker.Settings{
		Name:        "notifier",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Notification circuit breaker state changed")
		},
	}

	return &NotificationDispatcher{
		notifier:    notifier,
		destination: destination,
		timeout:     timeout,
		breaker:     gobreaker.NewCircuitBreaker[any](settings),
		metrics:     m,
		logger:      logger,
	}
}

// Notify schedules delivery of summary and returns immediately
func (d *NotificationDispatcher) Notify(ctx context.Context, summary domain.OrderSummary) {
	if d == nil || d.notifier == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		d.deliver(sendCtx, summary)
	}()
}

func (d *NotificationDispatcher) deliver(ctx context.Context, summary domain.OrderSummary) {
	_, err := d.breaker.Execute(func() (any, error) {
		return nil, d.notifier.Send(ctx, d.destination, summary)
	})

	switch {
	case err == nil:
		d.metrics.ObserveNotification(notifySent)
		d.logger.Debug().
			Str("order_id", summary.OrderID).
			Bool("is_new", summary.IsNew).
			Msg("Order notification sent")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		d.metrics.ObserveNotification(notifySkipped)
		d.logger.Warn().
			Str("order_id", summary.OrderID).
			Msg("Order notification skipped, channel unavailable")
	default:
		d.metrics.ObserveNotification(notifyFailed)
		d.logger.Error().
			Err(err).
			Str("order_id", summary.OrderID).
			Str("owner_id", summary.OwnerID).
			Msg("Failed to send order notification")
	}
}

// Wait blocks until every scheduled notification has finished
func (d *NotificationDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// BreakerState reports the notifier circuit breaker state
func (d *NotificationDispatcher) BreakerState() gobreaker.State {
	return d.breaker.State()
}
