package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/publisher"
)

const (
	defaultAlertQueueLen  = 256
	defaultPublishTimeout = 5 * time.Second
)

// AlertDispatcher is a bounded, single-consumer queue in front of an
// AlertPublisher. Events are published in the order they were notified;
// when the queue is full new events are dropped.
type AlertDispatcher struct {
	publisher publisher.AlertPublisher
	metrics   Metrics
	timeout   time.Duration
	queue     chan domain.TransitionEvent

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAlertDispatcher returns a dispatcher publishing through pub. Non-positive
// queueLen and timeout fall back to the defaults.
func NewAlertDispatcher(pub publisher.AlertPublisher, metrics Metrics, queueLen int, timeout time.Duration) *AlertDispatcher {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if queueLen <= 0 {
		queueLen = defaultAlertQueueLen
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &AlertDispatcher{
		publisher: pub,
		metrics:   metrics,
		timeout:   timeout,
		queue:     make(chan domain.TransitionEvent, queueLen),
		done:      make(chan struct{}),
	}
}

// Notify enqueues event without blocking; a full queue drops it.
func (d *AlertDispatcher) Notify(event domain.TransitionEvent) {
	select {
	case d.queue <- event:
	default:
		d.metrics.IncAlertDropped()
		log.Printf("alert queue full, dropping %s for device %s", event.Event, event.DeviceID)
	}
}

// Start launches the consumer. Cancelling ctx does not stop it: deliveries
// keep ctx's values but not its cancellation, and only Stop ends the loop
// after the queue is drained.
func (d *AlertDispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.done:
				d.drain(ctx)
				return
			case event := <-d.queue:
				d.deliver(ctx, event)
			}
		}
	}()
}

// Stop publishes whatever is still queued and waits for the consumer to exit.
func (d *AlertDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *AlertDispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *AlertDispatcher) deliver(ctx context.Context, event domain.TransitionEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.publisher.PublishAlert(ctx, &event); err != nil {
		d.metrics.IncAlertFailed()
		log.Printf("publish alert %s for device %s: %v", event.ID, event.DeviceID, err)
		return
	}
	d.metrics.IncAlertPublished()
}
