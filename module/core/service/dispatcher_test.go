package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pidulll/capstone/module/core/domain"
)

type mockAlertPublisher struct {
	mu             sync.Mutex
	publishAlertFn func(ctx context.Context, event *domain.TransitionEvent) error
	calls          []domain.TransitionEvent
}

func (m *mockAlertPublisher) PublishAlert(ctx context.Context, event *domain.TransitionEvent) error {
	m.mu.Lock()
	m.calls = append(m.calls, *event)
	fn := m.publishAlertFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, event)
	}
	return nil
}

func (m *mockAlertPublisher) published() []domain.TransitionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TransitionEvent, len(m.calls))
	copy(out, m.calls)
	return out
}

type alertMetrics struct {
	nopMetrics
	mu                         sync.Mutex
	published, failed, dropped int
}

func (m *alertMetrics) IncAlertPublished() { m.mu.Lock(); m.published++; m.mu.Unlock() }
func (m *alertMetrics) IncAlertFailed()    { m.mu.Lock(); m.failed++; m.mu.Unlock() }
func (m *alertMetrics) IncAlertDropped()   { m.mu.Lock(); m.dropped++; m.mu.Unlock() }

func TestAlertDispatcher_PublishesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &mockAlertPublisher{}
	metrics := &alertMetrics{}
	d := NewAlertDispatcher(pub, metrics, 8, time.Second)
	d.Start(context.Background())

	d.Notify(domain.TransitionEvent{ID: "1", Event: domain.GeofenceEntry, ZoneID: "home"})
	d.Notify(domain.TransitionEvent{ID: "2", Event: domain.GeofenceExit})
	d.Stop()

	got := pub.published()
	if len(got) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("expected events in notify order, got %+v", got)
	}
	if metrics.published != 2 {
		t.Errorf("expected 2 published, got %d", metrics.published)
	}
}

func TestAlertDispatcher_PublishErrorIsNotRetried(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &mockAlertPublisher{
		publishAlertFn: func(_ context.Context, _ *domain.TransitionEvent) error {
			return errors.New("rabbitmq down")
		},
	}
	metrics := &alertMetrics{}
	d := NewAlertDispatcher(pub, metrics, 8, time.Second)
	d.Start(context.Background())

	d.Notify(domain.TransitionEvent{ID: "1", Event: domain.GeofenceEntry})
	d.Stop()

	if n := len(pub.published()); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
	if metrics.failed != 1 {
		t.Errorf("expected 1 failure, got %d", metrics.failed)
	}
}

func TestAlertDispatcher_NotifyNeverBlocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	pub := &mockAlertPublisher{
		publishAlertFn: func(ctx context.Context, _ *domain.TransitionEvent) error {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}
	metrics := &alertMetrics{}
	d := NewAlertDispatcher(pub, metrics, 1, time.Second)

	// consumer not started: queue holds one, the rest are dropped
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			d.Notify(domain.TransitionEvent{Event: domain.GeofenceEntry})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
	if metrics.dropped != 4 {
		t.Fatalf("expected 4 dropped, got %d", metrics.dropped)
	}

	close(release)
	d.Start(context.Background())
	d.Stop()
}

func TestAlertDispatcher_DrainsAfterContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	pub := &mockAlertPublisher{
		publishAlertFn: func(ctx context.Context, _ *domain.TransitionEvent) error {
			once.Do(func() {
				close(inFlight)
				<-release
			})
			return ctx.Err()
		},
	}
	metrics := &alertMetrics{}

	ctx, cancel := context.WithCancel(context.Background())
	d := NewAlertDispatcher(pub, metrics, 8, time.Second)
	d.Start(ctx)

	d.Notify(domain.TransitionEvent{ID: "1", Event: domain.GeofenceEntry, ZoneID: "home"})
	<-inFlight
	d.Notify(domain.TransitionEvent{ID: "2", Event: domain.GeofenceExit})
	d.Notify(domain.TransitionEvent{ID: "3", Event: domain.GeofenceEntry, ZoneID: "school"})
	d.Notify(domain.TransitionEvent{ID: "4", Event: domain.GeofenceExit})

	cancel()
	close(release)
	d.Stop()

	calls := pub.published()
	if len(calls) != 4 {
		t.Fatalf("expected 4 publish attempts, got %d", len(calls))
	}
	for i, want := range []string{"1", "2", "3", "4"} {
		if calls[i].ID != want {
			t.Errorf("call %d: expected id %s, got %s", i, want, calls[i].ID)
		}
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.published != 4 || metrics.failed != 0 {
		t.Fatalf("expected 4 published and 0 failed, got %d and %d", metrics.published, metrics.failed)
	}
}

func TestAlertDispatcher_StopWithoutCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewAlertDispatcher(&mockAlertPublisher{}, nil, 0, 0)
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}
