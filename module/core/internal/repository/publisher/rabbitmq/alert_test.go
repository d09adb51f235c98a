package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pidulll/capstone/module/core/domain"
)

type fakeChannel struct {
	exchange string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.msg = msg
	return f.err
}

func TestPublishAlert(t *testing.T) {
	ch := &fakeChannel{}
	pub := &AlertPublisher{ch: ch}

	err := pub.PublishAlert(context.Background(), &domain.TransitionEvent{
		ID:         "evt-1",
		DeviceID:   "kid-phone",
		Event:      domain.GeofenceExit,
		OccurredAt: time.UnixMilli(1715003456000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.exchange != ExchangeName {
		t.Errorf("expected %s, got %s", ExchangeName, ch.exchange)
	}
	if ch.msg.MessageId != "evt-1" || ch.msg.Type != "geofence_exit" {
		t.Errorf("unexpected publishing: %+v", ch.msg)
	}

	var body struct {
		DeviceID string `json:"device_id"`
		Event    string `json:"event"`
	}
	if err := json.Unmarshal(ch.msg.Body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.DeviceID != "kid-phone" || body.Event != "geofence_exit" {
		t.Errorf("unexpected body: %s", ch.msg.Body)
	}
}

func TestPublishAlert_ChannelError(t *testing.T) {
	pub := &AlertPublisher{ch: &fakeChannel{err: errors.New("channel closed")}}
	if err := pub.PublishAlert(context.Background(), &domain.TransitionEvent{}); err == nil {
		t.Fatal("expected error")
	}
}
