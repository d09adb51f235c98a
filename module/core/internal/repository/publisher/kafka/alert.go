package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

// Writer is the subset of *kafka.Writer used here.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type AlertPublisher struct {
	writer Writer
}

// NewAlertPublisher writes alerts keyed by device id, so a device's events
// land on one partition in order.
func NewAlertPublisher(brokers []string, topic string) *AlertPublisher {
	return &AlertPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func NewAlertPublisherWithWriter(w Writer) *AlertPublisher {
	return &AlertPublisher{writer: w}
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, event *domain.TransitionEvent) error {
	body, err := publisher.EncodeAlert(event)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DeviceID),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
			{Key: "id", Value: []byte(event.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
