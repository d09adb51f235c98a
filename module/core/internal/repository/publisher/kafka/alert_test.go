package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/pidulll/capstone/module/core/domain"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestPublishAlert_KeyedByDevice(t *testing.T) {
	w := &mockWriter{}
	pub := NewAlertPublisherWithWriter(w)

	err := pub.PublishAlert(context.Background(), &domain.TransitionEvent{
		ID:         "evt-1",
		DeviceID:   "kid-phone",
		Event:      domain.GeofenceEntry,
		ZoneID:     "home",
		OccurredAt: time.UnixMilli(1715003456000),
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "kid-phone", string(w.msgs[0].Key))
	require.Contains(t, string(w.msgs[0].Value), `"zone_id":"home"`)
	require.Equal(t, "geofence_entry", string(w.msgs[0].Headers[0].Value))

	require.NoError(t, pub.Close())
	require.True(t, w.closed)
}

func TestPublishAlert_WriteError(t *testing.T) {
	pub := NewAlertPublisherWithWriter(&mockWriter{err: errors.New("leader not available")})
	err := pub.PublishAlert(context.Background(), &domain.TransitionEvent{DeviceID: "kid-phone"})
	require.Error(t, err)
}
