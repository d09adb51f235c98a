package publisher

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pidulll/capstone/module/core/domain"
)

type alertMessage struct {
	ID         string                   `json:"id"`
	DeviceID   string                   `json:"device_id"`
	Event      domain.GeofenceEventType `json:"event"`
	ZoneID     string                   `json:"zone_id,omitempty"`
	Location   alertLocation            `json:"location"`
	OccurredAt int64                    `json:"occurred_at"`
}

type alertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EncodeAlert renders an event in the wire format shared by every sink.
// occurred_at is epoch milliseconds.
func EncodeAlert(event *domain.TransitionEvent) ([]byte, error) {
	return json.Marshal(alertMessage{
		ID:       event.ID,
		DeviceID: event.DeviceID,
		Event:    event.Event,
		ZoneID:   event.ZoneID,
		Location: alertLocation{
			Latitude:  event.Location.Lat,
			Longitude: event.Location.Lon,
		},
		OccurredAt: event.OccurredAt.UnixMilli(),
	})
}

type fanout []AlertPublisher

// Fanout publishes every event to all pubs and joins their errors.
func Fanout(pubs ...AlertPublisher) AlertPublisher {
	if len(pubs) == 1 {
		return pubs[0]
	}
	return fanout(pubs)
}

func (f fanout) PublishAlert(ctx context.Context, event *domain.TransitionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishAlert(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
