package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pidulll/capstone/module/core/domain"
)

const TopicPattern = "/safezone/device/+/location"

type locationService interface {
	SaveLocation(ctx context.Context, dl *domain.DeviceLocation) error
}

type geofenceService interface {
	EvaluateSample(ctx context.Context, deviceID string, sample domain.LocationSample) (*domain.TransitionEvent, error)
}

// locationMessage timestamps are epoch milliseconds.
type locationMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService
	geofenceSvc geofenceService
	timeout     time.Duration
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService, geofenceSvc geofenceService) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		locationSvc: locationSvc,
		geofenceSvc: geofenceSvc,
		timeout:     10 * time.Second,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) Stop() {
	if s.client == nil {
		return
	}
	token := s.client.Unsubscribe(TopicPattern)
	token.WaitTimeout(2 * time.Second)
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid location message: %v", err)
		return
	}

	// fall back to the topic segment when the payload omits device_id
	if raw.DeviceID == "" {
		raw.DeviceID = deviceFromTopic(msg.Topic())
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	dl := &domain.DeviceLocation{
		DeviceID: raw.DeviceID,
		Sample: domain.LocationSample{
			Coordinate: domain.Coordinate{Lat: raw.Latitude, Lon: raw.Longitude},
			Timestamp:  time.UnixMilli(raw.Timestamp),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.locationSvc.SaveLocation(ctx, dl); err != nil {
		log.Printf("save location error: %v", err)
		return
	}

	if _, err := s.geofenceSvc.EvaluateSample(ctx, dl.DeviceID, dl.Sample); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("geofence evaluation timed out: device %s", dl.DeviceID)
			return
		}
		log.Printf("geofence evaluation error: %v", err)
	}
}

// deviceFromTopic extracts the wildcard segment of /safezone/device/<id>/location.
func deviceFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) != 4 || parts[0] != "safezone" || parts[1] != "device" || parts[3] != "location" {
		return ""
	}
	return parts[2]
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.DeviceID == "" {
		return fmt.Errorf("device_id: required")
	}
	if err := (domain.Coordinate{Lat: msg.Latitude, Lon: msg.Longitude}).Validate(); err != nil {
		return err
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
