package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pidulll/capstone/config"
)

const (
	exchangeName = "safezone.events"
	queueName    = "safezone_alerts"
)

type alertMessage struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Event    string `json:"event"`
	ZoneID   string `json:"zone_id"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	OccurredAt int64 `json:"occurred_at"`
}

func main() {
	cfg := config.Load()

	conn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbitmq channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		log.Fatalf("declare exchange: %v", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Fatalf("declare queue: %v", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		log.Fatalf("bind queue: %v", err)
	}

	msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.Printf("consuming from queue '%s', waiting for safe-zone transitions...", queueName)

	go func() {
		for msg := range msgs {
			var alert alertMessage
			if err := json.Unmarshal(msg.Body, &alert); err != nil {
				log.Printf("skipping malformed alert: %v", err)
				continue
			}
			fmt.Println(formatAlert(&alert))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
}

func formatAlert(a *alertMessage) string {
	at := time.UnixMilli(a.OccurredAt).UTC().Format(time.RFC3339)
	switch a.Event {
	case "geofence_entry":
		return fmt.Sprintf("[%s] %s entered zone %s at (%.5f, %.5f)", at, a.DeviceID, a.ZoneID, a.Location.Latitude, a.Location.Longitude)
	case "geofence_exit":
		return fmt.Sprintf("[%s] %s left all safe zones at (%.5f, %.5f)", at, a.DeviceID, a.Location.Latitude, a.Location.Longitude)
	default:
		return fmt.Sprintf("[%s] %s %s", at, a.DeviceID, a.Event)
	}
}
