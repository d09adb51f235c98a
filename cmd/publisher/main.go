package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/pidulll/capstone/config"
)

type locationMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

const metersPerDegree = 111320.0

// Defaults to a 100m zone around Monas, Jakarta.
var (
	centerLat = -6.1754
	centerLon = 106.8272
	radiusM   = 100.0
)

// offset moves distM meters from the center along bearing (radians).
func offset(distM, bearing float64) (float64, float64) {
	dLat := distM * math.Cos(bearing) / metersPerDegree
	dLon := distM * math.Sin(bearing) / (metersPerDegree * math.Cos(centerLat*math.Pi/180))
	return centerLat + dLat, centerLon + dLon
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds> [device_id...]\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	devices := os.Args[2:]
	if len(devices) == 0 {
		devices = []string{"kid-phone", "grandpa-watch"}
	}

	centerLat = envFloat("ZONE_LAT", centerLat)
	centerLon = envFloat("ZONE_LON", centerLon)
	radiusM = envFloat("ZONE_RADIUS_M", radiusM)

	cfg := config.Load()
	cfg.MQTTClientID = "safezone-mock-device"

	client, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer client.Disconnect(250)

	log.Printf("connected to %s, publishing every %ds...", cfg.MQTTBroker, intervalSec)
	log.Printf("devices %v around (%.5f, %.5f) r=%.0fm", devices, centerLat, centerLon, radiusM)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		id := devices[rand.Intn(len(devices))]

		// half the fixes land inside the zone, the rest well outside it
		dist := rand.Float64() * 0.8 * radiusM
		if rand.Float64() < 0.5 {
			dist = radiusM * (1.5 + rand.Float64()*3)
		}
		lat, lon := offset(dist, rand.Float64()*2*math.Pi)

		msg := locationMessage{
			DeviceID:  id,
			Latitude:  lat,
			Longitude: lon,
			Timestamp: time.Now().UnixMilli(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/safezone/device/%s/location", id)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("publish to %s: %v", topic, err)
			continue
		}

		log.Printf("published to %s: %s (%.0fm from center)", topic, payload, dist)
	}
}
