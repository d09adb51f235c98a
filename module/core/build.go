package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pidulll/capstone/module/core/domain"
	handler "github.com/pidulll/capstone/module/core/internal/handler/http"
	"github.com/pidulll/capstone/module/core/internal/handler/subscriber"
	"github.com/pidulll/capstone/module/core/internal/observability"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
	"github.com/pidulll/capstone/module/core/internal/repository/database/postgres"
	"github.com/pidulll/capstone/module/core/internal/repository/publisher"
	"github.com/pidulll/capstone/module/core/internal/repository/publisher/kafka"
	"github.com/pidulll/capstone/module/core/internal/repository/publisher/rabbitmq"
	"github.com/pidulll/capstone/module/core/internal/repository/zonefile"
	"github.com/pidulll/capstone/module/core/service"
)

// Options carries the tunables Build needs beyond the shared connections.
type Options struct {
	// ZonesFile, when set, replaces the postgres zone table with a YAML file.
	ZonesFile string

	KafkaBrokers []string
	KafkaTopic   string

	PollInterval  time.Duration
	AlertQueueLen int
	AlertTimeout  time.Duration

	Registerer prometheus.Registerer
}

type Module struct {
	LocationSvc *service.LocationService
	GeofenceSvc *service.GeofenceService
	ZoneSvc     *service.ZoneService

	handler    *handler.DeviceHandler
	subscriber *subscriber.LocationSubscriber
	dispatcher *service.AlertDispatcher
	poller     *service.Poller
	kafkaPub   *kafka.AlertPublisher
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, opts Options) (*Module, error) {
	var metrics service.Metrics
	countInvalid := func(domain.Geofence, error) {}
	if opts.Registerer != nil {
		prom := observability.NewPromMetrics(opts.Registerer)
		metrics = prom
		countInvalid = func(domain.Geofence, error) { prom.IncInvalidZone() }
	}

	locationRepo := postgres.NewLocationRepo(db)

	var zoneRepo database.ZoneRepository = postgres.NewZoneRepo(db, countInvalid)
	if opts.ZonesFile != "" {
		fileRepo, err := zonefile.Load(opts.ZonesFile, countInvalid)
		if err != nil {
			return nil, fmt.Errorf("zones file: %w", err)
		}
		zoneRepo = fileRepo
		log.Printf("zones loaded from %s", opts.ZonesFile)
	}

	rabbitPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	pubs := []publisher.AlertPublisher{rabbitPub}
	var kafkaPub *kafka.AlertPublisher
	if len(opts.KafkaBrokers) > 0 {
		kafkaPub = kafka.NewAlertPublisher(opts.KafkaBrokers, opts.KafkaTopic)
		pubs = append(pubs, kafkaPub)
		log.Printf("kafka alerts enabled: topic %s", opts.KafkaTopic)
	}

	dispatcher := service.NewAlertDispatcher(publisher.Fanout(pubs...), metrics, opts.AlertQueueLen, opts.AlertTimeout)

	locationSvc := service.NewLocationService(locationRepo)
	geofenceSvc := service.NewGeofenceService(zoneRepo, locationRepo, dispatcher, metrics)
	zoneSvc := service.NewZoneService(zoneRepo, geofenceSvc)

	var poller *service.Poller
	if opts.PollInterval > 0 {
		poller = service.NewPoller(locationSvc, geofenceSvc, opts.PollInterval)
	}

	return &Module{
		LocationSvc: locationSvc,
		GeofenceSvc: geofenceSvc,
		ZoneSvc:     zoneSvc,
		handler:     handler.NewDeviceHandler(locationSvc, zoneSvc, geofenceSvc),
		subscriber:  subscriber.NewLocationSubscriber(mqttClient, locationSvc, geofenceSvc),
		dispatcher:  dispatcher,
		poller:      poller,
		kafkaPub:    kafkaPub,
	}, nil
}

// Migrate creates the postgres tables the module reads and writes.
func Migrate(ctx context.Context, db *sql.DB) error {
	return postgres.Migrate(ctx, db)
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Start launches the alert dispatcher and the poller. Call before
// StartSubscribers so pushed samples have somewhere to send alerts.
func (m *Module) Start(ctx context.Context) {
	m.dispatcher.Start(ctx)
	if m.poller != nil {
		m.poller.Start(ctx)
	}
}

// Stop unsubscribes from the location stream, stops the poller, then drains
// pending alerts.
func (m *Module) Stop() {
	m.subscriber.Stop()
	if m.poller != nil {
		m.poller.Stop()
	}
	m.dispatcher.Stop()
	if m.kafkaPub != nil {
		if err := m.kafkaPub.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}
}
