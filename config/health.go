package config

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type amqpConn interface {
	IsClosed() bool
}

type mqttConn interface {
	IsConnected() bool
}

type HealthChecker struct {
	db           pinger
	amqpConn     amqpConn
	mqtt         mqttConn
	kafkaBrokers []string
	dialKafka    func(ctx context.Context, addr string) error
}

func NewHealthChecker(db pinger, amqpConn amqpConn, mqttClient mqttConn, kafkaBrokers []string) *HealthChecker {
	return &HealthChecker{
		db:           db,
		amqpConn:     amqpConn,
		mqtt:         mqttClient,
		kafkaBrokers: kafkaBrokers,
		dialKafka:    dialKafka,
	}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	down := func(name, reason string) {
		deps[name] = gin.H{"status": "down", "error": reason}
		status = http.StatusServiceUnavailable
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		down("postgres", err.Error())
	} else {
		deps["postgres"] = gin.H{"status": "up"}
	}

	if h.amqpConn.IsClosed() {
		down("rabbitmq", "connection closed")
	} else {
		deps["rabbitmq"] = gin.H{"status": "up"}
	}

	if !h.mqtt.IsConnected() {
		down("mqtt", "not connected")
	} else {
		deps["mqtt"] = gin.H{"status": "up"}
	}

	if len(h.kafkaBrokers) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := h.dialKafka(ctx, h.kafkaBrokers[0])
		cancel()
		if err != nil {
			down("kafka", err.Error())
		} else {
			deps["kafka"] = gin.H{"status": "up"}
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}

func dialKafka(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
