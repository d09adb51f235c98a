package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pidulll/capstone/module/core/domain"
)

type deviceLister interface {
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
}

type deviceEvaluatorService interface {
	EvaluateDevice(ctx context.Context, deviceID string) (*domain.TransitionEvent, error)
}

// Poller re-evaluates every known device on a fixed interval. It goes through
// the same per-device serialization as pushed locations.
type Poller struct {
	devices  deviceLister
	geofence deviceEvaluatorService
	interval time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller returns a poller that ticks every interval once started.
func NewPoller(devices deviceLister, geofence deviceEvaluatorService, interval time.Duration) *Poller {
	return &Poller{
		devices:  devices,
		geofence: geofence,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-p.done:
				return
			case <-ticker.C:
				p.pollOnce(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-progress poll to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Poller) pollOnce(ctx context.Context) {
	devices, err := p.devices.GetAllDevices(ctx)
	if err != nil {
		log.Printf("poll: list devices: %v", err)
		return
	}

	for _, d := range devices {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.geofence.EvaluateDevice(ctx, d.DeviceID); err != nil {
			log.Printf("poll: device %s skipped: %v", d.DeviceID, err)
		}
	}
}
