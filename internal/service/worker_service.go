package service

import (
	"context"
	"time"

	"weather-display-backend/internal/models"

	"go.uber.org/zap"
)

// DeviceLister is the read surface the stale-device worker needs
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
}

// WorkerService periodically scans for devices that have stopped
// polling and logs them so operators notice dead displays.
type WorkerService struct {
	devices        DeviceLister
	interval       time.Duration
	staleThreshold time.Duration
	log            *zap.Logger
}

func NewWorkerService(devices DeviceLister, interval, staleThreshold time.Duration, log *zap.Logger) *WorkerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerService{
		devices:        devices,
		interval:       interval,
		staleThreshold: staleThreshold,
		log:            log,
	}
}

// Start runs the scan loop until the context is cancelled. Call it in
// its own goroutine.
func (w *WorkerService) Start(ctx context.Context) {
	w.log.Info("stale device worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("stale_threshold", w.staleThreshold))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stale device worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *WorkerService) scan(ctx context.Context) {
	devices, err := w.devices.ListDevices(ctx)
	if err != nil {
		w.log.Error("stale device scan failed", zap.Error(err))
		return
	}

	cutoff := time.Now().UTC().Add(-w.staleThreshold)
	for i := range devices {
		device := &devices[i]
		if device.LastSeen == nil || device.LastSeen.After(cutoff) {
			continue
		}
		w.log.Warn("device has not polled recently",
			zap.String("device_id", device.DeviceID),
			zap.String("name", device.Name),
			zap.Time("last_seen", *device.LastSeen))
	}
}
