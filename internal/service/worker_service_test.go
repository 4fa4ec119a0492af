package service

import (
	"context"
	"testing"
	"time"

	"weather-display-backend/internal/models"
)

type countingLister struct {
	calls   chan struct{}
	devices []models.Device
}

func (l *countingLister) ListDevices(_ context.Context) ([]models.Device, error) {
	select {
	case l.calls <- struct{}{}:
	default:
	}
	return l.devices, nil
}

func TestWorkerScansAndStops(t *testing.T) {
	stale := time.Now().UTC().Add(-2 * time.Hour)
	lister := &countingLister{
		calls: make(chan struct{}, 1),
		devices: []models.Device{
			{DeviceID: "dev-1", Name: "Kitchen", LastSeen: &stale},
			{DeviceID: "dev-2", Name: "Porch"},
		},
	}

	worker := NewWorkerService(lister, 5*time.Millisecond, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-lister.calls:
	case <-time.After(time.Second):
		t.Fatal("worker never scanned")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
