package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"weather-display-backend/internal/models"
	"weather-display-backend/internal/provider"
	"weather-display-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDeviceNotFound = errors.New("device not found")

// DeviceStore is the persistence surface DeviceService needs
type DeviceStore interface {
	CreateDevice(ctx context.Context, device *models.Device) error
	GetDeviceByDeviceID(ctx context.Context, deviceID string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]models.Device, error)
	ListDevicesByUserID(ctx context.Context, userID uint) ([]models.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, patch models.DevicePatch) error
	DeleteDevice(ctx context.Context, deviceID string) error
	TouchDeviceLastSeen(ctx context.Context, deviceID string) error
}

// Geocoder resolves a street address to coordinates and a timezone
type Geocoder interface {
	GeocodeAddress(ctx context.Context, address string) (*provider.GeocodeResult, error)
}

// DeviceService manages weather display registrations
type DeviceService struct {
	devices  DeviceStore
	geocoder Geocoder
	audit    *repository.AuditRepository
	log      *zap.Logger
}

func NewDeviceService(devices DeviceStore, geocoder Geocoder, audit *repository.AuditRepository, log *zap.Logger) *DeviceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeviceService{devices: devices, geocoder: geocoder, audit: audit, log: log}
}

// Create registers a new device owned by the given user. The address
// is geocoded immediately; a device with no resolvable address is
// stored without coordinates and cannot serve weather until updated.
func (s *DeviceService) Create(ctx context.Context, owner *models.User, name, address string) (*models.Device, error) {
	device := &models.Device{
		DeviceID: uuid.NewString(),
		UserID:   owner.ID,
		Name:     name,
		Address:  address,
	}

	if address != "" && s.geocoder != nil {
		if result, err := s.geocoder.GeocodeAddress(ctx, address); err != nil {
			s.log.Warn("geocoding failed for new device",
				zap.String("device_id", device.DeviceID),
				zap.Error(err))
		} else {
			device.Lat = &result.Lat
			device.Lon = &result.Lon
			device.Timezone = result.Timezone
			device.Address = result.FormattedAddress
		}
	}

	if err := s.devices.CreateDevice(ctx, device); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, &owner.ID, "device.create", fmt.Sprintf("device_id=%s name=%s", device.DeviceID, name))
	s.log.Info("device created",
		zap.String("device_id", device.DeviceID),
		zap.Uint("user_id", owner.ID))
	return device, nil
}

// Get returns a device by its public device_id
func (s *DeviceService) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	device, err := s.devices.GetDeviceByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return device, nil
}

// ListFor returns the devices visible to a principal: admins see every
// device, everyone else sees only their own.
func (s *DeviceService) ListFor(ctx context.Context, principal *models.User) ([]models.Device, error) {
	if principal.IsAdmin() {
		return s.devices.ListDevices(ctx)
	}
	return s.devices.ListDevicesByUserID(ctx, principal.ID)
}

// Update applies a field patch to a device. When the address changes,
// the device is re-geocoded and any caller-supplied coordinates are
// overridden by the geocoder's answer.
func (s *DeviceService) Update(ctx context.Context, actor *models.User, deviceID string, patch models.DevicePatch) (*models.Device, error) {
	current, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if patch.Address != nil && normalizeAddress(*patch.Address) != normalizeAddress(current.Address) && s.geocoder != nil {
		if result, err := s.geocoder.GeocodeAddress(ctx, *patch.Address); err != nil {
			s.log.Warn("geocoding failed for device update",
				zap.String("device_id", deviceID),
				zap.Error(err))
		} else {
			patch.Lat = &result.Lat
			patch.Lon = &result.Lon
			patch.Timezone = &result.Timezone
			patch.Address = &result.FormattedAddress
		}
	}

	if err := s.devices.UpdateDevice(ctx, deviceID, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	s.writeAudit(ctx, actorID(actor), "device.update", fmt.Sprintf("device_id=%s", deviceID))
	return s.Get(ctx, deviceID)
}

// Delete removes a device registration
func (s *DeviceService) Delete(ctx context.Context, actor *models.User, deviceID string) error {
	if err := s.devices.DeleteDevice(ctx, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}
	s.writeAudit(ctx, actorID(actor), "device.delete", fmt.Sprintf("device_id=%s", deviceID))
	s.log.Info("device deleted", zap.String("device_id", deviceID))
	return nil
}

// Heartbeat records that the device polled the backend. Failures are
// logged and swallowed so a heartbeat problem never blocks a weather
// response.
func (s *DeviceService) Heartbeat(ctx context.Context, deviceID string) {
	if err := s.devices.TouchDeviceLastSeen(ctx, deviceID); err != nil {
		s.log.Warn("failed to record device heartbeat",
			zap.String("device_id", deviceID),
			zap.Error(err))
	}
}

func (s *DeviceService) writeAudit(ctx context.Context, userID *uint, action, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, userID, action, details); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
