package repository

import (
	"context"
	"errors"
	"time"

	"weather-display-backend/internal/models"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepo(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// CreateDevice creates a new device
func (r *DeviceRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

// GetDeviceByDeviceID retrieves a device by its public device_id
func (r *DeviceRepository) GetDeviceByDeviceID(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

// ListDevices returns all devices ordered by name
func (r *DeviceRepository) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.WithContext(ctx).Order("name").Find(&devices).Error
	return devices, err
}

// ListDevicesByUserID returns all devices owned by a user
func (r *DeviceRepository) ListDevicesByUserID(ctx context.Context, userID uint) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&devices).Error
	return devices, err
}

// UpdateDevice applies the non-nil fields of the patch to a device.
// The patch struct enumerates every updatable column; nothing else can
// be written through this path.
func (r *DeviceRepository) UpdateDevice(ctx context.Context, deviceID string, patch models.DevicePatch) error {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.Lat != nil {
		updates["lat"] = *patch.Lat
	}
	if patch.Lon != nil {
		updates["lon"] = *patch.Lon
	}
	if patch.Timezone != nil {
		updates["timezone"] = *patch.Timezone
	}
	if patch.DisplaySettings != nil {
		updates["display_settings"] = *patch.DisplaySettings
	}

	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDevice deletes a device by its public device_id
func (r *DeviceRepository) DeleteDevice(ctx context.Context, deviceID string) error {
	result := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Delete(&models.Device{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchDeviceLastSeen updates the device heartbeat timestamp
func (r *DeviceRepository) TouchDeviceLastSeen(ctx context.Context, deviceID string) error {
	return r.db.WithContext(ctx).Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Update("last_seen", time.Now().UTC()).Error
}

// CountDevicesByUserID returns the number of devices owned by a user
func (r *DeviceRepository) CountDevicesByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
