package models

import "time"

// Device represents the devices table
// A device is a physical weather display registered to a user
type Device struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	DeviceID        string     `gorm:"uniqueIndex;not null;size:64" json:"device_id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Name            string     `gorm:"not null;size:100" json:"name"`
	Address         string     `gorm:"not null;size:255" json:"address"`
	Lat             *float64   `json:"lat"`
	Lon             *float64   `json:"lon"`
	Timezone        string     `gorm:"size:64" json:"timezone"`
	DisplaySettings *string    `gorm:"type:text" json:"display_settings,omitempty"`
	LastSeen        *time.Time `json:"last_seen"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for Device model
func (Device) TableName() string {
	return "devices"
}

// HasLocation reports whether the device has coordinates and a timezone configured
func (d *Device) HasLocation() bool {
	return d.Lat != nil && d.Lon != nil && d.Timezone != ""
}

// DevicePatch enumerates the updatable device fields. Nil means
// "leave unchanged"; unknown fields are rejected at the API boundary.
type DevicePatch struct {
	Name            *string  `json:"name"`
	Address         *string  `json:"address"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	Timezone        *string  `json:"timezone"`
	DisplaySettings *string  `json:"display_settings"`
}
