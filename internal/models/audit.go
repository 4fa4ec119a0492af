package models

import "time"

// AuditLog is one security-relevant event in the audit_logs table.
// Services write rows for account activity (user.register, user.login,
// user.login_failed, user.role_change, user.delete), device lifecycle
// (device.create, device.update, device.delete) and API key lifecycle
// (apikey.generate, apikey.regenerate, apikey.delete). Rows are
// append-only and never read on a request path.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// UserID is nil when no principal resolved, e.g. a failed login
	// for an unknown username.
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
