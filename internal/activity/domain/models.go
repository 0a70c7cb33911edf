// Package domain contains the billable interval model and tracker contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageInterval is one timed span of billable activity. At most one interval
// per (user, activity type) may be open (EndTime nil) at a time.
// DurationMinutes is fixed when the interval closes, rounded up to the next
// whole minute, and never recomputed afterwards.
type UsageInterval struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID `gorm:"not null;index:ix_usage_intervals_user_type" json:"user_id"`
	ActivityType int32        `gorm:"not null;index:ix_usage_intervals_user_type" json:"activity_type"`

	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int64      `gorm:"not null;default:0" json:"duration_minutes"`

	Paid       bool          `gorm:"not null;default:false" json:"paid"`
	PaymentRef *snowflake.ID `json:"payment_ref,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageInterval) TableName() string { return "usage_intervals" }

// Open reports whether the interval is still running.
func (u UsageInterval) Open() bool { return u.EndTime == nil }
