package models

import "time"

const (
	SubscriptionStatusInactive  = "inactive"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusSuspended = "suspended"
)

// Subscription is the single local record of a user's entitlement, keyed by
// the opaque user identifier the app supplies. It mirrors the last accepted
// billing-provider state; ProviderStatus keeps the raw provider vocabulary
// for diagnostics and is never used for entitlement decisions.
//
// Cancellation is a status transition, never a row delete.
type Subscription struct {
	ID                     uint      `gorm:"primaryKey" json:"-"`
	UserID                 string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"user_id"`
	ProviderSubscriptionID string    `gorm:"type:varchar(191);index;default:''" json:"provider_subscription_id"`
	ProviderCustomerID     string    `gorm:"type:varchar(191);default:''" json:"provider_customer_id"`
	Status                 string    `gorm:"type:varchar(32);not null;default:'inactive';index" json:"status"`
	ProviderStatus         string    `gorm:"type:varchar(64);default:''" json:"provider_status"`
	IsDevMode              bool      `gorm:"default:false" json:"is_dev_mode"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitled reports whether this record currently grants paid access.
func (s *Subscription) IsEntitled() bool {
	return s.Status == SubscriptionStatusActive
}
