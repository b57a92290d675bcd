package models

import (
	"time"

	"github.com/google/uuid"
)

// Location sample modes.
const (
	ModeBackground = "background"
	ModeRealtime   = "realtime"
)

// Principal kinds encoded into bearer tokens.
const (
	PrincipalOwner  = "owner"
	PrincipalDevice = "device"
)

type Owner struct {
	OwnerID     string     `json:"ownerId"`
	OwnerName   string     `json:"ownerName"`
	Email       string     `json:"email"`
	CompanyName string     `json:"companyName"`
	Phone       string     `json:"phone"`
	IsActive    bool       `json:"isActive"`
	LastLogin   *time.Time `json:"lastLogin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Credentials carries the stored password hash; it never leaves the
// storage/service boundary.
type Credentials struct {
	OwnerID      string
	PasswordHash string
	IsActive     bool
}

type Device struct {
	DeviceID   string     `json:"deviceId"`
	DeviceName string     `json:"deviceName"`
	OwnerID    string     `json:"ownerId"`
	Token      string     `json:"token,omitempty"`
	IsActive   bool       `json:"isActive"`
	LastSeen   *time.Time `json:"lastSeen"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// DeviceWithLocation is a Device enriched with its most recent sample,
// or nil when the device has never reported.
type DeviceWithLocation struct {
	Device
	LatestLocation *LocationSample `json:"latestLocation"`
}

type LocationSample struct {
	ID        uuid.UUID `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnerProfileUpdate holds the mutable profile fields; nil means "leave as is".
type OwnerProfileUpdate struct {
	OwnerName   *string
	Email       *string
	CompanyName *string
	Phone       *string
}

// DeviceUpdate holds the mutable device fields; nil means "leave as is".
type DeviceUpdate struct {
	DeviceName *string
	IsActive   *bool
}
