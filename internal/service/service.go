package service

import (
	"context"
	"time"

	"tracker_service/internal/auth"
	"tracker_service/internal/models"
	"tracker_service/internal/storage"
)

// LocationInput is a validated, bounds-checked sample as accepted at the
// boundary; the device id is never taken from it.
type LocationInput struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Mode      string
}

// HistoryQuery bounds a history lookup; nil times are open ends, both
// bounds inclusive. Limit is already validated to [1, 1000].
type HistoryQuery struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

type Service interface {
	RegisterOwner(ctx context.Context, ownerID, ownerName, email, password, companyName, phone string) (models.Owner, error)
	Authenticate(ctx context.Context, ownerID, password string) (models.Owner, error)
	ChangePassword(ctx context.Context, ownerID, currentPassword, newPassword string) error
	UpdateOwnerProfile(ctx context.Context, ownerID string, upd models.OwnerProfileUpdate) (models.Owner, error)
	GetOwner(ctx context.Context, ownerID string) (models.Owner, error)

	RegisterDevice(ctx context.Context, deviceID, deviceName, ownerID string) (models.Device, error)
	GetDevice(ctx context.Context, deviceID string) (models.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error)
	ListOwnerDevices(ctx context.Context, ownerID string) ([]models.DeviceWithLocation, error)

	IngestLocation(ctx context.Context, deviceID string, in LocationInput) (models.LocationSample, error)
	IngestLocationBatch(ctx context.Context, deviceID string, in []LocationInput) (int, error)
	LatestLocation(ctx context.Context, deviceID string) (models.LocationSample, error)
	LocationHistory(ctx context.Context, deviceID string, q HistoryQuery) ([]models.LocationSample, error)
	LocationsByMode(ctx context.Context, deviceID, mode string, limit int) ([]models.LocationSample, error)
}

type service struct {
	storage        storage.Storage
	tokens         *auth.TokenService
	deviceTokenTTL time.Duration
}

func NewService(st storage.Storage, tokens *auth.TokenService, deviceTokenTTL time.Duration) *service {
	return &service{
		storage:        st,
		tokens:         tokens,
		deviceTokenTTL: deviceTokenTTL,
	}
}
