package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tracker_service/internal/apperr"
	"tracker_service/internal/models"
	"tracker_service/internal/storage"

	"golang.org/x/sync/errgroup"
)

// RegisterDevice registers a device or returns it unchanged when the id is
// already taken. A fresh token is minted up front, but the store's
// insert-if-absent decides which token survives, so repeated registrations
// always come back with byte-identical tokens.
func (s *service) RegisterDevice(ctx context.Context, deviceID, deviceName, ownerID string) (models.Device, error) {
	const op = "service.RegisterDevice"

	deviceID = strings.TrimSpace(deviceID)

	token, err := s.tokens.Issue(models.PrincipalDevice, deviceID, s.deviceTokenTTL)
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	device, _, err := s.storage.CreateDeviceIfAbsent(ctx, models.Device{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		OwnerID:    normalizeID(ownerID),
		Token:      token,
	})
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

func (s *service) GetDevice(ctx context.Context, deviceID string) (models.Device, error) {
	const op = "service.GetDevice"

	device, err := s.storage.GetDeviceByID(ctx, deviceID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Device{}, apperr.NotFound("device not found")
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

func (s *service) UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error) {
	const op = "service.UpdateDevice"

	device, err := s.storage.UpdateDevice(ctx, deviceID, upd)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Device{}, apperr.NotFound("device not found")
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

// ListOwnerDevices returns the owner's devices, each enriched with its most
// recent sample. The per-device lookups fan out concurrently; a device with
// no samples gets a nil LatestLocation.
func (s *service) ListOwnerDevices(ctx context.Context, ownerID string) ([]models.DeviceWithLocation, error) {
	const op = "service.ListOwnerDevices"

	devices, err := s.storage.ListDevicesByOwner(ctx, normalizeID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	enriched := make([]models.DeviceWithLocation, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	for i, device := range devices {
		i, device := i, device
		g.Go(func() error {
			sample, err := s.storage.GetLatestLocation(gctx, device.DeviceID)
			if errors.Is(err, storage.ErrNotFound) {
				enriched[i] = models.DeviceWithLocation{Device: device}
				return nil
			}
			if err != nil {
				return err
			}
			enriched[i] = models.DeviceWithLocation{Device: device, LatestLocation: &sample}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return enriched, nil
}
