package service

import (
	"context"
	"errors"
	"fmt"

	"tracker_service/internal/apperr"
	"tracker_service/internal/models"
	"tracker_service/internal/storage"

	"github.com/google/uuid"
)

// newSample stamps the authenticated device id onto the input; the caller's
// payload can never write on behalf of another device.
func newSample(deviceID string, in LocationInput) models.LocationSample {
	mode := in.Mode
	if mode == "" {
		mode = models.ModeBackground
	}

	return models.LocationSample{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
		Mode:      mode,
	}
}

func (s *service) IngestLocation(ctx context.Context, deviceID string, in LocationInput) (models.LocationSample, error) {
	const op = "service.IngestLocation"

	sample, err := s.storage.InsertLocation(ctx, newSample(deviceID, in))
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	return sample, nil
}

func (s *service) IngestLocationBatch(ctx context.Context, deviceID string, in []LocationInput) (int, error) {
	const op = "service.IngestLocationBatch"

	samples := make([]models.LocationSample, 0, len(in))
	for _, input := range in {
		samples = append(samples, newSample(deviceID, input))
	}

	count, err := s.storage.InsertLocationBatch(ctx, samples)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// LatestLocation checks samples, not the device record: an unknown device
// and a device that has never reported are indistinguishable here.
func (s *service) LatestLocation(ctx context.Context, deviceID string) (models.LocationSample, error) {
	const op = "service.LatestLocation"

	sample, err := s.storage.GetLatestLocation(ctx, deviceID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.LocationSample{}, apperr.NotFound("no location data found for this device")
	}
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	return sample, nil
}

func (s *service) LocationHistory(ctx context.Context, deviceID string, q HistoryQuery) ([]models.LocationSample, error) {
	const op = "service.LocationHistory"

	samples, err := s.storage.GetLocationHistory(ctx, deviceID, storage.HistoryFilter{
		Start: q.Start,
		End:   q.End,
		Limit: q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return samples, nil
}

func (s *service) LocationsByMode(ctx context.Context, deviceID, mode string, limit int) ([]models.LocationSample, error) {
	const op = "service.LocationsByMode"

	samples, err := s.storage.GetLocationsByMode(ctx, deviceID, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return samples, nil
}
