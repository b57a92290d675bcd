package service

import (
	"context"
	"testing"

	"tracker_service/internal/apperr"
	"tracker_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingest(t *testing.T, svc *service, deviceID string, lat, lon float64) models.LocationSample {
	t.Helper()

	sample, err := svc.IngestLocation(context.Background(), deviceID, LocationInput{Latitude: lat, Longitude: lon})
	require.NoError(t, err)
	return sample
}

func TestIngestDefaults(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterDevice(ctx, "tracker-1", "Van 1", "acme")
	require.NoError(t, err)

	sample, err := svc.IngestLocation(ctx, "tracker-1", LocationInput{Latitude: 60.17, Longitude: 24.94})
	require.NoError(t, err)

	assert.Equal(t, models.ModeBackground, sample.Mode)
	assert.Zero(t, sample.Accuracy)
	assert.Equal(t, "tracker-1", sample.DeviceID)
	assert.False(t, sample.CreatedAt.IsZero())
}

func TestIngestUpdatesLastSeen(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterDevice(ctx, "tracker-1", "Van 1", "acme")
	require.NoError(t, err)

	ingest(t, svc, "tracker-1", 60.17, 24.94)

	device, err := svc.GetDevice(ctx, "tracker-1")
	require.NoError(t, err)
	require.NotNil(t, device.LastSeen, "an accepted write bumps lastSeen")
}

func TestHistoryOrderingDescending(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s1 := ingest(t, svc, "tracker-1", 60.1, 24.1)
	s2 := ingest(t, svc, "tracker-1", 60.2, 24.2)
	s3 := ingest(t, svc, "tracker-1", 60.3, 24.3)

	samples, err := svc.LocationHistory(ctx, "tracker-1", HistoryQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, s3.ID, samples[0].ID)
	assert.Equal(t, s2.ID, samples[1].ID)
	assert.Equal(t, s1.ID, samples[2].ID)
}

func TestHistoryBoundsAreInclusive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	ingest(t, svc, "tracker-1", 60.1, 24.1)
	s2 := ingest(t, svc, "tracker-1", 60.2, 24.2)
	s3 := ingest(t, svc, "tracker-1", 60.3, 24.3)

	samples, err := svc.LocationHistory(ctx, "tracker-1", HistoryQuery{
		Start: &s2.CreatedAt,
		End:   &s3.CreatedAt,
		Limit: 100,
	})
	require.NoError(t, err)
	require.Len(t, samples, 2, "both boundary samples are included")

	assert.Equal(t, s3.ID, samples[0].ID)
	assert.Equal(t, s2.ID, samples[1].ID)
}

func TestHistoryLimit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ingest(t, svc, "tracker-1", 60, 24)
	}

	samples, err := svc.LocationHistory(ctx, "tracker-1", HistoryQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestHistoryEmptyResultIsNotAnError(t *testing.T) {
	svc := newTestService()

	samples, err := svc.LocationHistory(context.Background(), "ghost", HistoryQuery{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestIngestBatch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RegisterDevice(ctx, "tracker-1", "Van 1", "acme")
	require.NoError(t, err)

	inputs := []LocationInput{
		{Latitude: 60.1, Longitude: 24.1},
		{Latitude: 60.2, Longitude: 24.2, Mode: models.ModeRealtime},
		{Latitude: 60.3, Longitude: 24.3},
	}

	count, err := svc.IngestLocationBatch(ctx, "tracker-1", inputs)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	samples, err := svc.LocationHistory(ctx, "tracker-1", HistoryQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, samples, 3, "every batched sample is retrievable")

	device, err := svc.GetDevice(ctx, "tracker-1")
	require.NoError(t, err)
	assert.NotNil(t, device.LastSeen)
}

func TestLatestLocation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	ingest(t, svc, "tracker-1", 60.1, 24.1)
	s2 := ingest(t, svc, "tracker-1", 60.2, 24.2)

	latest, err := svc.LatestLocation(ctx, "tracker-1")
	require.NoError(t, err)
	assert.Equal(t, s2.ID, latest.ID)
}

func TestLatestLocationNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// A device with zero samples and an unknown device look identical.
	_, err := svc.RegisterDevice(ctx, "tracker-1", "Van 1", "acme")
	require.NoError(t, err)

	_, errRegistered := svc.LatestLocation(ctx, "tracker-1")
	_, errUnknown := svc.LatestLocation(ctx, "ghost")

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(errRegistered))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(errUnknown))
	assert.Equal(t, errRegistered.Error(), errUnknown.Error())
}

func TestLocationsByMode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.IngestLocation(ctx, "tracker-1", LocationInput{Latitude: 60.1, Longitude: 24.1, Mode: models.ModeRealtime})
	require.NoError(t, err)
	_, err = svc.IngestLocation(ctx, "tracker-1", LocationInput{Latitude: 60.2, Longitude: 24.2})
	require.NoError(t, err)

	realtime, err := svc.LocationsByMode(ctx, "tracker-1", models.ModeRealtime, 100)
	require.NoError(t, err)
	require.Len(t, realtime, 1)
	assert.Equal(t, models.ModeRealtime, realtime[0].Mode)

	background, err := svc.LocationsByMode(ctx, "tracker-1", models.ModeBackground, 100)
	require.NoError(t, err)
	assert.Len(t, background, 1)
}
