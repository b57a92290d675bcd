package storage

import (
	"context"
	"errors"
	"fmt"

	"tracker_service/internal/models"

	"github.com/jackc/pgx/v4"
)

const locationColumns = "id, device_id, latitude, longitude, accuracy, mode, created_at"

// InsertLocation stores one sample and bumps the owning device's last_seen
// in the same transaction; the write is not considered committed unless
// both land.
func (p *PostgresStorage) InsertLocation(ctx context.Context, sample models.LocationSample) (models.LocationSample, error) {
	const op = "storage.InsertLocation"

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	insert := fmt.Sprintf(`INSERT INTO %s (id, device_id, latitude, longitude, accuracy, mode)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING %s;`, locationsTable, locationColumns)

	var stored models.LocationSample
	err = tx.QueryRow(ctx, insert,
		sample.ID, sample.DeviceID, sample.Latitude, sample.Longitude, sample.Accuracy, sample.Mode,
	).Scan(
		&stored.ID, &stored.DeviceID, &stored.Latitude, &stored.Longitude,
		&stored.Accuracy, &stored.Mode, &stored.CreatedAt,
	)
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	touch := fmt.Sprintf("UPDATE %s SET last_seen=now() WHERE device_id=$1;", devicesTable)
	if _, err := tx.Exec(ctx, touch, sample.DeviceID); err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	return stored, nil
}

// InsertLocationBatch stores all samples or none of them, then bumps
// last_seen once. Samples are assumed to share one device id.
func (p *PostgresStorage) InsertLocationBatch(ctx context.Context, samples []models.LocationSample) (int, error) {
	const op = "storage.InsertLocationBatch"

	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	insert := fmt.Sprintf(`INSERT INTO %s (id, device_id, latitude, longitude, accuracy, mode)
	VALUES ($1, $2, $3, $4, $5, $6);`, locationsTable)

	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(insert, sample.ID, sample.DeviceID, sample.Latitude, sample.Longitude, sample.Accuracy, sample.Mode)
	}

	results := tx.SendBatch(ctx, batch)
	for range samples {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	touch := fmt.Sprintf("UPDATE %s SET last_seen=now() WHERE device_id=$1;", devicesTable)
	if _, err := tx.Exec(ctx, touch, samples[0].DeviceID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return len(samples), nil
}

func (p *PostgresStorage) GetLatestLocation(ctx context.Context, deviceID string) (models.LocationSample, error) {
	const op = "storage.GetLatestLocation"

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE device_id=$1
	ORDER BY created_at DESC LIMIT 1;`, locationColumns, locationsTable)

	var sample models.LocationSample
	err := p.db.QueryRow(ctx, query, deviceID).Scan(
		&sample.ID, &sample.DeviceID, &sample.Latitude, &sample.Longitude,
		&sample.Accuracy, &sample.Mode, &sample.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("%s: %w", op, err)
	}

	return sample, nil
}

func (p *PostgresStorage) GetLocationHistory(ctx context.Context, deviceID string, filter HistoryFilter) ([]models.LocationSample, error) {
	const op = "storage.GetLocationHistory"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE device_id=$1", locationColumns, locationsTable)
	args := []interface{}{deviceID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d;", len(args))

	return p.queryLocations(ctx, op, query, args...)
}

func (p *PostgresStorage) GetLocationsByMode(ctx context.Context, deviceID, mode string, limit int) ([]models.LocationSample, error) {
	const op = "storage.GetLocationsByMode"

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE device_id=$1 AND mode=$2
	ORDER BY created_at DESC LIMIT $3;`, locationColumns, locationsTable)

	return p.queryLocations(ctx, op, query, deviceID, mode, limit)
}

func (p *PostgresStorage) queryLocations(ctx context.Context, op, query string, args ...interface{}) ([]models.LocationSample, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var sample models.LocationSample

		err := rows.Scan(
			&sample.ID, &sample.DeviceID, &sample.Latitude, &sample.Longitude,
			&sample.Accuracy, &sample.Mode, &sample.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return samples, nil
}
