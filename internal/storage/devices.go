package storage

import (
	"context"
	"errors"
	"fmt"

	"tracker_service/internal/models"

	"github.com/jackc/pgx/v4"
)

const deviceColumns = "device_id, device_name, owner_id, token, is_active, last_seen, created_at, updated_at"

// CreateDeviceIfAbsent inserts the device unless one with the same id
// already exists, in which case the existing record is returned untouched.
// The insert is conditional at the database, so two concurrent first
// registrations converge on a single persisted token. The bool reports
// whether this call created the record.
func (p *PostgresStorage) CreateDeviceIfAbsent(ctx context.Context, device models.Device) (models.Device, bool, error) {
	const op = "storage.CreateDeviceIfAbsent"

	insert := fmt.Sprintf(`INSERT INTO %s (device_id, device_name, owner_id, token)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (device_id) DO NOTHING
	RETURNING %s;`, devicesTable, deviceColumns)

	var created models.Device
	err := p.db.QueryRow(ctx, insert, device.DeviceID, device.DeviceName, device.OwnerID, device.Token).Scan(
		&created.DeviceID, &created.DeviceName, &created.OwnerID, &created.Token,
		&created.IsActive, &created.LastSeen, &created.CreatedAt, &created.UpdatedAt,
	)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Device{}, false, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	// Conflict: another registration won, read the winner.
	existing, err := p.GetDeviceByID(ctx, device.DeviceID)
	if err != nil {
		return models.Device{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return existing, false, nil
}

func (p *PostgresStorage) GetDeviceByID(ctx context.Context, deviceID string) (models.Device, error) {
	const op = "storage.GetDeviceByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE device_id=$1;", deviceColumns, devicesTable)

	var device models.Device
	err := p.db.QueryRow(ctx, query, deviceID).Scan(
		&device.DeviceID, &device.DeviceName, &device.OwnerID, &device.Token,
		&device.IsActive, &device.LastSeen, &device.CreatedAt, &device.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Device{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

func (p *PostgresStorage) UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error) {
	const op = "storage.UpdateDevice"

	query := fmt.Sprintf(`UPDATE %s SET
		device_name = COALESCE($2, device_name),
		is_active   = COALESCE($3, is_active),
		updated_at  = now()
	WHERE device_id=$1
	RETURNING %s;`, devicesTable, deviceColumns)

	var device models.Device
	err := p.db.QueryRow(ctx, query, deviceID, upd.DeviceName, upd.IsActive).Scan(
		&device.DeviceID, &device.DeviceName, &device.OwnerID, &device.Token,
		&device.IsActive, &device.LastSeen, &device.CreatedAt, &device.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Device{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

func (p *PostgresStorage) ListDevicesByOwner(ctx context.Context, ownerID string) ([]models.Device, error) {
	const op = "storage.ListDevicesByOwner"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_id=$1 ORDER BY created_at DESC;", deviceColumns, devicesTable)

	rows, err := p.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var device models.Device

		err := rows.Scan(
			&device.DeviceID, &device.DeviceName, &device.OwnerID, &device.Token,
			&device.IsActive, &device.LastSeen, &device.CreatedAt, &device.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return devices, nil
}
