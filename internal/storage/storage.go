package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker_service/internal/models"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	ownersTable    = "owners"
	devicesTable   = "devices"
	locationsTable = "locations"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// DuplicateError reports which unique field a write collided on.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// HistoryFilter bounds a location history query. Nil bounds are open;
// Start and End are inclusive. Limit must already be validated upstream.
type HistoryFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

type Storage interface {

	// Owners
	FindOwnerConflict(ctx context.Context, ownerID, email string) (string, error)
	CreateOwner(ctx context.Context, owner models.Owner, passwordHash string) (models.Owner, error)
	GetOwnerByID(ctx context.Context, ownerID string) (models.Owner, error)
	GetCredentialsByOwnerID(ctx context.Context, ownerID string) (models.Credentials, error)
	UpdateOwnerProfile(ctx context.Context, ownerID string, upd models.OwnerProfileUpdate) (models.Owner, error)
	UpdatePasswordHash(ctx context.Context, ownerID, passwordHash string) error
	TouchLastLogin(ctx context.Context, ownerID string, at time.Time) error
	SetOwnerActive(ctx context.Context, ownerID string, active bool) error

	// Devices
	CreateDeviceIfAbsent(ctx context.Context, device models.Device) (models.Device, bool, error)
	GetDeviceByID(ctx context.Context, deviceID string) (models.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error)
	ListDevicesByOwner(ctx context.Context, ownerID string) ([]models.Device, error)

	// Locations
	InsertLocation(ctx context.Context, sample models.LocationSample) (models.LocationSample, error)
	InsertLocationBatch(ctx context.Context, samples []models.LocationSample) (int, error)
	GetLatestLocation(ctx context.Context, deviceID string) (models.LocationSample, error)
	GetLocationHistory(ctx context.Context, deviceID string, filter HistoryFilter) ([]models.LocationSample, error)
	GetLocationsByMode(ctx context.Context, deviceID, mode string, limit int) ([]models.LocationSample, error)

	Close()
}

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(dbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(context.Background(), dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st := &PostgresStorage{db: conn}

	if err := st.bootstrap(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// bootstrap creates the schema when missing. Purging of samples older than
// the 90 day retention horizon is delegated to the database (pg_cron or an
// external sweeper over the created_at index); queries never depend on it.
func (p *PostgresStorage) bootstrap(ctx context.Context) error {
	const op = "storage.bootstrap"

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		owner_id     TEXT PRIMARY KEY,
		owner_name   TEXT NOT NULL,
		email        TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		last_login   TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT owners_email_key UNIQUE (email)
	);
	CREATE TABLE IF NOT EXISTS %[2]s (
		device_id   TEXT PRIMARY KEY,
		device_name TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		token       TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		last_seen   TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT devices_token_key UNIQUE (token)
	);
	CREATE INDEX IF NOT EXISTS idx_devices_owner ON %[2]s (owner_id, created_at DESC);
	CREATE TABLE IF NOT EXISTS %[3]s (
		id         UUID PRIMARY KEY,
		device_id  TEXT NOT NULL,
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		accuracy   DOUBLE PRECISION NOT NULL DEFAULT 0,
		mode       TEXT NOT NULL DEFAULT 'background',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_locations_device_time ON %[3]s (device_id, created_at DESC);
	`, ownersTable, devicesTable, locationsTable)

	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}

// mapPgError converts a unique-constraint violation into a DuplicateError
// naming the colliding field; other errors pass through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "owners_pkey":
			return &DuplicateError{Field: "ownerId"}
		case "owners_email_key":
			return &DuplicateError{Field: "email"}
		case "devices_pkey":
			return &DuplicateError{Field: "deviceId"}
		case "devices_token_key":
			return &DuplicateError{Field: "token"}
		}
		return &DuplicateError{Field: pgErr.ConstraintName}
	}
	return err
}
