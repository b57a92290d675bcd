package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker_service/internal/models"

	"github.com/jackc/pgx/v4"
)

const ownerColumns = "owner_id, owner_name, email, company_name, phone, is_active, last_login, created_at, updated_at"

// FindOwnerConflict reports which identity field an existing owner collides
// on ("ownerId" or "email"), or "" when neither is taken. Both fields are
// checked in a single query; ownerId wins when both collide.
func (p *PostgresStorage) FindOwnerConflict(ctx context.Context, ownerID, email string) (string, error) {
	const op = "storage.FindOwnerConflict"

	query := fmt.Sprintf(
		"SELECT owner_id, email FROM %s WHERE owner_id=$1 OR email=$2 LIMIT 1;", ownersTable)

	var existingID, existingEmail string
	err := p.db.QueryRow(ctx, query, ownerID, email).Scan(&existingID, &existingEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if existingID == ownerID {
		return "ownerId", nil
	}
	return "email", nil
}

func (p *PostgresStorage) CreateOwner(ctx context.Context, owner models.Owner, passwordHash string) (models.Owner, error) {
	const op = "storage.CreateOwner"

	query := fmt.Sprintf(`INSERT INTO %s (owner_id, owner_name, email, password_hash, company_name, phone)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING %s;`, ownersTable, ownerColumns)

	var created models.Owner
	err := p.db.QueryRow(ctx, query,
		owner.OwnerID, owner.OwnerName, owner.Email, passwordHash, owner.CompanyName, owner.Phone,
	).Scan(
		&created.OwnerID, &created.OwnerName, &created.Email, &created.CompanyName,
		&created.Phone, &created.IsActive, &created.LastLogin, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return created, nil
}

func (p *PostgresStorage) GetOwnerByID(ctx context.Context, ownerID string) (models.Owner, error) {
	const op = "storage.GetOwnerByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_id=$1;", ownerColumns, ownersTable)

	var owner models.Owner
	err := p.db.QueryRow(ctx, query, ownerID).Scan(
		&owner.OwnerID, &owner.OwnerName, &owner.Email, &owner.CompanyName,
		&owner.Phone, &owner.IsActive, &owner.LastLogin, &owner.CreatedAt, &owner.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Owner{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}

func (p *PostgresStorage) GetCredentialsByOwnerID(ctx context.Context, ownerID string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByOwnerID"

	query := fmt.Sprintf("SELECT owner_id, password_hash, is_active FROM %s WHERE owner_id=$1;", ownersTable)

	var cred models.Credentials
	err := p.db.QueryRow(ctx, query, ownerID).Scan(&cred.OwnerID, &cred.PasswordHash, &cred.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return cred, nil
}

func (p *PostgresStorage) UpdateOwnerProfile(ctx context.Context, ownerID string, upd models.OwnerProfileUpdate) (models.Owner, error) {
	const op = "storage.UpdateOwnerProfile"

	query := fmt.Sprintf(`UPDATE %s SET
		owner_name   = COALESCE($2, owner_name),
		email        = COALESCE($3, email),
		company_name = COALESCE($4, company_name),
		phone        = COALESCE($5, phone),
		updated_at   = now()
	WHERE owner_id=$1
	RETURNING %s;`, ownersTable, ownerColumns)

	var owner models.Owner
	err := p.db.QueryRow(ctx, query, ownerID, upd.OwnerName, upd.Email, upd.CompanyName, upd.Phone).Scan(
		&owner.OwnerID, &owner.OwnerName, &owner.Email, &owner.CompanyName,
		&owner.Phone, &owner.IsActive, &owner.LastLogin, &owner.CreatedAt, &owner.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Owner{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return owner, nil
}

func (p *PostgresStorage) UpdatePasswordHash(ctx context.Context, ownerID, passwordHash string) error {
	const op = "storage.UpdatePasswordHash"

	query := fmt.Sprintf("UPDATE %s SET password_hash=$1, updated_at=now() WHERE owner_id=$2;", ownersTable)

	tag, err := p.db.Exec(ctx, query, passwordHash, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

// SetOwnerActive soft-disables (or re-enables) an owner. There is no hard
// delete for owners.
func (p *PostgresStorage) SetOwnerActive(ctx context.Context, ownerID string, active bool) error {
	const op = "storage.SetOwnerActive"

	query := fmt.Sprintf("UPDATE %s SET is_active=$1, updated_at=now() WHERE owner_id=$2;", ownersTable)

	tag, err := p.db.Exec(ctx, query, active, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func (p *PostgresStorage) TouchLastLogin(ctx context.Context, ownerID string, at time.Time) error {
	const op = "storage.TouchLastLogin"

	query := fmt.Sprintf("UPDATE %s SET last_login=$1 WHERE owner_id=$2;", ownersTable)

	if _, err := p.db.Exec(ctx, query, at, ownerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
