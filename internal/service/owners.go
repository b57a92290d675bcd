package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker_service/internal/apperr"
	"tracker_service/internal/auth"
	"tracker_service/internal/models"
	"tracker_service/internal/storage"
)

// dummyHash is compared against when the owner id is unknown, so a failed
// login takes the same time whether the id or the password was wrong.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *service) RegisterOwner(ctx context.Context, ownerID, ownerName, email, password, companyName, phone string) (models.Owner, error) {
	const op = "service.RegisterOwner"

	ownerID = normalizeID(ownerID)
	email = normalizeID(email)

	field, err := s.storage.FindOwnerConflict(ctx, ownerID, email)
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}
	if field != "" {
		return models.Owner{}, apperr.Conflict(field)
	}

	// Hash, then persist. The plaintext is not retained past this point.
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	owner, err := s.storage.CreateOwner(ctx, models.Owner{
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		Email:       email,
		CompanyName: companyName,
		Phone:       phone,
	}, passwordHash)
	if err != nil {
		// A concurrent registration can still win the insert.
		var dup *storage.DuplicateError
		if errors.As(err, &dup) {
			return models.Owner{}, apperr.Conflict(dup.Field)
		}
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}

func (s *service) Authenticate(ctx context.Context, ownerID, password string) (models.Owner, error) {
	const op = "service.Authenticate"

	ownerID = normalizeID(ownerID)

	cred, err := s.storage.GetCredentialsByOwnerID(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		auth.CheckPasswordHash(dummyHash, password)
		return models.Owner{}, apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	if !cred.IsActive {
		return models.Owner{}, apperr.New(apperr.KindAccountDisabled, "owner account is inactive")
	}

	if !auth.CheckPasswordHash(cred.PasswordHash, password) {
		return models.Owner{}, apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
	}

	now := time.Now()
	if err := s.storage.TouchLastLogin(ctx, ownerID, now); err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	owner, err := s.storage.GetOwnerByID(ctx, ownerID)
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}

func (s *service) ChangePassword(ctx context.Context, ownerID, currentPassword, newPassword string) error {
	const op = "service.ChangePassword"

	cred, err := s.storage.GetCredentialsByOwnerID(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("owner not found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !auth.CheckPasswordHash(cred.PasswordHash, currentPassword) {
		return apperr.New(apperr.KindInvalidCredentials, "current password is incorrect")
	}

	// The new password is always re-hashed; there is no code path that
	// persists it in any other form.
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, ownerID, passwordHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *service) UpdateOwnerProfile(ctx context.Context, ownerID string, upd models.OwnerProfileUpdate) (models.Owner, error) {
	const op = "service.UpdateOwnerProfile"

	if upd.Email != nil {
		normalized := normalizeID(*upd.Email)
		upd.Email = &normalized
	}

	owner, err := s.storage.UpdateOwnerProfile(ctx, ownerID, upd)
	if err != nil {
		var dup *storage.DuplicateError
		if errors.As(err, &dup) {
			return models.Owner{}, apperr.Conflict(dup.Field)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return models.Owner{}, apperr.NotFound("owner not found")
		}
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}

func (s *service) GetOwner(ctx context.Context, ownerID string) (models.Owner, error) {
	const op = "service.GetOwner"

	owner, err := s.storage.GetOwnerByID(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Owner{}, apperr.NotFound("owner not found")
	}
	if err != nil {
		return models.Owner{}, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}
