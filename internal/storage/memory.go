package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tracker_service/internal/models"
)

type ownerRecord struct {
	owner        models.Owner
	passwordHash string
}

// MemoryStorage is a mutex-guarded in-process Storage. It backs tests and
// local runs without a database and honors the same invariants as the
// Postgres implementation, including the atomic insert-if-absent for
// devices.
type MemoryStorage struct {
	mu        sync.RWMutex
	owners    map[string]*ownerRecord
	devices   map[string]models.Device
	locations []models.LocationSample
	lastStamp time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		owners:  make(map[string]*ownerRecord),
		devices: make(map[string]models.Device),
	}
}

// nextStamp returns a strictly increasing timestamp so ingestion order is
// total even when the clock does not tick between writes.
func (m *MemoryStorage) nextStamp() time.Time {
	now := time.Now()
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Nanosecond)
	}
	m.lastStamp = now
	return now
}

func (m *MemoryStorage) FindOwnerConflict(_ context.Context, ownerID, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.owners[ownerID]; ok {
		return "ownerId", nil
	}
	for _, rec := range m.owners {
		if rec.owner.Email == email {
			return "email", nil
		}
	}
	return "", nil
}

func (m *MemoryStorage) CreateOwner(_ context.Context, owner models.Owner, passwordHash string) (models.Owner, error) {
	const op = "storage.MemoryStorage.CreateOwner"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[owner.OwnerID]; ok {
		return models.Owner{}, fmt.Errorf("%s: %w", op, &DuplicateError{Field: "ownerId"})
	}
	for _, rec := range m.owners {
		if rec.owner.Email == owner.Email {
			return models.Owner{}, fmt.Errorf("%s: %w", op, &DuplicateError{Field: "email"})
		}
	}

	now := time.Now()
	owner.IsActive = true
	owner.LastLogin = nil
	owner.CreatedAt = now
	owner.UpdatedAt = now

	m.owners[owner.OwnerID] = &ownerRecord{owner: owner, passwordHash: passwordHash}

	return owner, nil
}

func (m *MemoryStorage) GetOwnerByID(_ context.Context, ownerID string) (models.Owner, error) {
	const op = "storage.MemoryStorage.GetOwnerByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return models.Owner{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return rec.owner, nil
}

func (m *MemoryStorage) GetCredentialsByOwnerID(_ context.Context, ownerID string) (models.Credentials, error) {
	const op = "storage.MemoryStorage.GetCredentialsByOwnerID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return models.Credentials{
		OwnerID:      rec.owner.OwnerID,
		PasswordHash: rec.passwordHash,
		IsActive:     rec.owner.IsActive,
	}, nil
}

func (m *MemoryStorage) UpdateOwnerProfile(_ context.Context, ownerID string, upd models.OwnerProfileUpdate) (models.Owner, error) {
	const op = "storage.MemoryStorage.UpdateOwnerProfile"

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return models.Owner{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if upd.Email != nil && *upd.Email != rec.owner.Email {
		for id, other := range m.owners {
			if id != ownerID && other.owner.Email == *upd.Email {
				return models.Owner{}, fmt.Errorf("%s: %w", op, &DuplicateError{Field: "email"})
			}
		}
		rec.owner.Email = *upd.Email
	}
	if upd.OwnerName != nil {
		rec.owner.OwnerName = *upd.OwnerName
	}
	if upd.CompanyName != nil {
		rec.owner.CompanyName = *upd.CompanyName
	}
	if upd.Phone != nil {
		rec.owner.Phone = *upd.Phone
	}
	rec.owner.UpdatedAt = time.Now()

	return rec.owner, nil
}

func (m *MemoryStorage) UpdatePasswordHash(_ context.Context, ownerID, passwordHash string) error {
	const op = "storage.MemoryStorage.UpdatePasswordHash"

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	rec.passwordHash = passwordHash
	rec.owner.UpdatedAt = time.Now()

	return nil
}

func (m *MemoryStorage) SetOwnerActive(_ context.Context, ownerID string, active bool) error {
	const op = "storage.MemoryStorage.SetOwnerActive"

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	rec.owner.IsActive = active
	rec.owner.UpdatedAt = time.Now()

	return nil
}

func (m *MemoryStorage) TouchLastLogin(_ context.Context, ownerID string, at time.Time) error {
	const op = "storage.MemoryStorage.TouchLastLogin"

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.owners[ownerID]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	rec.owner.LastLogin = &at

	return nil
}

func (m *MemoryStorage) CreateDeviceIfAbsent(_ context.Context, device models.Device) (models.Device, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.devices[device.DeviceID]; ok {
		return existing, false, nil
	}

	now := time.Now()
	device.IsActive = true
	device.LastSeen = nil
	device.CreatedAt = now
	device.UpdatedAt = now

	m.devices[device.DeviceID] = device

	return device, true, nil
}

func (m *MemoryStorage) GetDeviceByID(_ context.Context, deviceID string) (models.Device, error) {
	const op = "storage.MemoryStorage.GetDeviceByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	device, ok := m.devices[deviceID]
	if !ok {
		return models.Device{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return device, nil
}

func (m *MemoryStorage) UpdateDevice(_ context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error) {
	const op = "storage.MemoryStorage.UpdateDevice"

	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[deviceID]
	if !ok {
		return models.Device{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if upd.DeviceName != nil {
		device.DeviceName = *upd.DeviceName
	}
	if upd.IsActive != nil {
		device.IsActive = *upd.IsActive
	}
	device.UpdatedAt = time.Now()

	m.devices[deviceID] = device

	return device, nil
}

func (m *MemoryStorage) ListDevicesByOwner(_ context.Context, ownerID string) ([]models.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var devices []models.Device
	for _, device := range m.devices {
		if device.OwnerID == ownerID {
			devices = append(devices, device)
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})

	return devices, nil
}

func (m *MemoryStorage) InsertLocation(_ context.Context, sample models.LocationSample) (models.LocationSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.nextStamp()
	sample.CreatedAt = stamp
	m.locations = append(m.locations, sample)

	if device, ok := m.devices[sample.DeviceID]; ok {
		device.LastSeen = &stamp
		m.devices[sample.DeviceID] = device
	}

	return sample, nil
}

func (m *MemoryStorage) InsertLocationBatch(_ context.Context, samples []models.LocationSample) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(samples) == 0 {
		return 0, nil
	}

	var stamp time.Time
	for _, sample := range samples {
		stamp = m.nextStamp()
		sample.CreatedAt = stamp
		m.locations = append(m.locations, sample)
	}

	if device, ok := m.devices[samples[0].DeviceID]; ok {
		device.LastSeen = &stamp
		m.devices[samples[0].DeviceID] = device
	}

	return len(samples), nil
}

func (m *MemoryStorage) GetLatestLocation(_ context.Context, deviceID string) (models.LocationSample, error) {
	const op = "storage.MemoryStorage.GetLatestLocation"

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.locations) - 1; i >= 0; i-- {
		if m.locations[i].DeviceID == deviceID {
			return m.locations[i], nil
		}
	}

	return models.LocationSample{}, fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (m *MemoryStorage) GetLocationHistory(_ context.Context, deviceID string, filter HistoryFilter) ([]models.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var samples []models.LocationSample
	for i := len(m.locations) - 1; i >= 0 && len(samples) < filter.Limit; i-- {
		sample := m.locations[i]
		if sample.DeviceID != deviceID {
			continue
		}
		if filter.Start != nil && sample.CreatedAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && sample.CreatedAt.After(*filter.End) {
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func (m *MemoryStorage) GetLocationsByMode(_ context.Context, deviceID, mode string, limit int) ([]models.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var samples []models.LocationSample
	for i := len(m.locations) - 1; i >= 0 && len(samples) < limit; i-- {
		sample := m.locations[i]
		if sample.DeviceID == deviceID && sample.Mode == mode {
			samples = append(samples, sample)
		}
	}

	return samples, nil
}

func (m *MemoryStorage) Close() {}
