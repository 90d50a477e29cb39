package leasing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/lessee/internal/db"
	"github.com/tphummel/lessee/internal/models"
)

// ListHardware returns all hardware, restricted to one platform when
// platformID is non-empty. An unknown platform yields an empty list.
func (s *Service) ListHardware(ctx context.Context, platformID string) ([]models.HardwareDetail, error) {
	hardware, err := s.store.ListHardware(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("list hardware: %w", err)
	}
	names, err := s.platformNames(ctx)
	if err != nil {
		return nil, err
	}
	byHardware, err := s.leasesByHardware(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	details := make([]models.HardwareDetail, 0, len(hardware))
	for _, h := range hardware {
		details = append(details, hardwareDetail(h, names[h.PlatformID], byHardware[h.ID], now))
	}
	return details, nil
}

// GetHardware returns one unit with its availability evaluated now.
func (s *Service) GetHardware(ctx context.Context, id string) (*models.HardwareDetail, error) {
	h, err := s.store.GetHardware(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHardwareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get hardware %q: %w", id, err)
	}
	p, err := s.platform(ctx, h.PlatformID)
	if err != nil {
		return nil, err
	}
	leases, err := s.store.LeasesForHardware(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("leases for hardware %q: %w", h.ID, err)
	}
	d := hardwareDetail(h, p.Name, leases, s.Now())
	return &d, nil
}

// CreateHardware adds a unit to a platform. A unit whose name or address is
// already taken is rejected with ErrDuplicateHardware.
func (s *Service) CreateHardware(ctx context.Context, name, address, platformID string) (*models.HardwareDetail, error) {
	p, err := s.platform(ctx, platformID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.HardwareExists(ctx, name, address)
	if err != nil {
		return nil, fmt.Errorf("check hardware: %w", err)
	}
	if exists {
		return nil, ErrDuplicateHardware
	}

	now := s.Now()
	h := &models.Hardware{
		ID:         uuid.NewString(),
		Name:       name,
		Address:    address,
		PlatformID: p.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateHardware(ctx, h); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrDuplicateHardware
		}
		return nil, fmt.Errorf("create hardware: %w", err)
	}

	s.logger.Info("hardware created", "hardware", h.ID, "name", h.Name, "platform", p.Name)
	d := hardwareDetail(h, p.Name, nil, now)
	return &d, nil
}

func (s *Service) platformNames(ctx context.Context) (map[string]string, error) {
	platforms, err := s.ListPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(platforms))
	for _, p := range platforms {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (s *Service) leasesByHardware(ctx context.Context) (map[string][]*models.Lease, error) {
	leases, err := s.store.ListLeases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	byHardware := make(map[string][]*models.Lease)
	for _, l := range leases {
		byHardware[l.HardwareID] = append(byHardware[l.HardwareID], l)
	}
	return byHardware, nil
}

func hardwareDetail(h *models.Hardware, platform string, leases []*models.Lease, now time.Time) models.HardwareDetail {
	status := Status(leases, now)
	return models.HardwareDetail{
		Hardware: *h,
		Platform: models.PlatformRef{Name: platform},
		Leased:   status == models.StatusLeased,
		Status:   status,
	}
}
