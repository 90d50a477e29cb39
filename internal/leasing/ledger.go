package leasing

import (
	"context"
	"fmt"

	"github.com/tphummel/lessee/internal/models"
)

// ListLeases returns leases ordered by end time, latest first. With
// activeOnly set, only leases whose window strictly contains the current
// instant are returned.
func (s *Service) ListLeases(ctx context.Context, activeOnly bool) ([]models.LeaseDetail, error) {
	leases, err := s.store.ListLeases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	hardware, err := s.store.ListHardware(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list hardware: %w", err)
	}
	names, err := s.platformNames(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Hardware, len(hardware))
	for _, h := range hardware {
		byID[h.ID] = h
	}
	byHardware := make(map[string][]*models.Lease)
	for _, l := range leases {
		byHardware[l.HardwareID] = append(byHardware[l.HardwareID], l)
	}

	now := s.Now()
	details := make([]models.LeaseDetail, 0, len(leases))
	for _, l := range leases {
		active := Active(l, now)
		if activeOnly && !active {
			continue
		}
		h, ok := byID[l.HardwareID]
		if !ok {
			continue
		}
		details = append(details, models.LeaseDetail{
			ID:       l.ID,
			Hardware: hardwareDetail(h, names[h.PlatformID], byHardware[h.ID], now),
			Start:    l.Start,
			End:      l.End,
			Active:   active,
		})
	}
	return details, nil
}
