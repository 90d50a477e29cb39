package leasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/lessee/internal/events"
	"github.com/tphummel/lessee/internal/models"
)

// MaxLeaseDuration is the longest lease Allocate grants.
const MaxLeaseDuration = 366 * 24 * time.Hour

// Allocate leases the first available unit of a platform for d, starting now.
//
// Units are tried in insertion order and the first one without an active
// lease wins. A unit whose lease starts at this very instant counts as taken,
// so two allocations reading the same clock value never share a unit.
// Allocations for the same platform are serialised within this process;
// processes sharing one database can still race between the scan and the
// insert.
func (s *Service) Allocate(ctx context.Context, platformID string, d time.Duration) (*models.LeaseDetail, error) {
	if d <= 0 || d > MaxLeaseDuration {
		return nil, ErrInvalidDuration
	}
	p, err := s.platform(ctx, platformID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPlatform(p.ID)
	defer unlock()

	now := s.Now()
	candidates, err := s.store.ListHardware(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list hardware: %w", err)
	}

	for _, h := range candidates {
		leases, err := s.store.LeasesForHardware(ctx, h.ID)
		if err != nil {
			return nil, fmt.Errorf("leases for hardware %q: %w", h.ID, err)
		}
		if held(leases, now) {
			continue
		}

		lease := &models.Lease{
			ID:         uuid.NewString(),
			HardwareID: h.ID,
			Start:      now,
			End:        now.Add(d),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.CreateLease(ctx, lease); err != nil {
			return nil, fmt.Errorf("create lease: %w", err)
		}

		s.logger.Info("lease created",
			"lease", lease.ID,
			"hardware", h.ID,
			"platform", p.Name,
			"end", lease.End,
		)
		s.publishLeaseCreated(ctx, lease, h, p)

		// Re-read the clock: the response reports state as of the read.
		readAt := s.Now()
		return &models.LeaseDetail{
			ID:       lease.ID,
			Hardware: hardwareDetail(h, p.Name, append(leases, lease), readAt),
			Start:    lease.Start,
			End:      lease.End,
			Active:   Active(lease, readAt),
		}, nil
	}
	return nil, ErrNoHardwareAvailable
}

func (s *Service) publishLeaseCreated(ctx context.Context, l *models.Lease, h *models.Hardware, p *models.Platform) {
	err := s.publisher.Publish(ctx, events.SubjectLeaseCreated, events.LeaseCreated{
		LeaseID:      l.ID,
		HardwareID:   h.ID,
		HardwareName: h.Name,
		Address:      h.Address,
		Platform:     p.Name,
		Start:        l.Start,
		End:          l.End,
	})
	if err != nil {
		s.logger.Warn("publish lease event failed", "lease", l.ID, "error", err)
	}
}

// held reports whether a unit cannot be handed out at now. A lease that starts
// exactly at now is not active yet but already holds its unit.
func held(leases []*models.Lease, now time.Time) bool {
	for _, l := range leases {
		if !now.Before(l.Start) && now.Before(l.End) {
			return true
		}
	}
	return false
}
