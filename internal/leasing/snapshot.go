package leasing

import (
	"context"

	"github.com/tphummel/lessee/internal/models"
)

// Snapshot is a point-in-time summary of the inventory.
type Snapshot struct {
	// Hardware counts units per platform name and status.
	Hardware     map[string]map[models.Status]int
	ActiveLeases int
}

// Snapshot summarises hardware availability per platform and the number of
// active leases.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	platforms, err := s.ListPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	hardware, err := s.ListHardware(ctx, "")
	if err != nil {
		return nil, err
	}
	active, err := s.ListLeases(ctx, true)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Hardware:     make(map[string]map[models.Status]int, len(platforms)),
		ActiveLeases: len(active),
	}
	for _, p := range platforms {
		snap.Hardware[p.Name] = map[models.Status]int{
			models.StatusAvailable: 0,
			models.StatusLeased:    0,
		}
	}
	for _, h := range hardware {
		counts, ok := snap.Hardware[h.Platform.Name]
		if !ok {
			continue
		}
		counts[h.Status]++
	}
	return snap, nil
}
