package leasing

import (
	"time"

	"github.com/tphummel/lessee/internal/models"
)

// Active reports whether now falls strictly inside the lease window. A lease
// is not active at exactly its start or its end.
func Active(l *models.Lease, now time.Time) bool {
	return l.Start.Before(now) && now.Before(l.End)
}

// Status derives a unit's availability from its lease history at now.
func Status(leases []*models.Lease, now time.Time) models.Status {
	for _, l := range leases {
		if Active(l, now) {
			return models.StatusLeased
		}
	}
	return models.StatusAvailable
}

// Leased is the boolean form of Status.
func Leased(leases []*models.Lease, now time.Time) bool {
	return Status(leases, now) == models.StatusLeased
}
