// Package leasing tracks hardware units per platform and grants time-boxed
// leases on available units.
//
// Availability is never stored. It is derived from the lease ledger each time
// it is read, against the service clock.
package leasing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tphummel/lessee/internal/events"
	"github.com/tphummel/lessee/internal/models"
)

// Store is the persistence the service needs. Lookups of missing rows return
// sql.ErrNoRows; uniqueness violations wrap db.ErrDuplicate.
type Store interface {
	SeedPlatforms(ctx context.Context, platforms []*models.Platform) (int, error)
	GetPlatform(ctx context.Context, id string) (*models.Platform, error)
	ListPlatforms(ctx context.Context) ([]*models.Platform, error)

	CreateHardware(ctx context.Context, h *models.Hardware) error
	GetHardware(ctx context.Context, id string) (*models.Hardware, error)
	ListHardware(ctx context.Context, platformID string) ([]*models.Hardware, error)
	HardwareExists(ctx context.Context, name, address string) (bool, error)

	CreateLease(ctx context.Context, l *models.Lease) error
	ListLeases(ctx context.Context) ([]*models.Lease, error)
	LeasesForHardware(ctx context.Context, hardwareID string) ([]*models.Lease, error)
}

// Service implements the platform registry, hardware inventory, lease ledger
// and allocator on top of a Store.
type Service struct {
	store     Store
	now       func() time.Time
	publisher events.Publisher
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to evaluate and create leases.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where lease-created events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       time.Now,
		publisher: events.Nop{},
		logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time according to the service clock, in UTC.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// SeedPlatforms inserts one platform per name when the registry is empty and
// does nothing otherwise. It returns the number of platforms inserted. The
// seed is all or nothing: a failed insert leaves the registry empty.
func (s *Service) SeedPlatforms(ctx context.Context, names []string) (int, error) {
	platforms := make([]*models.Platform, 0, len(names))
	for _, name := range names {
		platforms = append(platforms, &models.Platform{ID: uuid.NewString(), Name: name})
	}
	n, err := s.store.SeedPlatforms(ctx, platforms)
	if err != nil {
		return 0, fmt.Errorf("seed platforms: %w", err)
	}
	return n, nil
}

// ListPlatforms returns every platform in insertion order.
func (s *Service) ListPlatforms(ctx context.Context) ([]*models.Platform, error) {
	platforms, err := s.store.ListPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return platforms, nil
}

func (s *Service) platform(ctx context.Context, id string) (*models.Platform, error) {
	p, err := s.store.GetPlatform(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownPlatform
	}
	if err != nil {
		return nil, fmt.Errorf("get platform %q: %w", id, err)
	}
	return p, nil
}

// lockPlatform serialises allocations for one platform within this process.
func (s *Service) lockPlatform(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
