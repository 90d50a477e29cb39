package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tphummel/lessee/internal/db"
	"github.com/tphummel/lessee/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustCreatePlatform(t *testing.T, d *db.DB, id, name string) *models.Platform {
	t.Helper()
	p := &models.Platform{ID: id, Name: name}
	if err := d.CreatePlatform(context.Background(), p); err != nil {
		t.Fatalf("CreatePlatform %q: %v", name, err)
	}
	return p
}

// sampleHardware returns a fully-populated Hardware for use in tests.
func sampleHardware(id, name, address, platformID string) *models.Hardware {
	now := time.Now().UTC()
	return &models.Hardware{
		ID:         id,
		Name:       name,
		Address:    address,
		PlatformID: platformID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func mustCreateHardware(t *testing.T, d *db.DB, h *models.Hardware) {
	t.Helper()
	if err := d.CreateHardware(context.Background(), h); err != nil {
		t.Fatalf("CreateHardware %q: %v", h.Name, err)
	}
}

func TestNew(t *testing.T) {
	d := newTestDB(t)
	if d.SchemaVersion() < 1 {
		t.Errorf("SchemaVersion: got %d, want >= 1", d.SchemaVersion())
	}
	if err := d.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNew_ReopenFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessee.db")

	first, err := db.New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustCreatePlatform(t, first, "p-1", "PC")
	first.Close()

	second, err := db.New(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	n, err := second.CountPlatforms(context.Background())
	if err != nil {
		t.Fatalf("CountPlatforms: %v", err)
	}
	if n != 1 {
		t.Errorf("platforms after reopen: got %d, want 1", n)
	}
}

// --- Platforms ---

func TestPlatforms_CreateListGet(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for i, name := range models.DefaultPlatforms {
		mustCreatePlatform(t, d, "p-"+string(rune('a'+i)), name)
	}

	platforms, err := d.ListPlatforms(ctx)
	if err != nil {
		t.Fatalf("ListPlatforms: %v", err)
	}
	if len(platforms) != len(models.DefaultPlatforms) {
		t.Fatalf("ListPlatforms: got %d, want %d", len(platforms), len(models.DefaultPlatforms))
	}
	for i, p := range platforms {
		if p.Name != models.DefaultPlatforms[i] {
			t.Errorf("platform %d: got %q, want %q (insertion order)", i, p.Name, models.DefaultPlatforms[i])
		}
	}

	got, err := d.GetPlatform(ctx, "p-b")
	if err != nil {
		t.Fatalf("GetPlatform: %v", err)
	}
	if got.Name != "PS4" {
		t.Errorf("GetPlatform name: got %q, want PS4", got.Name)
	}
}

func TestGetPlatform_NotFound(t *testing.T) {
	d := newTestDB(t)
	_, err := d.GetPlatform(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreatePlatform_DuplicateName(t *testing.T) {
	d := newTestDB(t)
	mustCreatePlatform(t, d, "p-1", "PC")
	err := d.CreatePlatform(context.Background(), &models.Platform{ID: "p-2", Name: "PC"})
	if !errors.Is(err, db.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestSeedPlatforms_AllOrNothing(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	_, err := d.SeedPlatforms(ctx, []*models.Platform{
		{ID: "p-1", Name: "PC"},
		{ID: "p-2", Name: "PC"},
		{ID: "p-3", Name: "PS4"},
	})
	if !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	n, err := d.CountPlatforms(ctx)
	if err != nil {
		t.Fatalf("CountPlatforms: %v", err)
	}
	if n != 0 {
		t.Fatalf("platforms after failed seed: got %d, want 0", n)
	}

	tests := []struct {
		name string
		want int
	}{
		{"empty registry", 2},
		{"already seeded", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.SeedPlatforms(ctx, []*models.Platform{{ID: "pc", Name: "PC"}, {ID: "ps4", Name: "PS4"}})
			if err != nil {
				t.Fatalf("SeedPlatforms: %v", err)
			}
			if got != tt.want {
				t.Errorf("inserted: got %d, want %d", got, tt.want)
			}
		})
	}
}

// --- Hardware ---

func TestCreateHardware_GetHardware(t *testing.T) {
	d := newTestDB(t)
	mustCreatePlatform(t, d, "p-1", "XboxOne")
	h := sampleHardware("hw-1", "XYZ1", "123.45.6.7", "p-1")
	mustCreateHardware(t, d, h)

	got, err := d.GetHardware(context.Background(), "hw-1")
	if err != nil {
		t.Fatalf("GetHardware: %v", err)
	}
	if got.Name != h.Name {
		t.Errorf("Name: got %q, want %q", got.Name, h.Name)
	}
	if got.Address != h.Address {
		t.Errorf("Address: got %q, want %q", got.Address, h.Address)
	}
	if got.PlatformID != h.PlatformID {
		t.Errorf("PlatformID: got %q, want %q", got.PlatformID, h.PlatformID)
	}
	if !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, h.CreatedAt)
	}
}

func TestGetHardware_NotFound(t *testing.T) {
	d := newTestDB(t)
	_, err := d.GetHardware(context.Background(), "ghost")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateHardware_UniqueConstraints(t *testing.T) {
	d := newTestDB(t)
	mustCreatePlatform(t, d, "p-1", "PC")
	mustCreateHardware(t, d, sampleHardware("hw-1", "XYZ1", "10.0.0.1", "p-1"))

	tests := []struct {
		name string
		hw   *models.Hardware
	}{
		{"same name", sampleHardware("hw-2", "XYZ1", "10.0.0.2", "p-1")},
		{"same address", sampleHardware("hw-3", "XYZ3", "10.0.0.1", "p-1")},
		{"same id", sampleHardware("hw-1", "XYZ4", "10.0.0.4", "p-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.CreateHardware(context.Background(), tt.hw)
			if !errors.Is(err, db.ErrDuplicate) {
				t.Errorf("expected ErrDuplicate, got %v", err)
			}
		})
	}
}

func TestCreateHardware_UnknownPlatformRejected(t *testing.T) {
	d := newTestDB(t)
	err := d.CreateHardware(context.Background(), sampleHardware("hw-1", "XYZ1", "10.0.0.1", "missing"))
	if err == nil {
		t.Error("expected foreign key error, got nil")
	}
}

func TestListHardware_PlatformFilter(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	mustCreatePlatform(t, d, "pc", "PC")
	mustCreatePlatform(t, d, "ps4", "PS4")
	mustCreatePlatform(t, d, "xbox", "XboxOne")

	units := []struct {
		id, name, addr, platform string
	}{
		{"hw-1", "XYZ1", "123.45.6.7", "xbox"},
		{"hw-2", "XYZ2", "123.45.6.8", "xbox"},
		{"hw-3", "XYZ3", "123.45.6.9", "xbox"},
		{"hw-4", "XYZ4", "123.45.6.10", "ps4"},
		{"hw-5", "XYZ5", "123.45.6.11", "pc"},
	}
	for _, u := range units {
		mustCreateHardware(t, d, sampleHardware(u.id, u.name, u.addr, u.platform))
	}

	tests := []struct {
		platform string
		want     int
	}{
		{"", 5},
		{"xbox", 3},
		{"ps4", 1},
		{"pc", 1},
		{"unknown", 0},
	}
	for _, tt := range tests {
		t.Run("platform="+tt.platform, func(t *testing.T) {
			got, err := d.ListHardware(ctx, tt.platform)
			if err != nil {
				t.Fatalf("ListHardware(%q): %v", tt.platform, err)
			}
			if len(got) != tt.want {
				t.Errorf("ListHardware(%q): got %d, want %d", tt.platform, len(got), tt.want)
			}
		})
	}

	xbox, err := d.ListHardware(ctx, "xbox")
	if err != nil {
		t.Fatalf("ListHardware: %v", err)
	}
	for i, want := range []string{"hw-1", "hw-2", "hw-3"} {
		if xbox[i].ID != want {
			t.Errorf("insertion order [%d]: got %q, want %q", i, xbox[i].ID, want)
		}
	}
}

func TestHardwareExists(t *testing.T) {
	d := newTestDB(t)
	mustCreatePlatform(t, d, "p-1", "PC")
	mustCreateHardware(t, d, sampleHardware("hw-1", "XYZ1", "10.0.0.1", "p-1"))

	tests := []struct {
		name, addr string
		want       bool
	}{
		{"XYZ1", "10.0.0.1", true},
		{"XYZ1", "10.9.9.9", true},
		{"other", "10.0.0.1", true},
		{"other", "10.9.9.9", false},
	}
	for _, tt := range tests {
		got, err := d.HardwareExists(context.Background(), tt.name, tt.addr)
		if err != nil {
			t.Fatalf("HardwareExists: %v", err)
		}
		if got != tt.want {
			t.Errorf("HardwareExists(%q, %q): got %v, want %v", tt.name, tt.addr, got, tt.want)
		}
	}
}

func TestDeleteAllHardware_CascadesLeases(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	mustCreatePlatform(t, d, "p-1", "PC")
	mustCreateHardware(t, d, sampleHardware("hw-1", "XYZ1", "10.0.0.1", "p-1"))

	now := time.Now().UTC()
	if err := d.CreateLease(ctx, &models.Lease{
		ID: "l-1", HardwareID: "hw-1", Start: now, End: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateLease: %v", err)
	}

	if err := d.DeleteAllHardware(ctx); err != nil {
		t.Fatalf("DeleteAllHardware: %v", err)
	}
	n, err := d.CountHardware(ctx)
	if err != nil {
		t.Fatalf("CountHardware: %v", err)
	}
	if n != 0 {
		t.Errorf("CountHardware: got %d, want 0", n)
	}
	leases, err := d.ListLeases(ctx)
	if err != nil {
		t.Fatalf("ListLeases: %v", err)
	}
	if len(leases) != 0 {
		t.Errorf("leases after delete: got %d, want 0", len(leases))
	}
}

// --- Leases ---

func TestListLeases_OrderedByEndDescending(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	mustCreatePlatform(t, d, "p-1", "PC")
	mustCreateHardware(t, d, sampleHardware("hw-1", "XYZ1", "10.0.0.1", "p-1"))
	mustCreateHardware(t, d, sampleHardware("hw-2", "XYZ2", "10.0.0.2", "p-1"))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	leases := []*models.Lease{
		{ID: "l-short", HardwareID: "hw-1", Start: base, End: base.Add(5 * time.Minute)},
		{ID: "l-long", HardwareID: "hw-2", Start: base, End: base.Add(2 * time.Hour)},
		{ID: "l-mid", HardwareID: "hw-1", Start: base, End: base.Add(30*time.Minute + 500*time.Millisecond)},
	}
	for _, l := range leases {
		l.CreatedAt, l.UpdatedAt = base, base
		if err := d.CreateLease(ctx, l); err != nil {
			t.Fatalf("CreateLease %q: %v", l.ID, err)
		}
	}

	got, err := d.ListLeases(ctx)
	if err != nil {
		t.Fatalf("ListLeases: %v", err)
	}
	want := []string{"l-long", "l-mid", "l-short"}
	if len(got) != len(want) {
		t.Fatalf("ListLeases: got %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("ListLeases[%d]: got %q, want %q", i, got[i].ID, id)
		}
	}
	if !got[1].End.Equal(base.Add(30*time.Minute + 500*time.Millisecond)) {
		t.Errorf("sub-second precision lost: got %v", got[1].End)
	}
}

func TestLeasesForHardware(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	mustCreatePlatform(t, d, "p-1", "PC")
	mustCreateHardware(t, d, sampleHardware("hw-1", "XYZ1", "10.0.0.1", "p-1"))
	mustCreateHardware(t, d, sampleHardware("hw-2", "XYZ2", "10.0.0.2", "p-1"))

	now := time.Now().UTC()
	for i, hw := range []string{"hw-1", "hw-1", "hw-2"} {
		l := &models.Lease{
			ID: "l-" + string(rune('a'+i)), HardwareID: hw,
			Start: now, End: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
		}
		if err := d.CreateLease(ctx, l); err != nil {
			t.Fatalf("CreateLease: %v", err)
		}
	}

	got, err := d.LeasesForHardware(ctx, "hw-1")
	if err != nil {
		t.Fatalf("LeasesForHardware: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("LeasesForHardware(hw-1): got %d, want 2", len(got))
	}
	none, err := d.LeasesForHardware(ctx, "ghost")
	if err != nil {
		t.Fatalf("LeasesForHardware: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("LeasesForHardware(ghost): got %d, want 0", len(none))
	}
}
