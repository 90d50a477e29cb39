package models

import "time"

// Status is the derived availability of a hardware unit. It is never stored.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLeased    Status = "leased"
)

// DefaultPlatforms is the platform list seeded into an empty registry.
var DefaultPlatforms = []string{"PC", "PS4", "XboxOne"}

// Platform is a category of hardware, e.g. a console family.
type Platform struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Hardware is a single leasable physical unit.
type Hardware struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	PlatformID string    `json:"platform_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lease is a time-bounded claim on one hardware unit.
type Lease struct {
	ID         string    `json:"id"`
	HardwareID string    `json:"hardware_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PlatformRef is the platform as nested inside a hardware record.
type PlatformRef struct {
	Name string `json:"name"`
}

// HardwareDetail is a hardware unit together with its platform name and
// availability evaluated at read time.
type HardwareDetail struct {
	Hardware
	Platform PlatformRef `json:"platform"`
	Leased   bool        `json:"leased"`
	Status   Status      `json:"status"`
}

// LeaseDetail is a lease with its full hardware record nested.
type LeaseDetail struct {
	ID       string         `json:"id"`
	Hardware HardwareDetail `json:"hardware"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Active   bool           `json:"active"`
}
