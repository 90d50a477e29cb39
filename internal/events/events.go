// Package events publishes domain events about leases to a message bus.
package events

import (
	"context"
	"time"
)

// SubjectLeaseCreated is the subject a LeaseCreated event is published on.
const SubjectLeaseCreated = "lessee.lease.created"

// LeaseCreated is published after a lease has been durably recorded.
type LeaseCreated struct {
	LeaseID      string    `json:"lease_id"`
	HardwareID   string    `json:"hardware_id"`
	HardwareName string    `json:"hardware_name"`
	Address      string    `json:"address"`
	Platform     string    `json:"platform"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// Publisher delivers an event payload to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Nop discards every event. It is used when no bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
