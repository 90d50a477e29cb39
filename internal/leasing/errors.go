package leasing

import "errors"

var (
	// ErrUnknownPlatform is returned when a referenced platform does not exist.
	ErrUnknownPlatform = errors.New("specify an existing platform")

	// ErrNoHardwareAvailable is returned when every unit of a platform is
	// currently leased, or the platform has no units at all.
	ErrNoHardwareAvailable = errors.New("hardware not available for lease")

	// ErrDuplicateHardware is returned when a new unit's name or address
	// collides with an existing unit.
	ErrDuplicateHardware = errors.New("hardware already exists")

	// ErrInvalidDuration is returned for lease durations that are not
	// positive or exceed MaxLeaseDuration.
	ErrInvalidDuration = errors.New("lease duration must be positive and at most one year")

	// ErrHardwareNotFound is returned when a hardware ID does not exist.
	ErrHardwareNotFound = errors.New("hardware not found")
)
