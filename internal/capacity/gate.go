// Package capacity enforces the global admission ceiling. A naive
// count-then-insert pair has a classic race: two registrations both read
// count=143,999 and both insert. The gate therefore exposes a single atomic
// check-and-increment, so the 144,000th admission is the last one that can
// ever succeed.
package capacity

import "context"

// Gate guards admission into the community.
type Gate interface {
	// TryReserveSlot atomically claims one admission slot. granted reports
	// whether a slot was claimed; current is the admitted count after the
	// call. A storage failure is returned as an error, never as a
	// granted=false verdict, so callers can tell "try again" apart from
	// "community full".
	TryReserveSlot(ctx context.Context) (granted bool, current int, err error)

	// ReleaseSlot returns a previously reserved slot. The orchestrator
	// calls it when a registration fails after reservation but before the
	// member row exists, so failed attempts never hold capacity.
	ReleaseSlot(ctx context.Context) error

	// CurrentCount is the active-member count, for display reads only. It
	// is eventually consistent with the latest committed reservation and
	// takes no part in admission decisions.
	CurrentCount(ctx context.Context) (int, error)

	// Sync reconciles the admission counter from the authoritative
	// active-member count. Run at startup, after seeding.
	Sync(ctx context.Context) error
}
