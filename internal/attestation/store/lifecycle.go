package store

import "time"

// Every record belongs to one of two durability classes, and every write
// refreshes the record's expiry to the full horizon of its class.
//
// The horizons mirror the source ledger's refresh granularity of 17280
// ledger closes per day: admin and counter state is small and touched on
// most calls, so a 30-day horizon is cheap to keep alive; attestor flags,
// attestation records and replay markers must outlive long audit windows,
// so they get 90 days.
const (
	ledgerUnitsPerDay = 17280

	// InstanceLifetimeLedgers is the refresh horizon for admin/counter state
	// expressed in ledger units.
	InstanceLifetimeLedgers = 30 * ledgerUnitsPerDay

	// PersistentLifetimeLedgers is the refresh horizon for attestor flags,
	// attestations and replay markers expressed in ledger units.
	PersistentLifetimeLedgers = 90 * ledgerUnitsPerDay

	// InstanceTTL is the wall-clock equivalent used by the KV backends.
	InstanceTTL = 30 * 24 * time.Hour

	// PersistentTTL is the wall-clock equivalent used by the KV backends.
	PersistentTTL = 90 * 24 * time.Hour
)
