// Package registry holds the authoritative in-memory mapping of vehicles
// to key slots.
//
// The registry is the sole owner of vehicle records and slot occupancy.
// The slot strategy (package slots) and the diff computation (package
// reconcile) are pure; they evaluate views the registry hands them and the
// registry applies their decisions. Every mutation runs under one exclusive
// lock so capacity checks are atomic with their application, and either
// fully succeeds or leaves no observable change.
//
// A vehicle moves through a fixed lifecycle: it is assigned to exactly one
// tiered slot, optionally sold into exactly one sold-pool slot (releasing
// the tiered slot), and removed entirely on handover. The two lifecycle
// states are separate record types, so a sold vehicle holding a tiered slot
// is unrepresentable.
package registry
