// Package reconcile computes the difference between the internal slot
// registry and an external inventory snapshot.
//
// The package is pure: it owns no state and performs no mutations. The
// registry supplies a view of its assigned vehicles, Compute returns the
// additions, removals and price changes needed to align the two, and the
// registry applies that diff under its own mutation lock. All outcomes of
// an applied run are collected in a Report; per-vehicle failures are data,
// never errors that abort the run.
//
// Plate identity also lives here: NormalizePlate defines the comparison key
// shared by the registry and the snapshot producers.
package reconcile
