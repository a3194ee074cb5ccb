// Package slots defines the physical key-slot space of the dealership and
// the pure assignment strategy over it.
//
// The space consists of 200 tiered slots (ids 0-199) divided into three
// price bands, plus a disjoint pool of 10 sold slots (tokens v1-v10) for
// vehicles awaiting key handover. Tier boundaries and capacities are fixed
// constants; there is no runtime configuration surface.
//
// Everything in this package is side-effect-free. Slot selection is
// evaluated against an occupancy view supplied by the caller, so the same
// functions serve both real assignment and dry-run validation.
package slots
