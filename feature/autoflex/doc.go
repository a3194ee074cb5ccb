// Package autoflex provides the client for the Autoflex10 vehicle
// administration API, the external source of truth for dealer-held
// inventory.
//
// The client authenticates with a short-lived token, pages through the
// vehicle listing, and condenses the result into a snapshot of currently
// held, unsold vehicles. Any transport or authentication failure surfaces
// as a single ErrSyncUnavailable: the core never sees partial data.
package autoflex
