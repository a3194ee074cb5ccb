// Package keys is the key management feature: the facade every collaborator
// (HTTP API, CLI, auto-sync loop) goes through.
//
// The Service validates raw collaborator input, delegates to the registry
// and the external inventory client, and records movements to the optional
// history log. It adds no slot-placement logic of its own; the registry and
// the slot strategy own that entirely.
package keys
