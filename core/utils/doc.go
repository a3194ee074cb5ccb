// Package utils provides shared helper functions that don't fit into
// domain-specific packages, mainly lenient type conversion for the
// loosely-typed Autoflex payloads.
package utils
