// Package provision implements the instance lifecycle controller: the
// top-level state machine that owns exactly one in-flight provisioning
// attempt at a time, reacts to wallet transport and chain changes, and
// exposes idle/loading/ready/error state to callers.
//
// Provisioning runs resolve -> (mock: probe -> mock create) or (real: SDK
// load -> one-time init -> real create), re-checking cancellation between
// steps. A completed attempt mutates controller state only if it is still
// the current attempt and its transport is still the controller's current
// transport; anything else is discarded as a cancellation, never an error.
package provision
