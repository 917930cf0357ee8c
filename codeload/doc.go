// Package codeload lazily loads the third-party relayer SDK artifact from a
// fixed CDN location into a code registry, exactly once, with duck-typed
// capability validation and forced-reload support.
//
// The registry stands in for the process-wide global context the artifact is
// delivered into. It is injected explicitly so tests can substitute a
// private registry instead of mutating shared state. Loading is
// deduplicated: concurrent Load calls share one in-flight fetch. Activation
// of the fetched artifact signals completion through a one-shot channel,
// raced against a fixed timeout; a short settle delay follows before the
// installed object is re-validated, because activation may populate the
// registry asynchronously relative to its own completion signal.
package codeload
