// Package relayersdk implements the relayer-backed SDK surface behind the
// real (non-mock) FHE path: per-network configuration records, the SDK
// object installed into the code registry by artifact activation, and the
// relayer-backed instance and encrypted-input builder.
//
// Go cannot execute code fetched at runtime, so the CDN artifact is a
// versioned manifest: activation parses it and installs an SDK object whose
// capability code is compiled in, keyed by the manifest's network records.
package relayersdk
