// Package relayerdev serves the JSON-RPC surface of a mock FHE development
// node: a client-version answer carrying the expected marker, a chain-id
// answer, and the relayer metadata query the probe consumes. It exists so
// the resolver, probe and lifecycle controller can be exercised end to end
// without a real Hardhat node.
package relayerdev
