// Package network resolves chain identity for a wallet transport and probes
// local development nodes for a compatible mock FHE environment.
//
// Resolution classifies a chain as mock if its id appears in the merged
// mock-chain table (defaults union caller overrides). Probing confirms a
// candidate mock node actually hosts the co-processor contracts by checking
// its client-version marker and querying its relayer metadata.
package network
