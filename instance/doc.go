// Package instance produces ready-to-use FHE instances for a resolved
// network: a fully local mock variant for development chains and a relayer
// SDK delegating variant for real networks.
//
// The mock variant provides no cryptographic hiding. It exists only for
// local development and testing: encryption deterministically encodes the
// plaintext into a fixed-width handle, and decryption inverts the encoding.
package instance
