package relayersdk

import (
	"github.com/IsabellHansen/zamapp/interfaces"
)

// SepoliaChainID identifies the supported public testnet deployment.
const SepoliaChainID uint64 = 11155111

// SepoliaConfig is the built-in configuration for the Sepolia co-processor
// deployment. Manifest-supplied records take precedence when present.
var SepoliaConfig = interfaces.NetworkConfig{
	ChainID:              SepoliaChainID,
	Name:                 "sepolia",
	ACLAddress:           "0x687820221192C5B662b25367F70076A37bc79b6c",
	InputVerifierAddress: "0xbc91f3daD1A5F19F8390c400196e58073B6a0BC4",
	KMSVerifierAddress:   "0x1364cBBf2cDF5032C47d8226a6f6FBD2AFCDacAC",
	GatewayChainID:       55815,
	RelayerURL:           "https://relayer.testnet.zama.cloud",
}

// DefaultNetworks lists the remote networks supported without a manifest.
var DefaultNetworks = []interfaces.NetworkConfig{
	SepoliaConfig,
}

// DefaultArtifactURL is the fixed, versioned CDN location of the SDK
// artifact manifest.
const DefaultArtifactURL = "https://cdn.zama.ai/relayer-sdk-js/0.1.0/relayer-sdk-manifest.json"

// Manifest is the wire form of the CDN artifact payload.
type Manifest struct {
	Version  string                     `json:"version"`
	Networks []interfaces.NetworkConfig `json:"networks"`
}
