package codeload

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	shell "github.com/ipfs/go-ipfs-api"
	"golang.org/x/crypto/sha3"
)

// Fetcher retrieves an SDK artifact from its origin.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher retrieves artifacts over HTTPS from the CDN.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a CDN fetcher.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: resty.New()}
}

// Fetch downloads the artifact at location.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(location)
	if err != nil {
		return nil, fmt.Errorf("could not fetch artifact from %s: %w", location, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("artifact endpoint %s returned status %d", location, resp.StatusCode())
	}
	return resp.Body(), nil
}

// IPFSFetcher retrieves content-addressed artifacts from an IPFS node. The
// artifact is immutable and content-addressed, which makes IPFS a natural
// alternative origin to the CDN.
type IPFSFetcher struct {
	shell *shell.Shell
}

// NewIPFSFetcher creates a fetcher connected to the given IPFS API address.
func NewIPFSFetcher(apiAddr string) *IPFSFetcher {
	return &IPFSFetcher{shell: shell.NewShell(apiAddr)}
}

// Fetch retrieves the artifact by CID. The location is an ipfs:// URI whose
// host part is the CID.
func (f *IPFSFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	cid := strings.TrimPrefix(location, "ipfs://")

	if !f.shell.IsUp() {
		return nil, fmt.Errorf("ipfs node is not reachable")
	}

	rc, err := f.shell.Cat(cid)
	if err != nil {
		return nil, fmt.Errorf("could not fetch artifact %s from ipfs: %w", cid, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("could not read artifact %s from ipfs: %w", cid, err)
	}
	return data, nil
}

// FetcherFor returns the fetcher matching the artifact location's scheme.
// Supported schemes: https://, http://, ipfs://.
func FetcherFor(location string) (Fetcher, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact location %q: %w", location, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPFetcher(), nil
	case "ipfs":
		apiAddr := u.Query().Get("api")
		if apiAddr == "" {
			apiAddr = "localhost:5001"
		}
		return NewIPFSFetcher(apiAddr), nil
	default:
		return nil, fmt.Errorf("unsupported artifact scheme: %s", u.Scheme)
	}
}

// VerifyChecksum compares the keccak256 digest of the artifact payload
// against a pinned hex digest. An empty pin skips verification.
func VerifyChecksum(payload []byte, pinnedHex string) error {
	if pinnedHex == "" {
		return nil
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(payload)
	digest := hex.EncodeToString(h.Sum(nil))

	pinned := strings.TrimPrefix(strings.ToLower(pinnedHex), "0x")
	if digest != pinned {
		return fmt.Errorf("artifact checksum mismatch: got %s, want %s", digest, pinned)
	}
	return nil
}
