package keycache

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// StoreFactory creates cache stores from URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a factory.
func NewStoreFactory(log *slog.Logger) *StoreFactory {
	return &StoreFactory{log: log}
}

// StoreFor creates a cache store from a location URI.
//
// Supported schemes:
//   - memory:// - In-process store
//   - file:///path - Local filesystem store
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=custom.s3.com
//   - vault://host:port/mount/path?token=... (token falls back to VAULT_TOKEN)
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.CacheStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid cache store URI %q: %w", locationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported cache store scheme: %s", u.Scheme)
	}
}

// createFileStore creates a filesystem store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.CacheStore, error) {
	sf.log.Debug("Creating file cache store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", u.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Store creates an S3 or S3-compatible store.
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.CacheStore, error) {
	sf.log.Debug("Creating S3 cache store", slog.String("bucket", u.Host))

	bucketName := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultStore creates a Vault KV v2 store.
// URI format: vault://host:port/mount/data-path?token=...
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.CacheStore, error) {
	sf.log.Debug("Creating vault cache store", slog.String("host", u.Host))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("vault URI is missing a mount path: %s", u.String())
	}
	mountPath := parts[0]
	dataPath := ""
	if len(parts) == 2 {
		dataPath = parts[1]
	}

	token := u.Query().Get("token")
	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}

	scheme := "https"
	if u.Query().Get("insecure") == "true" {
		scheme = "http"
	}

	return NewVaultStore(fmt.Sprintf("%s://%s", scheme, u.Host), token, mountPath, dataPath, sf.log)
}
