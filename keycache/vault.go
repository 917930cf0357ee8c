package keycache

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// VaultStore persists cache entries in a HashiCorp Vault KV v2 mount.
type VaultStore struct {
	client    *vaultapi.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// NewVaultStore creates a Vault cache store against the given server
// address and KV v2 mount.
func NewVaultStore(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultStore, error) {
	cfg := vaultapi.DefaultConfig()
	cfg.Address = address

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultStore{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		log:       log,
	}, nil
}

// Get reads the secret stored for key. Returns ErrCacheMiss for missing
// secrets.
func (s *VaultStore) Get(ctx context.Context, key string) ([]byte, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.secretPath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read cache secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrCacheMiss
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	encoded, ok := data["value"].(string)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache secret: %w", err)
	}

	s.log.Debug("Fetched cache entry from vault", slog.String("path", s.secretPath(key)))
	return decoded, nil
}

// Put writes the secret for key, overwriting any previous version.
func (s *VaultStore) Put(ctx context.Context, key string, data []byte) error {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, s.secretPath(key), payload); err != nil {
		return fmt.Errorf("failed to write cache secret: %w", err)
	}

	s.log.Debug("Stored cache entry in vault", slog.String("path", s.secretPath(key)))
	return nil
}

// Available checks that the Vault server is reachable and unsealed.
func (s *VaultStore) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		s.log.Debug("Vault store unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this store.
func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s", s.mountPath)
}

func (s *VaultStore) secretPath(key string) string {
	return path.Join(s.mountPath, "data", s.dataPath, key)
}
