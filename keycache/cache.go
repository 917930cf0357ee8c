package keycache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/IsabellHansen/zamapp/interfaces"
)

const (
	// KeyPrefix namespaces all cache keys.
	KeyPrefix = "fhe.pubkey."

	// DefaultTTL is how long cached key material stays usable. The TTL is
	// enforced on read, so a stale persistent entry is still rejected.
	DefaultTTL = 24 * time.Hour
)

// Entry is the JSON-encoded record stored per ACL address.
type Entry struct {
	PublicKey    []byte    `json:"public_key"`
	PublicParams []byte    `json:"public_params"`
	Timestamp    time.Time `json:"timestamp"`
	ACLAddress   string    `json:"acl_address"`
}

// CacheKey returns the namespaced store key for an ACL address.
func CacheKey(acl interfaces.ContractAddress) string {
	return KeyPrefix + strings.ToLower(acl.String())
}

// Cache layers an in-memory TTL cache over an optional persistent store.
type Cache struct {
	mem   *gocache.Cache
	store interfaces.CacheStore
	ttl   time.Duration
	log   *slog.Logger
}

// New creates a cache. The store may be nil for a purely in-memory cache;
// a zero ttl means DefaultTTL.
func New(store interfaces.CacheStore, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		mem:   gocache.New(ttl, 2*ttl),
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Get returns the cached key material for an ACL address, or (nil, false)
// on any miss, staleness, or store failure.
func (c *Cache) Get(ctx context.Context, acl interfaces.ContractAddress) (*Entry, bool) {
	key := CacheKey(acl)

	if cached, ok := c.mem.Get(key); ok {
		entry := cached.(*Entry)
		if time.Since(entry.Timestamp) <= c.ttl {
			return entry, true
		}
		c.mem.Delete(key)
	}

	if c.store == nil {
		return nil, false
	}
	if !c.store.Available(ctx) {
		c.log.Debug("Key cache store unavailable", slog.String("store", c.store.Name()))
		return nil, false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrCacheMiss) {
			c.log.Warn("Key cache read failed", slog.String("key", key), "err", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("Discarding malformed key cache entry", slog.String("key", key), "err", err)
		return nil, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		c.log.Debug("Discarding stale key cache entry",
			slog.String("key", key),
			slog.Time("timestamp", entry.Timestamp))
		return nil, false
	}

	c.mem.Set(key, &entry, gocache.DefaultExpiration)
	return &entry, true
}

// Put records key material for an ACL address. Persistent-store failures
// are logged and swallowed: the cache is an optimization, never a blocker.
func (c *Cache) Put(ctx context.Context, acl interfaces.ContractAddress, material *interfaces.PublicKeyMaterial) {
	key := CacheKey(acl)
	entry := &Entry{
		PublicKey:    material.PublicKey,
		PublicParams: material.PublicParams,
		Timestamp:    time.Now(),
		ACLAddress:   strings.ToLower(acl.String()),
	}

	c.mem.Set(key, entry, gocache.DefaultExpiration)

	if c.store == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn("Could not encode key cache entry", slog.String("key", key), "err", err)
		return
	}

	if err := c.store.Put(ctx, key, data); err != nil {
		c.log.Warn("Key cache write failed",
			slog.String("key", key),
			slog.String("store", c.store.Name()),
			"err", err)
	}
}
