package codeload

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/IsabellHansen/zamapp/interfaces"
)

const (
	// DefaultLoadTimeout is the upper bound on one load, covering fetch,
	// activation and settling.
	DefaultLoadTimeout = 30 * time.Second

	// DefaultSettleDelay is the wait between the activation completion
	// signal and re-validation of the registry.
	DefaultSettleDelay = 50 * time.Millisecond
)

// Activator turns a fetched artifact payload into a live SDK object in the
// registry. It returns a channel closed once installation has been
// signaled; the registry may still be populated asynchronously relative to
// that signal, which is why the loader settles before re-validating.
type Activator interface {
	Activate(ctx context.Context, payload []byte, registry interfaces.CodeRegistry) (<-chan struct{}, error)
}

// LoaderConfig configures the artifact origin and load timing.
type LoaderConfig struct {
	// ArtifactURL is the fixed, versioned location the artifact is fetched
	// from.
	ArtifactURL string

	// Checksum is an optional pinned keccak256 digest of the artifact.
	Checksum string

	// Timeout bounds one load attempt. Zero means DefaultLoadTimeout.
	Timeout time.Duration

	// SettleDelay is the wait after the activation signal before
	// re-validating the registry. Zero means DefaultSettleDelay.
	SettleDelay time.Duration
}

// Loader fetches and activates the relayer SDK artifact, exactly once,
// into the injected code registry.
type Loader struct {
	cfg       LoaderConfig
	registry  interfaces.CodeRegistry
	fetcher   Fetcher
	activator Activator
	validator *Validator
	log       *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	loaded bool
}

// NewLoader creates a loader. The fetcher is derived from the artifact
// URL's scheme when nil.
func NewLoader(cfg LoaderConfig, registry interfaces.CodeRegistry, fetcher Fetcher, activator Activator, log *slog.Logger) (*Loader, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLoadTimeout
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	if fetcher == nil {
		var err error
		fetcher, err = FetcherFor(cfg.ArtifactURL)
		if err != nil {
			return nil, err
		}
	}

	return &Loader{
		cfg:       cfg,
		registry:  registry,
		fetcher:   fetcher,
		activator: activator,
		validator: NewValidator(log),
		log:       log,
	}, nil
}

// IsLoaded reports whether a validated SDK is currently installed.
func (l *Loader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Load fetches and activates the SDK if it is not already installed.
// Concurrent calls share one in-flight load and observe its outcome.
// Failures are never silently retried; a later Load starts fresh.
func (l *Loader) Load(ctx context.Context) error {
	_, err, _ := l.group.Do("load", func() (any, error) {
		return nil, l.doLoad(ctx)
	})
	l.group.Forget("load")
	return err
}

// ForceReload unconditionally discards cached load state, evicts the
// installed SDK object and artifact record, and performs a fresh load.
func (l *Loader) ForceReload(ctx context.Context) error {
	l.mu.Lock()
	l.loaded = false
	l.mu.Unlock()

	l.registry.Delete(SDKObjectName)
	l.registry.Delete(ArtifactObjectName)
	l.log.Info("Discarded loaded SDK state, reloading", slog.String("artifactURL", l.cfg.ArtifactURL))

	return l.Load(ctx)
}

func (l *Loader) doLoad(ctx context.Context) error {
	// A pre-existing registry object short-circuits the fetch if it still
	// passes validation. An invalid one is actively evicted together with
	// its artifact record before fetching fresh code.
	if existing, ok := l.registry.Get(SDKObjectName); ok {
		report := l.validator.Validate(existing)
		if report.Verdict != Invalid {
			l.mu.Lock()
			l.loaded = true
			l.mu.Unlock()
			l.log.Debug("Reusing SDK already present in registry",
				slog.String("verdict", report.Verdict.String()))
			return nil
		}

		l.log.Warn("Evicting invalid SDK object from registry",
			slog.String("reasons", strings.Join(report.Reasons, "; ")))
		l.registry.Delete(SDKObjectName)
		l.registry.Delete(ArtifactObjectName)
	}

	loadCtx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	l.log.Info("Fetching SDK artifact", slog.String("artifactURL", l.cfg.ArtifactURL))
	payload, err := l.fetcher.Fetch(loadCtx, l.cfg.ArtifactURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
			return &interfaces.LoadError{Msg: "artifact fetch exceeded " + l.cfg.Timeout.String(), Timeout: true, Err: err}
		}
		return &interfaces.LoadError{Msg: "artifact fetch", Err: err}
	}

	if err := VerifyChecksum(payload, l.cfg.Checksum); err != nil {
		return &interfaces.LoadError{Msg: "artifact integrity", Err: err}
	}

	l.registry.Set(ArtifactObjectName, payload)

	done, err := l.activator.Activate(loadCtx, payload, l.registry)
	if err != nil {
		return &interfaces.LoadError{Msg: "artifact activation", Err: err}
	}

	select {
	case <-done:
	case <-loadCtx.Done():
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &interfaces.LoadError{Msg: "activation did not signal completion within " + l.cfg.Timeout.String(), Timeout: true}
	}

	// The artifact may populate the registry asynchronously relative to its
	// completion signal; settle before re-validating.
	select {
	case <-time.After(l.cfg.SettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	obj, ok := l.registry.Get(SDKObjectName)
	if !ok {
		return interfaces.NewValidationError(nil, "activation completed but no SDK object was installed")
	}

	report := l.validator.Validate(obj)
	if report.Verdict == Invalid {
		return interfaces.NewValidationError(nil, "installed SDK failed capability check: %s", strings.Join(report.Reasons, "; "))
	}

	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()

	l.log.Info("SDK artifact loaded",
		slog.String("verdict", report.Verdict.String()),
		slog.Int("artifactBytes", len(payload)))

	return nil
}
