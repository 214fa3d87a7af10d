package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	redisstore "github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlstore"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/library"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Backend is the persistence chosen by the store config.
type Backend struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases connections held by the store.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend creates the session store selected by cfg.Driver, wrapped in
// the redaction and encryption middleware the config asks for.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	be, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	be.Store = middleware.Chain(be.Store, mws...)
	return be, nil
}

func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := decodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		var fallback [][]byte
		for _, k := range cfg.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, err
			}
			fallback = append(fallback, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	return key, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return &Backend{Store: memory.NewStore()}, nil

	case "file":
		return &Backend{Store: file.NewStore(cfg.Path)}, nil

	case "redis":
		opts, err := redisOptions(cfg.Addr)
		if err != nil {
			return nil, err
		}
		client := backend.NewClient(opts)
		storeOpts := []redisstore.Option{redisstore.WithPrefix(cfg.Prefix + ":session:")}
		if cfg.TTL != "" {
			ttl, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, fmt.Errorf("invalid store ttl %q: %w", cfg.TTL, err)
			}
			storeOpts = append(storeOpts, redisstore.WithTTL(ttl))
		}
		store := redisstore.NewFromClient(client, storeOpts...)
		return &Backend{
			Store:  store,
			Locker: redisstore.NewLocker(client, cfg.Prefix+":"),
			closer: store,
		}, nil

	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join(filepath.Dir(cfg.Path), "sessions.db")
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, err
			}
		}
		store, err := sqlstore.Open(ctx, sqlstore.SQLite, dsn)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, closer: store}, nil

	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store driver postgres needs store.dsn")
		}
		store, err := sqlstore.Open(ctx, sqlstore.Postgres, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, closer: store}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q (want memory, file, redis, sqlite or postgres)", cfg.Driver)
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(addr string) (*backend.Options, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	if strings.Contains(addr, "://") {
		opts, err := backend.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &backend.Options{Addr: addr}, nil
}

// EngineOptions are the extras callers add on top of the config.
type EngineOptions struct {
	// ScriptsDir overrides cfg.Scripts.Dir.
	ScriptsDir   string
	Participants func() []dialogue.Participant
}

// createEngine initializes a Parley engine from configuration with standard
// CLI conventions. The returned backend must be closed by the caller.
func createEngine(ctx context.Context, cfg *config.Config, extra EngineOptions, logger *slog.Logger) (*parley.Engine, *Backend, error) {
	dir := cfg.Scripts.Dir
	if extra.ScriptsDir != "" {
		dir = extra.ScriptsDir
	}
	lib := library.NewDir(dir,
		library.WithCacheSize(cfg.Scripts.CacheSize),
		library.WithTabWidth(cfg.Scripts.TabWidth),
		library.WithLogger(logger),
	)

	be, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing store: %w", err)
	}

	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithLibrary(lib),
		parley.WithStore(be.Store),
		parley.WithTabWidth(cfg.Scripts.TabWidth),
	}
	if be.Locker != nil {
		opts = append(opts, parley.WithLocker(be.Locker))
	}
	if extra.Participants != nil {
		opts = append(opts, parley.WithParticipants(extra.Participants))
	}

	engine, err := parley.New(opts...)
	if err != nil {
		_ = be.Close()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("Engine ready", "scripts", dir, "store", cfg.Store.Driver)
	return engine, be, nil
}

// resolveScript maps a CLI argument to a scripts directory and script name.
// A path to an existing file selects that file's directory; anything else is
// a name inside the configured directory. The .sud extension is optional.
func resolveScript(arg, defaultDir string) (dir, name string) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return filepath.Dir(arg), strings.TrimSuffix(filepath.Base(arg), file.ScriptExt)
	}
	return defaultDir, filepath.ToSlash(strings.TrimSuffix(arg, file.ScriptExt))
}
