package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/auth"
	"github.com/lookup-erp/lookup/pkg/backend"
	"github.com/lookup-erp/lookup/pkg/cache/memory"
	cachepkg "github.com/lookup-erp/lookup/pkg/cache/sqlite"
	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/search"
	"github.com/lookup-erp/lookup/pkg/session"
)

// app holds the services a command needs.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *session.SQLiteStore
	auth   *auth.Manager
	client *backend.Client
	cache  *cachepkg.Cache
}

// loadConfig reads path. The default path may be absent, in which case the
// built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newLogger(cfg config.LogConfig, override string, w io.Writer) (zerolog.Logger, error) {
	levelName := cfg.Level
	if override != "" {
		levelName = override
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// openApp loads config, opens the local store and restores the session.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log, opts.logLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	store, err := session.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, store: store}
	a.auth = auth.New(cfg.Auth, store, log)

	if cfg.Cache.Persistent {
		a.cache, err = cachepkg.New(cfg.DBPath, cfg.Cache.TTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.auth.OnLogout(func() {
			if err := a.cache.Clear(false); err != nil {
				log.Warn().Err(err).Msg("clear cache on logout")
			}
		})
	}

	_, err = a.auth.Bootstrap(ctx)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrSessionExpired):
		log.Debug().Err(err).Msg("continuing without session")
	default:
		a.Close()
		return nil, err
	}

	// The token is read per call, so a login or logout picked up by Watch
	// applies to the next request.
	a.client, err = backend.New(cfg, log, backend.WithTokenSource(backend.TokenFunc(a.auth.BearerToken)))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the databases.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = a.store.Close()
}

// resultCache picks the cache an orchestrator for T should use.
func resultCache[T any](a *app) search.Cache[T] {
	if a.cache != nil {
		return cachepkg.NewTyped[T](a.cache, a.log)
	}
	return memory.New[T](a.cfg.Cache.TTL)
}
