package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/syedzayyan/pomonotes/internal/apiclient"
	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/config"
	"github.com/syedzayyan/pomonotes/internal/localstore"
	"github.com/syedzayyan/pomonotes/internal/logger"
	"github.com/syedzayyan/pomonotes/internal/offline"
	"github.com/syedzayyan/pomonotes/internal/sessioncache"
)

// app is the client's wired object graph for one command invocation.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *localstore.Store
	tokens   *tokenHolder
	requests *offline.Client
	api      *apiclient.Client
	cache    *sessioncache.Cache
	monitor  *offline.Monitor

	closeLog func() error
}

type tokenHolder struct {
	mu    sync.RWMutex
	token string
}

func (t *tokenHolder) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *tokenHolder) Set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFrom(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.Client.APIURL = flags.apiURL
	}
	if flags.statePath != "" {
		cfg.Client.StatePath = flags.statePath
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(filepath.Dir(cfg.Client.StatePath), "pomonotes.log")
	}
	cfg.Logging.Service = "pomonotes-client"
	return cfg, nil
}

func openApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, closeLog, err := logger.Open(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closeLog: closeLog, tokens: &tokenHolder{}}

	a.store, err = localstore.Open(cfg.Client.StatePath)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open local state: %w", err)
	}

	token := cfg.Client.Token
	if token == "" {
		if token, err = a.store.AuthToken(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("read auth token: %w", err)
		}
	}
	a.tokens.Set(token)

	httpClient := apiclient.NewHTTPClient(a.tokens.Get, cfg.Client.RequestTimeout)
	resolver, err := offline.NewResolver(ctx, a.store, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	queue := offline.NewQueue(a.store, resolver, httpClient, clock.System(), log)
	a.requests = offline.NewClient(httpClient, queue, resolver, log)
	a.api = apiclient.New(cfg.Client.APIURL, a.requests)
	a.monitor = offline.NewMonitor(a.requests, cfg.Client.APIURL, cfg.Client.ProbeInterval, log)

	a.cache, err = sessioncache.New(a.store, cfg.Client.CacheMaxCost)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) saveToken(ctx context.Context, token string) error {
	a.tokens.Set(token)
	return a.store.SetAuthToken(ctx, token)
}

func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}
