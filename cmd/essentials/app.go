package main

import (
	"context"
	"fmt"
	"os"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/essentials/config"
	"github.com/leeforge/essentials/installer"
	"github.com/leeforge/essentials/logging"
	"github.com/leeforge/essentials/metrics"
	"github.com/leeforge/essentials/plugin"
	"github.com/leeforge/essentials/redis_client"
	"github.com/leeforge/essentials/service"
	"github.com/leeforge/essentials/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app is the wired object graph shared by all commands.
type app struct {
	loader   *config.Loader
	settings *config.Settings
	logger   *zap.Logger
	closeLog func() error
	redis    *redis.Client

	plugins  *plugin.Set
	states   store.StateStore
	service  *service.Service
	machine  *installer.StateMachine
	registry *prometheus.Registry
	recorder *metrics.Recorder
}

func bootstrap(ctx context.Context, opts *rootOptions) (*app, error) {
	cfgOpts := config.DefaultOptions()
	cfgOpts.BasePath = opts.configPath
	loader := config.NewLoader(cfgOpts)
	settings, err := loader.Load()
	if err != nil {
		return nil, err
	}

	a := &app{loader: loader, settings: settings}
	a.logger, a.closeLog = logging.New(settings.Log)

	states, deployed, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.states = states

	if a.plugins, err = loadCatalog(settings.Catalog.Path); err != nil {
		a.Close()
		return nil, err
	}
	restored, err := store.Restore(ctx, states, a.plugins)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.recorder = metrics.NewRecorder(a.registry)
	a.recorder.SetStates(a.plugins)

	a.service, err = service.New(service.Config{
		States:            states,
		Deployed:          deployed,
		Actions:           plugin.NewActionRegistry(),
		ConfirmParameters: settings.Installer.ConfirmParameters,
		Logger:            a.logger.Named("service"),
		Observer:          a.recorder,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.machine = installer.New(installer.Config{
		Service:  a.service,
		Logger:   a.logger.Named("installer"),
		Recorder: a.recorder,
	})

	a.logger.Debug("bootstrapped",
		zap.String("store", settings.Store.Driver),
		zap.Int("plugins", a.plugins.Len()),
		zap.Int("restored", restored))
	return a, nil
}

func (a *app) openStores(ctx context.Context) (states, deployed store.StateStore, err error) {
	cfg := a.settings.Store
	switch cfg.Driver {
	case "redis":
		a.redis, err = redis_client.NewRedis(ctx, a.settings.Redis, a.logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(a.redis, cfg.RedisKey), store.NewRedisStore(a.redis, cfg.DeployedRedisKey), nil
	default:
		stateFS, err := store.NewFileStore(cfg.Directory)
		if err != nil {
			return nil, nil, err
		}
		deployedFS, err := store.NewFileStore(cfg.DeployedDirectory)
		if err != nil {
			return nil, nil, err
		}
		return stateFS, deployedFS, nil
	}
}

func loadCatalog(path string) (*plugin.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin catalog: %w", err)
	}
	defer f.Close()
	return plugin.Decode(f)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}
