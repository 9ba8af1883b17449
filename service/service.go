// Package service implements plugin.InstallService on top of the state
// stores and the install action registry.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/plugin"
	"github.com/leeforge/essentials/store"
	"go.uber.org/zap"
)

// Install outcomes reported to the InstallObserver.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
)

// InstallObserver is notified after every install action.
type InstallObserver interface {
	ObserveInstall(pluginID, outcome string, elapsed time.Duration)
}

// Config holds configuration for creating a Service.
type Config struct {
	// States receives the installer's persisted states.
	States store.StateStore
	// Deployed holds the states baked into the running application.
	// A nil store reports every plugin as DISCOVERED.
	Deployed store.StateStore
	Actions  *plugin.ActionRegistry
	// ConfirmParameters forces user input for plugins that declare parameters.
	ConfirmParameters bool
	Logger            *zap.Logger
	Observer          InstallObserver
}

// Service is the concrete InstallService.
type Service struct {
	states            store.StateStore
	deployed          store.StateStore
	actions           *plugin.ActionRegistry
	confirmParameters atomic.Bool
	logger            *zap.Logger
	observer          InstallObserver
}

var _ plugin.InstallService = (*Service)(nil)

// New creates a service. States is required.
func New(cfg Config) (*Service, error) {
	if cfg.States == nil {
		return nil, apperrors.NewValidation("service requires a state store")
	}
	if cfg.Actions == nil {
		cfg.Actions = plugin.NewActionRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Service{
		states:   cfg.States,
		deployed: cfg.Deployed,
		actions:  cfg.Actions,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
	s.confirmParameters.Store(cfg.ConfirmParameters)
	return s, nil
}

// SetConfirmParameters changes the auto-install policy at runtime.
func (s *Service) SetConfirmParameters(confirm bool) {
	s.confirmParameters.Store(confirm)
}

// ReadDeployedState returns the state recorded in the deployed application.
// Missing records and read errors both report DISCOVERED.
func (s *Service) ReadDeployedState(ctx context.Context, d *plugin.Descriptor) plugin.InstallState {
	if s.deployed == nil {
		return plugin.StateDiscovered
	}
	rec, err := s.deployed.Load(ctx, d.ID)
	if err != nil {
		if apperrors.TypeOf(err) != apperrors.ErrorTypeNotFound {
			s.logger.Error("failed to read deployed state", zap.String("plugin", d.ID), zap.Error(err))
		}
		return plugin.StateDiscovered
	}
	return rec.State
}

func (s *Service) StoreState(ctx context.Context, d *plugin.Descriptor) error {
	if err := s.states.Save(ctx, store.RecordOf(d)); err != nil {
		return fmt.Errorf("store state of %s: %w", d.ID, err)
	}
	return nil
}

// CanAutoInstall is false when a required parameter has no default, or when
// parameters must be confirmed and the plugin declares any.
func (s *Service) CanAutoInstall(d *plugin.Descriptor) bool {
	if len(d.Parameters) == 0 {
		return true
	}
	if s.confirmParameters.Load() {
		return false
	}
	for _, p := range d.Parameters {
		if p.Required && p.Default == nil {
			return false
		}
	}
	return true
}

// Install fills declared defaults, checks required parameters and runs the
// registered action. A plugin without an action installs trivially.
func (s *Service) Install(ctx context.Context, d *plugin.Descriptor, params plugin.Parameters) bool {
	start := time.Now()
	params = params.WithDefaults(d.Parameters)

	if err := s.checkRequired(d, params); err != nil {
		s.logger.Warn("install parameters rejected", zap.String("plugin", d.ID), zap.Error(err))
		s.observe(d.ID, OutcomeInvalid, start)
		return false
	}

	action, ok := s.actions.Lookup(d.ID)
	if !ok {
		s.logger.Debug("no install action registered", zap.String("plugin", d.ID))
		s.observe(d.ID, OutcomeSucceeded, start)
		return true
	}

	if err := action.Install(ctx, d, params); err != nil {
		s.logger.Error("install action failed", zap.String("plugin", d.ID), zap.Error(err))
		s.observe(d.ID, OutcomeFailed, start)
		return false
	}

	s.logger.Info("install action completed",
		zap.String("plugin", d.ID), zap.Duration("elapsed", time.Since(start)))
	s.observe(d.ID, OutcomeSucceeded, start)
	return true
}

// Rebuild publishes the persisted states to the deployed store, the way a
// rebuild bakes the project into the application: plugins that were
// installing come up installed. Returns the number of records published.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	if s.deployed == nil {
		return 0, apperrors.NewValidation("no deployed store configured")
	}
	records, err := s.states.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list states: %w", err)
	}
	for _, rec := range records {
		if rec.State == plugin.StateInstalling {
			rec.State = plugin.StateInstalled
		}
		rec.UpdatedAt = time.Now().UTC()
		if err := s.deployed.Save(ctx, rec); err != nil {
			return 0, fmt.Errorf("publish %s: %w", rec.PluginID, err)
		}
	}
	s.logger.Info("published install states", zap.Int("records", len(records)))
	return len(records), nil
}

// checkRequired only tests presence: false, 0 and "" are valid values.
func (s *Service) checkRequired(d *plugin.Descriptor, params plugin.Parameters) error {
	for _, name := range d.RequiredParameters() {
		if v, ok := params.Get(name); !ok || v == nil {
			return apperrors.NewValidation(fmt.Sprintf("parameter %q is required", name)).
				WithDetail("plugin", d.ID)
		}
	}
	return nil
}

func (s *Service) observe(pluginID, outcome string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveInstall(pluginID, outcome, time.Since(start))
	}
}
