// Package installer drives plugins through their install lifecycle,
// honouring dependency order and resuming across rebuild and restart.
package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/leeforge/essentials/plugin"
	"go.uber.org/zap"
)

// TransitionRecorder observes install state changes.
type TransitionRecorder interface {
	ObserveTransition(pluginID string, from, to plugin.InstallState)
}

// Config holds configuration for creating a StateMachine.
type Config struct {
	Service  plugin.InstallService // required
	Logger   *zap.Logger
	Recorder TransitionRecorder
}

// StateMachine installs plugins with their dependencies. It keeps no state of
// its own: all state lives on the descriptors of the plugin set passed to each
// call and in the InstallService. Calls must be serialized by the caller.
type StateMachine struct {
	service  plugin.InstallService
	logger   *zap.Logger
	recorder TransitionRecorder
}

// New creates a state machine.
func New(cfg Config) *StateMachine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &StateMachine{
		service:  cfg.Service,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
	}
}

// InstallWithDependencies installs the plugin and, first, every dependency it
// needs. It returns false only when installation cannot start: the plugin or
// one of its dependencies is unknown, or the dependency graph has a cycle.
// A plugin left waiting on a dependency or on user input still yields true.
func (m *StateMachine) InstallWithDependencies(ctx context.Context, id string, set *plugin.Set, params plugin.Parameters, fb *plugin.Feedback) bool {
	p, ok := m.lookup(id, set, fb)
	if !ok {
		return false
	}
	m.install(ctx, p, set, params, fb)
	return true
}

// InstallWithParameters completes the installation of a plugin that was
// waiting for user input, then advances any plugin that was waiting on it.
// A plugin in any other state is rejected with false and no feedback.
func (m *StateMachine) InstallWithParameters(ctx context.Context, id string, set *plugin.Set, params plugin.Parameters, fb *plugin.Feedback) bool {
	p, ok := m.lookup(id, set, fb)
	if !ok {
		return false
	}
	if p.State != plugin.StateAwaitingUserInput {
		m.logger.Debug("plugin not awaiting user input",
			zap.String("plugin", p.ID), zap.Stringer("state", p.State))
		return false
	}

	m.installPlugin(ctx, p, params, fb, false)
	m.promotePending(ctx, set, params, fb)
	return true
}

// SignalRestart resumes installation after the application was rebuilt and
// restarted. Plugins that were installing take their state from the deployed
// application; pending plugins whose dependencies are now satisfied are then
// installed in declaration order.
func (m *StateMachine) SignalRestart(ctx context.Context, set *plugin.Set, params plugin.Parameters, fb *plugin.Feedback) {
	for _, p := range set.All() {
		if p.State != plugin.StateInstalling {
			continue
		}
		deployed := m.service.ReadDeployedState(ctx, p)
		if !deployed.AtLeast(plugin.StateInstalled) {
			m.logger.Info("plugin still installing after restart",
				zap.String("plugin", p.ID), zap.Stringer("deployed", deployed))
			continue
		}
		m.transition(ctx, p, plugin.StateInstalled, true)
		fb.Success(fmt.Sprintf("Plugin '%s' has been installed successfully.", p.DisplayName()))
	}

	m.promotePending(ctx, set, params, fb)
}

// lookup resolves the plugin and validates its dependency graph.
func (m *StateMachine) lookup(id string, set *plugin.Set, fb *plugin.Feedback) (*plugin.Descriptor, bool) {
	p, ok := set.Get(id)
	if !ok {
		fb.Error(fmt.Sprintf("Failed to locate plugin with ID '%s'.", id))
		return nil, false
	}

	problem := validateGraph(p, set)
	switch {
	case problem == nil:
		return p, true
	case problem.missingID != "":
		fb.Error(fmt.Sprintf("Failed to locate plugin with ID '%s'.", problem.missingID))
	default:
		fb.Error(fmt.Sprintf("Plugin '%s' has cyclic dependency, unable to install. Check back-end logs.", p.DisplayName()))
		m.logger.Error(fmt.Sprintf("Dependency chain for cyclic plugin dependency is: %s.", formatChain(problem.cycle)),
			zap.String("plugin", p.ID), zap.Strings("chain", problem.cycle))
	}
	return nil, false
}

// install advances p and its dependencies as far as they can go.
func (m *StateMachine) install(ctx context.Context, p *plugin.Descriptor, set *plugin.Set, params plugin.Parameters, fb *plugin.Feedback) {
	if !advanceable(p.State) {
		return
	}

	var waiting []string
	for _, dep := range p.Dependencies {
		if dep.MinInstallStateForInstalling == nil {
			continue
		}
		required := *dep.MinInstallStateForInstalling
		d, ok := set.Get(dep.PluginID)
		if !ok {
			waiting = append(waiting, dep.PluginID)
			continue
		}
		if !d.State.AtLeast(required) && advanceable(d.State) {
			fb.Info(fmt.Sprintf("Installing dependent plugin '%s'...", d.DisplayName()))
			m.install(ctx, d, set, params, fb)
		}
		if !d.State.AtLeast(required) {
			waiting = append(waiting, d.DisplayName())
		}
	}

	if len(waiting) > 0 {
		m.transition(ctx, p, plugin.StateInstallationPending, true)
		fb.Info(fmt.Sprintf("Installation of plugin '%s' is waiting for the installation of dependent plugin(s) '%s'.",
			p.DisplayName(), strings.Join(waiting, ", ")))
		return
	}

	m.installPlugin(ctx, p, params, fb, true)
}

// installPlugin runs the install action for a plugin whose dependencies are
// satisfied. A failed action returns the plugin to DISCOVERED without
// persisting so the user can retry.
func (m *StateMachine) installPlugin(ctx context.Context, p *plugin.Descriptor, params plugin.Parameters, fb *plugin.Feedback, checkAutoInstall bool) {
	if checkAutoInstall && !m.service.CanAutoInstall(p) {
		m.transition(ctx, p, plugin.StateAwaitingUserInput, false)
		fb.Info(fmt.Sprintf("Plugin '%s' requires user input for installation.", p.DisplayName()))
		return
	}

	if !m.service.Install(ctx, p, params) {
		m.logger.Warn("plugin installation failed", zap.String("plugin", p.ID))
		m.transition(ctx, p, plugin.StateDiscovered, false)
		return
	}

	if p.RebuildAfterInstallation {
		m.transition(ctx, p, plugin.StateInstalling, true)
		fb.Success(fmt.Sprintf("Plugin '%s' has been installed successfully, but requires a restart.", p.DisplayName()))
		return
	}
	m.transition(ctx, p, plugin.StateInstalled, true)
	fb.Success(fmt.Sprintf("Plugin '%s' has been installed successfully.", p.DisplayName()))
}

// promotePending installs pending plugins whose dependencies are satisfied,
// repeating until a full pass changes nothing.
func (m *StateMachine) promotePending(ctx context.Context, set *plugin.Set, params plugin.Parameters, fb *plugin.Feedback) {
	for {
		progressed := false
		for _, p := range set.All() {
			if p.State != plugin.StateInstallationPending || !dependenciesSatisfied(p, set) {
				continue
			}
			m.install(ctx, p, set, params, fb)
			if p.State != plugin.StateInstallationPending {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

func (m *StateMachine) transition(ctx context.Context, p *plugin.Descriptor, to plugin.InstallState, persist bool) {
	from := p.State
	p.State = to
	if m.recorder != nil && from != to {
		m.recorder.ObserveTransition(p.ID, from, to)
	}
	m.logger.Debug("plugin state changed",
		zap.String("plugin", p.ID), zap.Stringer("from", from), zap.Stringer("to", to))

	if !persist {
		return
	}
	if err := m.service.StoreState(ctx, p); err != nil {
		m.logger.Error("failed to persist plugin state",
			zap.String("plugin", p.ID), zap.Stringer("state", to), zap.Error(err))
	}
}

// advanceable reports whether the installer may act on a plugin in state s.
func advanceable(s plugin.InstallState) bool {
	return s == plugin.StateDiscovered || s == plugin.StateInstallationPending
}

func dependenciesSatisfied(p *plugin.Descriptor, set *plugin.Set) bool {
	for _, dep := range p.Dependencies {
		if dep.MinInstallStateForInstalling == nil {
			continue
		}
		d, ok := set.Get(dep.PluginID)
		if !ok || !d.State.AtLeast(*dep.MinInstallStateForInstalling) {
			return false
		}
	}
	return true
}
