package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/installer"
	"github.com/leeforge/essentials/plugin"
	"github.com/leeforge/essentials/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ctx = context.Background()

type installEvent struct {
	pluginID string
	outcome  string
}

type fakeObserver struct {
	events []installEvent
}

func (o *fakeObserver) ObserveInstall(pluginID, outcome string, _ time.Duration) {
	o.events = append(o.events, installEvent{pluginID, outcome})
}

type fixture struct {
	svc      *Service
	states   *store.FileStore
	deployed *store.FileStore
	actions  *plugin.ActionRegistry
	observer *fakeObserver
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, confirm bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	states, err := store.NewFileStore(filepath.Join(dir, "states"))
	require.NoError(t, err)
	deployed, err := store.NewFileStore(filepath.Join(dir, "deployed"))
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		states:   states,
		deployed: deployed,
		actions:  plugin.NewActionRegistry(),
		observer: &fakeObserver{},
		logs:     logs,
	}
	f.svc, err = New(Config{
		States:            states,
		Deployed:          deployed,
		Actions:           f.actions,
		ConfirmParameters: confirm,
		Logger:            zap.New(core),
		Observer:          f.observer,
	})
	require.NoError(t, err)
	return f
}

func TestNew_RequiresStateStore(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, apperrors.Validation)
}

func TestCanAutoInstall(t *testing.T) {
	noParams := &plugin.Descriptor{ID: "a"}
	optional := &plugin.Descriptor{ID: "b", Parameters: []plugin.ParameterSpec{{Name: "x"}}}
	requiredWithDefault := &plugin.Descriptor{ID: "c", Parameters: []plugin.ParameterSpec{{Name: "x", Required: true, Default: "v"}}}
	requiredNoDefault := &plugin.Descriptor{ID: "d", Parameters: []plugin.ParameterSpec{{Name: "x", Required: true}}}

	relaxed := newFixture(t, false).svc
	assert.True(t, relaxed.CanAutoInstall(noParams))
	assert.True(t, relaxed.CanAutoInstall(optional))
	assert.True(t, relaxed.CanAutoInstall(requiredWithDefault))
	assert.False(t, relaxed.CanAutoInstall(requiredNoDefault))

	confirming := newFixture(t, true).svc
	assert.True(t, confirming.CanAutoInstall(noParams))
	assert.False(t, confirming.CanAutoInstall(optional))
	assert.False(t, confirming.CanAutoInstall(requiredWithDefault))
}

func TestInstall_RunsActionWithDefaults(t *testing.T) {
	f := newFixture(t, false)
	var got plugin.Parameters
	f.actions.MustRegister("search", plugin.ActionFunc(func(_ context.Context, _ *plugin.Descriptor, params plugin.Parameters) error {
		got = params
		return nil
	}))
	d := &plugin.Descriptor{ID: "search", Parameters: []plugin.ParameterSpec{
		{Name: "index", Required: true, Default: "default-index"},
		{Name: "shards"},
	}}

	assert.True(t, f.svc.Install(ctx, d, plugin.Parameters{"shards": 3}))
	assert.Equal(t, "default-index", got.GetString("index", ""))
	assert.Equal(t, 3, got.GetInt("shards", 0))
	assert.Equal(t, []installEvent{{"search", OutcomeSucceeded}}, f.observer.events)
}

func TestInstall_MissingRequiredParameter(t *testing.T) {
	f := newFixture(t, false)
	called := false
	f.actions.MustRegister("db", plugin.ActionFunc(func(context.Context, *plugin.Descriptor, plugin.Parameters) error {
		called = true
		return nil
	}))
	d := &plugin.Descriptor{ID: "db", Parameters: []plugin.ParameterSpec{{Name: "url", Required: true}}}

	assert.False(t, f.svc.Install(ctx, d, nil))
	assert.False(t, f.svc.Install(ctx, d, plugin.Parameters{"url": nil}))
	assert.False(t, called)
	assert.Equal(t, 2, f.logs.FilterMessage("install parameters rejected").Len())
	assert.Equal(t, OutcomeInvalid, f.observer.events[0].outcome)

	assert.True(t, f.svc.Install(ctx, d, plugin.Parameters{"url": "postgres://"}))
	assert.True(t, called)
}

func TestInstall_RequiredParameterZeroValues(t *testing.T) {
	f := newFixture(t, false)
	var got plugin.Parameters
	f.actions.MustRegister("news", plugin.ActionFunc(func(_ context.Context, _ *plugin.Descriptor, params plugin.Parameters) error {
		got = params
		return nil
	}))
	d := &plugin.Descriptor{ID: "news", Parameters: []plugin.ParameterSpec{
		{Name: "sampleData", Required: true},
		{Name: "pageSize", Required: true},
		{Name: "prefix", Required: true},
	}}

	assert.True(t, f.svc.Install(ctx, d, plugin.Parameters{"sampleData": false, "pageSize": 0, "prefix": ""}))
	assert.Equal(t, []installEvent{{"news", OutcomeSucceeded}}, f.observer.events)
	assert.False(t, got.GetBool("sampleData", true))
	assert.Equal(t, 0, got.GetInt("pageSize", -1))
	assert.Equal(t, 0, f.logs.FilterMessage("install parameters rejected").Len())
}

func TestInstall_ActionError(t *testing.T) {
	f := newFixture(t, false)
	f.actions.MustRegister("x", plugin.ActionFunc(func(context.Context, *plugin.Descriptor, plugin.Parameters) error {
		return errors.New("disk full")
	}))

	assert.False(t, f.svc.Install(ctx, &plugin.Descriptor{ID: "x"}, nil))
	entries := f.logs.FilterMessage("install action failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
	assert.Equal(t, []installEvent{{"x", OutcomeFailed}}, f.observer.events)
}

func TestInstall_WithoutAction(t *testing.T) {
	f := newFixture(t, false)
	assert.True(t, f.svc.Install(ctx, &plugin.Descriptor{ID: "bare"}, nil))
}

func TestStoreStateAndReadDeployed(t *testing.T) {
	f := newFixture(t, false)
	d := &plugin.Descriptor{ID: "a", State: plugin.StateInstalling}

	require.NoError(t, f.svc.StoreState(ctx, d))
	rec, err := f.states.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, plugin.StateInstalling, rec.State)

	assert.Equal(t, plugin.StateDiscovered, f.svc.ReadDeployedState(ctx, d))

	n, err := f.svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, plugin.StateInstalled, f.svc.ReadDeployedState(ctx, d))
	assert.Zero(t, f.logs.FilterMessage("failed to read deployed state").Len())
}

func TestRebuild_KeepsPendingStates(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.states.Save(ctx, store.Record{PluginID: "p", State: plugin.StateInstallationPending}))

	_, err := f.svc.Rebuild(ctx)
	require.NoError(t, err)
	rec, err := f.deployed.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, plugin.StateInstallationPending, rec.State)
}

func TestRebuild_NoDeployedStore(t *testing.T) {
	states, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, err := New(Config{States: states})
	require.NoError(t, err)

	_, err = svc.Rebuild(ctx)
	assert.ErrorIs(t, err, apperrors.Validation)
	assert.Equal(t, plugin.StateDiscovered, svc.ReadDeployedState(ctx, &plugin.Descriptor{ID: "a"}))
}

// The full lifecycle: install with a rebuild, rebuild, restart.
func TestService_DrivesStateMachineAcrossRestart(t *testing.T) {
	f := newFixture(t, false)
	m := installer.New(installer.Config{Service: f.svc})
	newSet := func() *plugin.Set {
		return plugin.MustNewSet(
			&plugin.Descriptor{ID: "core", Name: "Core", RebuildAfterInstallation: true},
			&plugin.Descriptor{ID: "blog", Name: "Blog", Dependencies: []plugin.Dependency{
				{PluginID: "core", MinInstallStateForInstalling: plugin.StatePtr(plugin.StateInstalled)},
			}},
		)
	}

	set := newSet()
	fb := plugin.NewFeedback()
	require.True(t, m.InstallWithDependencies(ctx, "blog", set, nil, fb))
	blog, _ := set.Get("blog")
	assert.Equal(t, plugin.StateInstallationPending, blog.State)

	_, err := f.svc.Rebuild(ctx)
	require.NoError(t, err)

	// a fresh process restores persisted states before signalling the restart
	set = newSet()
	_, err = store.Restore(ctx, f.states, set)
	require.NoError(t, err)

	fb = plugin.NewFeedback()
	m.SignalRestart(ctx, set, nil, fb)
	assert.Equal(t, []string{
		"Plugin 'Core' has been installed successfully.",
		"Plugin 'Blog' has been installed successfully.",
	}, fb.Texts())

	rec, err := f.states.Load(ctx, "blog")
	require.NoError(t, err)
	assert.Equal(t, plugin.StateInstalled, rec.State)
}

func TestSetConfirmParameters(t *testing.T) {
	f := newFixture(t, false)
	d := &plugin.Descriptor{ID: "a", Parameters: []plugin.ParameterSpec{{Name: "x"}}}
	assert.True(t, f.svc.CanAutoInstall(d))

	f.svc.SetConfirmParameters(true)
	assert.False(t, f.svc.CanAutoInstall(d))
}
