package plugin

import "context"

// InstallService performs the mechanical side of installation on behalf of
// the installer: eligibility checks, persistence and the install action.
type InstallService interface {
	// ReadDeployedState returns the install state recorded in the deployed
	// application, which is authoritative after a rebuild and restart.
	ReadDeployedState(ctx context.Context, d *Descriptor) InstallState

	// StoreState persists the descriptor's current in-memory state.
	StoreState(ctx context.Context, d *Descriptor) error

	// CanAutoInstall reports whether the plugin may install without
	// user-supplied parameters.
	CanAutoInstall(d *Descriptor) bool

	// Install runs the install action. Parameters are passed through unchanged.
	Install(ctx context.Context, d *Descriptor, params Parameters) bool
}

// Action is the install routine registered for a plugin id.
type Action interface {
	Install(ctx context.Context, d *Descriptor, params Parameters) error
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ctx context.Context, d *Descriptor, params Parameters) error

func (f ActionFunc) Install(ctx context.Context, d *Descriptor, params Parameters) error {
	return f(ctx, d, params)
}
