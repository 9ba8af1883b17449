package plugin

// Dependency is a directed edge to another plugin.
//
// MinInstallStateForInstalling is the state the target must reach before the
// dependent plugin may install. A nil minimum is never satisfied, and is
// also never waited on: the target is not installed automatically and the
// dependent proceeds without it.
type Dependency struct {
	PluginID                     string        `json:"pluginId"`
	MinInstallStateForInstalling *InstallState `json:"minInstallStateForInstalling,omitempty"`
}

// ParameterSpec declares one install parameter a plugin understands.
type ParameterSpec struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
}

// Descriptor describes one installable plugin. Descriptors are shared by
// pointer and mutated in place while an installation runs.
type Descriptor struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	State                    InstallState    `json:"state"`
	RebuildAfterInstallation bool            `json:"rebuildAfterInstallation"`
	Dependencies             []Dependency    `json:"pluginDependencies,omitempty"`
	Parameters               []ParameterSpec `json:"parameters,omitempty"`
}

// DisplayName returns the name, falling back to the id.
func (d *Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// RequiredParameters returns the names of parameters without which the
// plugin cannot install.
func (d *Descriptor) RequiredParameters() []string {
	var names []string
	for _, p := range d.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}
