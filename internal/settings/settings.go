package settings

// Project is the root configuration document for a workspace.
// Field defaults live in schema.cue, not here: by the time a Project
// exists it has already been unified with the schema.
type Project struct {
	// Name identifies the project. Required, non-empty.
	Name string `json:"name" yaml:"name"`

	// Version is the project version string, e.g. "1.0.3".
	Version string `json:"version" yaml:"version"`

	// ModelPath is the directory holding query definitions, relative
	// to the project file. Defaults to "models".
	ModelPath string `json:"model_path" yaml:"model_path"`

	// SeedPath is the directory holding seed data files. Defaults to
	// "seeds".
	SeedPath string `json:"seed_path" yaml:"seed_path"`

	// CleanTargets lists directories removed by a clean run.
	CleanTargets []string `json:"clean_targets,omitempty" yaml:"clean_targets,omitempty"`

	// LogPath is the directory run logs are written to. Defaults to
	// "logs".
	LogPath string `json:"log_path" yaml:"log_path"`

	// Models configures individual models by name. Models without an
	// entry use the defaults.
	Models []ResourceConfig `json:"models,omitempty" yaml:"models,omitempty"`

	// Seeds configures individual seed files by name.
	Seeds []ResourceConfig `json:"seeds,omitempty" yaml:"seeds,omitempty"`

	// Sources declares the external tables queries may read from.
	Sources []SourceConfig `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Vars are substituted into queries at resolve time ($name).
	Vars map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
}

// ResourceConfig configures a single model or seed.
type ResourceConfig struct {
	Name string `json:"name" yaml:"name"`

	// Enabled toggles the resource. Nil means enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Database and Schema override where the resource materializes.
	Database string `json:"database" yaml:"database"`
	Schema   string `json:"schema" yaml:"schema"`

	// ExcludeFullRefresh keeps the resource out of full-refresh runs.
	ExcludeFullRefresh bool `json:"exclude_full_refresh" yaml:"exclude_full_refresh"`

	// Metadata carries free-form key/value annotations.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SourceConfig toggles a declared source.
type SourceConfig struct {
	Name string `json:"name" yaml:"name"`

	// Enabled toggles the source. Nil means enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// ModelEnabled reports whether the named model should be loaded.
// Models without an explicit entry default to enabled.
func (p *Project) ModelEnabled(name string) bool {
	for i := range p.Models {
		if p.Models[i].Name == name {
			if p.Models[i].Enabled != nil {
				return *p.Models[i].Enabled
			}
			return true
		}
	}
	return true
}

// SourceEnabled reports whether the named source is active. Sources
// follow the same nil-means-enabled rule as models.
func (p *Project) SourceEnabled(name string) bool {
	for i := range p.Sources {
		if p.Sources[i].Name == name {
			if p.Sources[i].Enabled != nil {
				return *p.Sources[i].Enabled
			}
			return true
		}
	}
	return true
}

// VarMap returns a copy of the project variable table. Never nil, so
// callers can pass it straight to query resolution.
func (p *Project) VarMap() map[string]string {
	vars := make(map[string]string, len(p.Vars))
	for k, v := range p.Vars {
		vars[k] = v
	}
	return vars
}
