package config

// ObjectMeta is a simplified metadata structure for dotprompt configs.
// Based on K8s ObjectMeta but with YAML-friendly tags and optional fields.
type ObjectMeta struct {
	Name        string            `yaml:"name,omitempty" jsonschema:"title=Name,description=Name of the resource"`
	Labels      map[string]string `yaml:"labels,omitempty" jsonschema:"title=Labels,description=Key-value pairs for organizing resources"`
	Annotations map[string]string `yaml:"annotations,omitempty" jsonschema:"title=Annotations,description=Additional metadata"`
}

// Manifest is the on-disk K8s-style envelope around Config.
type Manifest struct {
	//nolint:lll // jsonschema tags require single line
	APIVersion string `yaml:"apiVersion" jsonschema:"enum=dotprompt.google.com/v1alpha1,title=API Version,description=Schema version identifier"`
	//nolint:lll // jsonschema tags require single line
	Kind     string     `yaml:"kind" jsonschema:"enum=DotpromptConfig,title=Kind,description=Resource type identifier"`
	Metadata ObjectMeta `yaml:"metadata,omitempty" jsonschema:"title=Metadata,description=Resource metadata"`
	Spec     Config     `yaml:"spec" jsonschema:"title=Spec,description=Store and logging configuration"`
}

// Config is the runtime configuration for prompt stores and logging.
type Config struct {
	Store   StoreConfig       `yaml:"store,omitempty" jsonschema:"title=Store,description=Prompt store settings"`
	Logging LoggingConfigSpec `yaml:"logging,omitempty" jsonschema:"title=Logging,description=Structured logging settings"`
}

// StoreConfig configures the in-memory store and its instrumentation.
type StoreConfig struct {
	// ID binds pagination cursors to one store. Empty generates a random id.
	ID string `yaml:"id,omitempty" jsonschema:"title=ID,description=Store identity embedded in pagination cursors"`

	// Name labels logs, spans and metrics for the store.
	Name string `yaml:"name,omitempty" jsonschema:"title=Name,description=Store label for logs and telemetry"`

	// DefaultLimit is the page size used when a list call passes no limit.
	//nolint:lll // jsonschema tags require single line
	DefaultLimit int `yaml:"defaultLimit,omitempty" jsonschema:"minimum=1,default=50,title=Default Limit,description=Page size when a list call passes no limit"`

	// MaxLimit caps the page size of list calls.
	//nolint:lll // jsonschema tags require single line
	MaxLimit int `yaml:"maxLimit,omitempty" jsonschema:"minimum=1,default=1000,title=Max Limit,description=Upper bound on list page size"`
}
