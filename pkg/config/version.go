package config

// Version constants for dotprompt configuration manifests.
const (
	// APIVersion is the Kubernetes-style API version for dotprompt configs
	APIVersion = "dotprompt.google.com/v1alpha1"

	// SchemaVersion is the version string used in schema identifiers
	SchemaVersion = "v1alpha1"

	// KindConfig is the manifest kind accepted by LoadConfig
	KindConfig = "DotpromptConfig"
)
