package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProvider is returned when no provider name was requested and no
// primary provider is configured.
var ErrNoProvider = errors.New("no provider specified and no primary provider configured")

// NotEnabledError is returned when the resolved provider name is not in the
// enabled set.
type NotEnabledError struct {
	// Name is the provider that was requested.
	Name string

	// Enabled lists the currently enabled provider names.
	Enabled []string
}

func (e *NotEnabledError) Error() string {
	if len(e.Enabled) == 0 {
		return fmt.Sprintf("provider %q is not enabled (no providers are enabled)", e.Name)
	}
	return fmt.Sprintf("provider %q is not enabled (enabled: %s)", e.Name, strings.Join(e.Enabled, ", "))
}

// NotRegisteredError is returned when a provider is enabled but has no
// registered handler. This signals a configuration or credentials problem,
// so the error names the environment variable expected to hold the
// provider's credentials and the handlers that are registered.
type NotRegisteredError struct {
	// Name is the provider that was requested.
	Name string

	// CredentialEnv is the environment variable expected to hold the
	// provider's API credentials.
	CredentialEnv string

	// Registered lists the currently registered handler names.
	Registered []string
}

func (e *NotRegisteredError) Error() string {
	registered := "none"
	if len(e.Registered) > 0 {
		registered = strings.Join(e.Registered, ", ")
	}
	return fmt.Sprintf("provider %q is enabled but has no registered handler (check %s; registered: %s)",
		e.Name, e.CredentialEnv, registered)
}

// UnsupportedServiceError is returned when a provider does not support the
// requested service type.
type UnsupportedServiceError struct {
	// Provider is the provider name.
	Provider string

	// Service is the unsupported service type.
	Service ServiceType

	// Capabilities lists the service types the provider actually supports.
	Capabilities []ServiceType
}

func (e *UnsupportedServiceError) Error() string {
	caps := make([]string, 0, len(e.Capabilities))
	for _, c := range e.Capabilities {
		caps = append(caps, c.String())
	}
	return fmt.Sprintf("provider %q does not support service %q (supports: %s)",
		e.Provider, e.Service, strings.Join(caps, ", "))
}

// credentialEnvVars maps known provider names to the environment variable
// holding their credentials. Unknown providers fall back to
// <NAME>_API_KEY.
var credentialEnvVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"ollama":    "OLLAMA_HOST",
}

// CredentialEnv returns the environment variable expected to configure the
// named provider's credentials.
func CredentialEnv(name string) string {
	if env, ok := credentialEnvVars[name]; ok {
		return env
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
}
