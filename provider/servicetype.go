// Package provider defines the capability-qualified backend registry and
// the handler contract that model backends implement. Chain steps request a
// provider by name and a service type; the registry resolves the name,
// enforces enabled-set membership, and validates the capability before the
// orchestrator dispatches the call.
package provider

// ServiceType represents a model service a provider can offer.
type ServiceType string

const (
	// ServiceTextText is text-in, text-out completion.
	ServiceTextText ServiceType = "text_text"

	// ServiceImageText is image-in, text-out analysis.
	ServiceImageText ServiceType = "image_text"

	// ServiceTextImage is text-in, image-out generation.
	ServiceTextImage ServiceType = "text_image"

	// ServiceImageImage is image-in, image-out transformation.
	ServiceImageImage ServiceType = "image_image"
)

// IsValid checks if a service type string is a known service type.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTextText, ServiceImageText, ServiceTextImage, ServiceImageImage:
		return true
	}
	return false
}

// String returns the string representation of the service type.
func (s ServiceType) String() string {
	return string(s)
}

// ParseServiceType converts a string to a ServiceType, returning empty for
// invalid values.
func ParseServiceType(s string) ServiceType {
	st := ServiceType(s)
	if st.IsValid() {
		return st
	}
	return ""
}
