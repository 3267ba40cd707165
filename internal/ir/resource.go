package ir

// Service names the kind of remote resource a descriptor manages.
type Service string

const (
	ServiceJobs      Service = "jobs"
	ServiceWorkspace Service = "workspace"
)

// Known reports whether s is one of the services the engine can deploy.
func (s Service) Known() bool {
	switch s {
	case ServiceJobs, ServiceWorkspace:
		return true
	default:
		return false
	}
}

// ResourceDescriptor represents a single desired resource.
type ResourceDescriptor struct {
	ID         string         `json:"id" validate:"required"`
	Service    Service        `json:"service" validate:"required"`
	Properties map[string]any `json:"properties" validate:"required"` // Service specific
}

// Key returns the composite key used to find this resource's prior status.
func (r *ResourceDescriptor) Key() Key {
	return Key{ID: r.ID, Service: r.Service}
}

// Key correlates a desired resource with its recorded status across runs.
// The same id under two services yields two distinct keys.
type Key struct {
	ID      string
	Service Service
}

func (k Key) String() string {
	return string(k.Service) + "." + k.ID
}
