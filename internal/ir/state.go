package ir

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// StackStatus represents the persisted record of the last successful deploy.
// It carries the config it was produced from plus the deployed resources.
type StackStatus struct {
	Name       string                `json:"name" validate:"required"`
	Resources  []*ResourceDescriptor `json:"resources" validate:"required"`
	Deployed   []*ResourceStatus     `json:"deployed" validate:"required,dive,required"`
	CLIVersion string                `json:"cli_version"`
}

// IsEmpty reports whether the status holds no prior deployment at all.
func (s *StackStatus) IsEmpty() bool {
	return s == nil || (s.Name == "" && s.Resources == nil && s.Deployed == nil && s.CLIVersion == "")
}

// ResourceStatus records how one resource maps to its remote object.
type ResourceStatus struct {
	ID           string         `json:"id" validate:"required"`
	Service      Service        `json:"service" validate:"required"`
	PhysicalID   *PhysicalID    `json:"physical_id" validate:"required"`
	DeployOutput map[string]any `json:"deploy_output"` // Remote snapshot, informational
	Timestamp    int64          `json:"timestamp"`     // Milliseconds since epoch
}

// Key returns the composite key of the recorded resource.
func (r *ResourceStatus) Key() Key {
	return Key{ID: r.ID, Service: r.Service}
}

// PhysicalID is the remote identity of a deployed resource. Which field is
// set depends on the service.
type PhysicalID struct {
	JobID int64  `json:"job_id,omitempty"`
	Path  string `json:"path,omitempty"`
}

// NewStackStatus builds a status document from a deep copy of cfg, so later
// changes to cfg never leak into the recorded status.
func NewStackStatus(cfg *StackConfig, deployed []*ResourceStatus, cliVersion string) (*StackStatus, error) {
	copied, err := copystructure.Copy(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to copy stack config: %w", err)
	}
	c := copied.(*StackConfig)

	resources := c.Resources
	if resources == nil {
		resources = []*ResourceDescriptor{}
	}
	if deployed == nil {
		deployed = []*ResourceStatus{}
	}

	return &StackStatus{
		Name:       c.Name,
		Resources:  resources,
		Deployed:   deployed,
		CLIVersion: cliVersion,
	}, nil
}

// StatusIndex maps each recorded resource to its composite key. Later
// entries win when a key repeats.
func StatusIndex(st *StackStatus) map[Key]*ResourceStatus {
	index := make(map[Key]*ResourceStatus)
	if st == nil {
		return index
	}
	for _, res := range st.Deployed {
		index[res.Key()] = res
	}
	return index
}
