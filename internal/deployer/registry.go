package deployer

import (
	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

// Registry routes each resource service to its deployer.
type Registry struct {
	jobs      Deployer
	workspace Deployer
}

// NewRegistry wires the built-in deployers to the given services.
func NewRegistry(jobs JobService, workspace WorkspaceService) *Registry {
	return &Registry{
		jobs:      NewJobDeployer(jobs),
		workspace: NewWorkspaceDeployer(workspace),
	}
}

// NewRegistryWithDeployers builds a registry from explicit deployers.
func NewRegistryWithDeployers(jobs, workspace Deployer) *Registry {
	return &Registry{jobs: jobs, workspace: workspace}
}

// Get returns the deployer for a service.
func (r *Registry) Get(service ir.Service) (Deployer, error) {
	switch service {
	case ir.ServiceJobs:
		return r.jobs, nil
	case ir.ServiceWorkspace:
		return r.workspace, nil
	default:
		return nil, &stackerr.UnsupportedServiceError{Service: string(service)}
	}
}
