package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/picklr-io/stackctl/internal/deployer"
	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/validation"
)

const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// DeployEvent represents a progress event during a deploy.
type DeployEvent struct {
	Key        ir.Key
	Status     string // "started", "completed", "failed"
	Duration   time.Duration
	PhysicalID *ir.PhysicalID
	Error      error
}

// DeployCallback is called for each deploy event if set.
type DeployCallback func(event DeployEvent)

// Reconcile deploys every resource in cfg and returns the resulting status.
func (e *Engine) Reconcile(ctx context.Context, cfg *ir.StackConfig, prior *ir.StackStatus, opts deployer.Options) (*ir.StackStatus, error) {
	return e.ReconcileWithCallback(ctx, cfg, prior, opts, nil)
}

// ReconcileWithCallback deploys resources one at a time in document order,
// pairing each with its prior status by composite key. The first failure
// stops the run and no status is returned.
func (e *Engine) ReconcileWithCallback(ctx context.Context, cfg *ir.StackConfig, prior *ir.StackStatus, opts deployer.Options, callback DeployCallback) (*ir.StackStatus, error) {
	emit := func(event DeployEvent) {
		if callback != nil {
			callback(event)
		}
	}

	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	index := map[ir.Key]*ir.ResourceStatus{}
	if !prior.IsEmpty() {
		if err := validation.ValidateStatus(prior); err != nil {
			return nil, err
		}
		index = ir.StatusIndex(prior)
	}

	logging.Debug("reconciling stack", "stack", cfg.Name, "resources", len(cfg.Resources), "prior", len(index))

	deployed := make([]*ir.ResourceStatus, 0, len(cfg.Resources))
	for _, res := range cfg.Resources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("deploy cancelled: %w", err)
		}

		key := res.Key()
		start := e.clock.Now()
		emit(DeployEvent{Key: key, Status: EventStarted})

		status, err := e.deployResource(ctx, res, index[key], opts)
		if err != nil {
			emit(DeployEvent{Key: key, Status: EventFailed, Duration: e.clock.Since(start), Error: err})
			return nil, err
		}

		emit(DeployEvent{Key: key, Status: EventCompleted, Duration: e.clock.Since(start), PhysicalID: status.PhysicalID})
		deployed = append(deployed, status)
	}

	st, err := ir.NewStackStatus(cfg, deployed, e.cliVersion)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateStatus(st); err != nil {
		return nil, fmt.Errorf("failed to build stack status: %w", err)
	}
	return st, nil
}

func (e *Engine) deployResource(ctx context.Context, res *ir.ResourceDescriptor, prior *ir.ResourceStatus, opts deployer.Options) (*ir.ResourceStatus, error) {
	d, err := e.registry.Get(res.Service)
	if err != nil {
		return nil, err
	}

	var priorID *ir.PhysicalID
	if prior != nil {
		priorID = prior.PhysicalID
	}
	log := logging.With("id", res.ID, "service", res.Service)
	log.Info("deploying resource", "first_deploy", priorID == nil)

	physicalID, output, err := d.Deploy(ctx, res.Properties, priorID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", res.Key(), err)
	}
	log.Debug("resource deployed", "physical_id", physicalID)

	return &ir.ResourceStatus{
		ID:           res.ID,
		Service:      res.Service,
		PhysicalID:   physicalID,
		DeployOutput: output,
		Timestamp:    e.clock.Now().UnixMilli(),
	}, nil
}
