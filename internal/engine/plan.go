package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/state"
	"github.com/picklr-io/stackctl/internal/validation"
)

// Plan loads the config at configPath and previews it against the stored
// status. Nothing is sent to the remote service.
func (e *Engine) Plan(ctx context.Context, configPath string, backendCfg *state.BackendConfig) (*ir.Plan, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg, err := e.evaluator.LoadConfig(ctx, absPath)
	if err != nil {
		return nil, err
	}

	prior, err := e.ReadStatus(ctx, absPath, backendCfg)
	if err != nil {
		return nil, err
	}
	return e.Preview(cfg, prior)
}

// Preview compares cfg with the prior status. Each resource is CREATE when
// it has never been deployed, UPDATE when its properties changed since the
// last deploy and NOOP otherwise. Recorded resources missing from cfg are
// reported as ORPHANED; deploy leaves them in place.
func (e *Engine) Preview(cfg *ir.StackConfig, prior *ir.StackStatus) (*ir.Plan, error) {
	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	index := map[ir.Key]*ir.ResourceStatus{}
	recorded := map[ir.Key]*ir.ResourceDescriptor{}
	if !prior.IsEmpty() {
		if err := validation.ValidateStatus(prior); err != nil {
			return nil, err
		}
		index = ir.StatusIndex(prior)
		for _, res := range prior.Resources {
			if res != nil {
				recorded[res.Key()] = res
			}
		}
	}

	logging.Debug("creating plan", "resources", len(cfg.Resources), "prior", len(index))
	plan := &ir.Plan{
		StackName: cfg.Name,
		Changes:   []*ir.ResourceChange{},
		Summary:   &ir.PlanSummary{},
	}

	desired := make(map[ir.Key]bool, len(cfg.Resources))
	for _, res := range cfg.Resources {
		if _, err := e.registry.Get(res.Service); err != nil {
			return nil, err
		}

		key := res.Key()
		desired[key] = true
		change := &ir.ResourceChange{Key: key, ID: res.ID, Service: res.Service}

		status, deployed := index[key]
		switch {
		case !deployed:
			change.Action = ir.ActionCreate
			change.Diff = buildCreateDiff(res.Properties)
			plan.Summary.Create++
		default:
			change.PriorPhysicalID = status.PhysicalID
			var before map[string]any
			if prev, ok := recorded[key]; ok {
				before = prev.Properties
			}
			change.Diff = buildPropertyDiff(before, res.Properties)
			if len(change.Diff) == 0 {
				change.Action = ir.ActionNoOp
				plan.Summary.NoOp++
			} else {
				change.Action = ir.ActionUpdate
				plan.Summary.Update++
			}
		}
		plan.Changes = append(plan.Changes, change)
	}

	if prior != nil {
		for _, res := range prior.Deployed {
			key := res.Key()
			if desired[key] {
				continue
			}
			desired[key] = true
			plan.Changes = append(plan.Changes, &ir.ResourceChange{
				Key:             key,
				ID:              res.ID,
				Service:         res.Service,
				Action:          ir.ActionOrphaned,
				PriorPhysicalID: res.PhysicalID,
			})
			plan.Summary.Orphaned++
		}
	}

	return plan, nil
}

// buildPropertyDiff compares prior and desired properties and returns a diff map.
func buildPropertyDiff(prior, desired map[string]any) map[string]*ir.PropertyDiff {
	diff := make(map[string]*ir.PropertyDiff)

	for k, priorVal := range prior {
		desiredVal, inDesired := desired[k]
		switch {
		case !inDesired:
			diff[k] = &ir.PropertyDiff{Before: priorVal, Action: "delete"}
		case !reflect.DeepEqual(priorVal, desiredVal):
			diff[k] = &ir.PropertyDiff{Before: priorVal, After: desiredVal, Action: "update"}
		}
	}
	for k, desiredVal := range desired {
		if _, inPrior := prior[k]; !inPrior {
			diff[k] = &ir.PropertyDiff{After: desiredVal, Action: "create"}
		}
	}

	return diff
}

func buildCreateDiff(props map[string]any) map[string]*ir.PropertyDiff {
	diff := make(map[string]*ir.PropertyDiff)
	for k, v := range props {
		diff[k] = &ir.PropertyDiff{After: v, Action: "create"}
	}
	return diff
}
