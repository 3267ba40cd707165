package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picklr-io/stackctl/internal/deployer"
	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

func actions(plan *ir.Plan) map[string]string {
	out := map[string]string{}
	for _, c := range plan.Changes {
		out[c.Key.String()] = c.Action
	}
	return out
}

func TestPreview_NeverDeployed(t *testing.T) {
	eng := newTestEngine(t)

	plan, err := eng.Preview(testConfig(), &ir.StackStatus{})
	require.NoError(t, err)

	assert.Equal(t, "etl-stack", plan.StackName)
	assert.Equal(t, &ir.PlanSummary{Create: 3}, plan.Summary)
	assert.Equal(t, "create", plan.Changes[0].Diff["name"].Action)
	assert.Equal(t, "etl", plan.Changes[0].Diff["name"].After)
	assert.Empty(t, eng.jobs.Calls)
	assert.Empty(t, eng.ws.Calls)
}

func TestPreview_AfterDeploy(t *testing.T) {
	eng := newTestEngine(t)
	prior, err := eng.Reconcile(context.Background(), testConfig(), &ir.StackStatus{}, deployer.Options{BaseDir: stackFiles(t)})
	require.NoError(t, err)
	eng.jobs.Calls = nil

	cfg := testConfig()
	cfg.Resources[0].Properties["max_retries"] = json.Number("2")
	cfg.Resources = append(cfg.Resources[:2], &ir.ResourceDescriptor{
		ID: "cleanup-job", Service: ir.ServiceJobs, Properties: map[string]any{"name": "cleanup"},
	})

	plan, err := eng.Preview(cfg, prior)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"jobs.etl-job":           ir.ActionUpdate,
		"workspace.etl-notebook": ir.ActionNoOp,
		"jobs.cleanup-job":       ir.ActionCreate,
		"jobs.report-job":        ir.ActionOrphaned,
	}, actions(plan))
	assert.Equal(t, &ir.PlanSummary{Create: 1, Update: 1, NoOp: 1, Orphaned: 1}, plan.Summary)

	update := plan.Changes[0]
	assert.Equal(t, &ir.PhysicalID{JobID: 101}, update.PriorPhysicalID)
	assert.Equal(t, map[string]*ir.PropertyDiff{
		"max_retries": {After: json.Number("2"), Action: "create"},
	}, update.Diff)

	orphan := plan.Changes[3]
	assert.Equal(t, "report-job", orphan.ID)
	assert.Equal(t, &ir.PhysicalID{JobID: 102}, orphan.PriorPhysicalID)
	assert.Empty(t, eng.jobs.Calls)
}

func TestPreview_UnsupportedService(t *testing.T) {
	eng := newTestEngine(t)
	cfg := testConfig()
	cfg.Resources[2].Service = "pipelines"

	_, err := eng.Preview(cfg, &ir.StackStatus{})
	var unsupported *stackerr.UnsupportedServiceError
	assert.True(t, errors.As(err, &unsupported), "got %v", err)
}

func TestBuildPropertyDiff(t *testing.T) {
	prior := map[string]any{"name": "etl", "max_retries": json.Number("3"), "tags": map[string]any{"team": "data"}}
	desired := map[string]any{"name": "etl", "timeout_seconds": json.Number("60"), "tags": map[string]any{"team": "ml"}}

	diff := buildPropertyDiff(prior, desired)

	assert.Equal(t, map[string]*ir.PropertyDiff{
		"max_retries":     {Before: json.Number("3"), Action: "delete"},
		"timeout_seconds": {After: json.Number("60"), Action: "create"},
		"tags":            {Before: map[string]any{"team": "data"}, After: map[string]any{"team": "ml"}, Action: "update"},
	}, diff)
	assert.Empty(t, buildPropertyDiff(prior, prior))
}

func TestPlan_FromConfigFile(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)

	plan, err := eng.Plan(context.Background(), configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Summary.Create)

	_, err = eng.Deploy(context.Background(), configPath, DeployOptions{})
	require.NoError(t, err)

	plan, err = eng.Plan(context.Background(), configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, &ir.PlanSummary{NoOp: 3}, plan.Summary)
}
