package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/state"
)

const stackJSON = `{
  "name": "etl-stack",
  "resources": [
    {"id": "etl-job", "service": "jobs", "properties": {"name": "etl", "max_retries": 3}},
    {"id": "etl-notebook", "service": "workspace", "properties": {"source_path": "notebooks/etl.py", "path": "/Shared/etl", "object_type": "NOTEBOOK"}},
    {"id": "report-job", "service": "jobs", "properties": {"name": "report"}}
  ]
}`

func writeStack(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "stack.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDeploy_WritesStatusNextToConfig(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)

	st, err := eng.Deploy(context.Background(), configPath, DeployOptions{})
	require.NoError(t, err)
	require.Len(t, st.Deployed, 3)

	statusPath := filepath.Join(filepath.Dir(configPath), "stack.deployed.json")
	saved, err := state.NewManager(statusPath).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "etl-stack", saved.Name)
	assert.Equal(t, int64(101), saved.Deployed[0].PhysicalID.JobID)
	assert.Equal(t, "/Shared/etl", saved.Deployed[1].PhysicalID.Path)

	_, err = os.Stat(statusPath + ".lock")
	assert.True(t, errors.Is(err, os.ErrNotExist), "lock must be released")
}

func TestDeploy_RedeployIsStable(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)
	statusPath := state.StatusPathFor(configPath)

	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{Overwrite: true})
	require.NoError(t, err)
	first, err := os.ReadFile(statusPath)
	require.NoError(t, err)

	_, err = eng.Deploy(context.Background(), configPath, DeployOptions{Overwrite: true})
	require.NoError(t, err)
	second, err := os.ReadFile(statusPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 2, eng.jobs.Count("create"))
	assert.Equal(t, 2, eng.jobs.Count("reset"))
}

func TestDeploy_FailureKeepsPreviousStatus(t *testing.T) {
	eng := newTestEngine(t)
	dir := stackFiles(t)
	configPath := writeStack(t, dir, stackJSON)
	statusPath := state.StatusPathFor(configPath)

	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{Overwrite: true})
	require.NoError(t, err)
	before, err := os.ReadFile(statusPath)
	require.NoError(t, err)

	// Change every resource, then fail on the second one.
	changed := `{
  "name": "etl-stack",
  "resources": [
    {"id": "etl-job", "service": "jobs", "properties": {"name": "etl", "max_retries": 5}},
    {"id": "etl-notebook", "service": "workspace", "properties": {"source_path": "notebooks/etl.py", "path": "/Shared/etl", "object_type": "NOTEBOOK"}},
    {"id": "new-job", "service": "jobs", "properties": {"name": "new"}}
  ]
}`
	writeStack(t, dir, changed)
	eng.ws.ImportErr["/Shared/etl"] = errors.New("quota exceeded")

	_, err = eng.Deploy(context.Background(), configPath, DeployOptions{Overwrite: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	after, err := os.ReadFile(statusPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Zero(t, eng.jobs.Count("list new"))

	_, err = os.Stat(statusPath + ".lock")
	assert.True(t, errors.Is(err, os.ErrNotExist), "lock must be released after a failure")
}

func TestDeploy_FirstRunFailureWritesNothing(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)
	eng.ws.ImportErr["/Shared/etl"] = errors.New("quota exceeded")

	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{})
	require.Error(t, err)

	_, err = os.Stat(state.StatusPathFor(configPath))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDeploy_LockedStack(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)

	m := state.NewManager(state.StatusPathFor(configPath))
	require.NoError(t, m.Lock(context.Background()))
	defer m.Unlock(context.Background())

	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock stack status")
	assert.Empty(t, eng.jobs.Calls)
}

func TestDeploy_CustomLocalBackendPath(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)
	statusPath := filepath.Join(t.TempDir(), "status", "etl.json")

	backend := &state.BackendConfig{Type: "local", Config: map[string]string{"path": statusPath}}
	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{Backend: backend})
	require.NoError(t, err)

	assert.FileExists(t, statusPath)
	assert.NoFileExists(t, state.StatusPathFor(configPath))

	st, err := eng.ReadStatus(context.Background(), configPath, backend)
	require.NoError(t, err)
	assert.Len(t, st.Deployed, 3)
}

func TestDeploy_Callback(t *testing.T) {
	eng := newTestEngine(t)
	configPath := writeStack(t, stackFiles(t), stackJSON)

	var completed []ir.Key
	_, err := eng.Deploy(context.Background(), configPath, DeployOptions{Callback: func(ev DeployEvent) {
		if ev.Status == EventCompleted {
			completed = append(completed, ev.Key)
		}
	}})
	require.NoError(t, err)
	assert.Equal(t, []ir.Key{
		{ID: "etl-job", Service: ir.ServiceJobs},
		{ID: "etl-notebook", Service: ir.ServiceWorkspace},
		{ID: "report-job", Service: ir.ServiceJobs},
	}, completed)
}

func TestDeploy_MissingConfig(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Deploy(context.Background(), filepath.Join(t.TempDir(), "stack.json"), DeployOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
