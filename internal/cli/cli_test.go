package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/remote"
	"github.com/picklr-io/stackctl/internal/state"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	hostFlag, tokenFlag, logLevel, logJSON, noColorFlag = "", "", "info", false, false
	deployOverwrite, planJSON, statusJSON, statusShowService = false, false, false, ""
	backendType = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestColorize(t *testing.T) {
	noColor = false
	assert.Equal(t, "\033[31m", colorize("\033[31m"))

	noColor = true
	assert.Equal(t, "", colorize("\033[31m"))
}

func TestFormatPhysicalID(t *testing.T) {
	tests := []struct {
		id       *ir.PhysicalID
		expected string
	}{
		{nil, "-"},
		{&ir.PhysicalID{}, "-"},
		{&ir.PhysicalID{JobID: 42}, "job_id=42"},
		{&ir.PhysicalID{Path: "/Shared/etl"}, "path=/Shared/etl"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatPhysicalID(tt.id))
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()

	_, err := resolveConfigPath([]string{dir})
	assert.ErrorContains(t, err, "no config file found")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stack.yaml"), []byte("name: x\n"), 0o644))
	path, err := resolveConfigPath([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stack.yaml"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stack.json"), []byte("{}"), 0o644))
	path, err = resolveConfigPath([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stack.json"), path)

	explicit := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(explicit, []byte("{}"), 0o644))
	path, err = resolveConfigPath([]string{explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, path)

	_, err = resolveConfigPath([]string{filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stackctl version")
}

func TestInitValidatePlan(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nightly")

	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, filepath.Join(dir, "stack.json"))
	assert.FileExists(t, filepath.Join(dir, "notebooks", "main.py"))

	out, err = execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `Stack "nightly" is valid (2 resources)`)

	out, err = execute(t, "plan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "jobs.main-job will be created")
	assert.Contains(t, out, "workspace.main-notebook will be created")
	assert.Contains(t, out, "Create:   2")

	out, err = execute(t, "plan", "--json", dir)
	require.NoError(t, err)
	var plan ir.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Summary.Create)
}

func TestValidateReportsMissingField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "x", "resources": [{"service": "jobs", "properties": {}}]}`), 0o644))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, err.Error(), "resources[0].id")
}

func TestDeployRequiresHost(t *testing.T) {
	t.Setenv(remote.EnvOverrideHost, "")
	dir := filepath.Join(t.TempDir(), "stack")
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	_, err = execute(t, "deploy", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), remote.EnvOverrideHost)
}

// fakePlatform serves just enough of the jobs and workspace APIs for one
// job and one notebook.
func fakePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	objects := map[string]string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.1/jobs/list", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"jobs": [], "has_more": false}`)
	})
	mux.HandleFunc("/api/2.1/jobs/create", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"job_id": 5}`)
	})
	mux.HandleFunc("/api/2.1/jobs/reset", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/api/2.1/jobs/get", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"job_id": 5, "settings": {"name": "stack-main"}}`)
	})
	mux.HandleFunc("/api/2.0/workspace/mkdirs", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/api/2.0/workspace/import", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		objects[body.Path] = "NOTEBOOK"
		io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/api/2.0/workspace/get-status", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if _, ok := objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "not found"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"path": path, "object_type": "NOTEBOOK", "object_id": 9})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDeployAndStatus(t *testing.T) {
	srv := fakePlatform(t)
	dir := filepath.Join(t.TempDir(), "stack")
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	out, err := execute(t, "deploy", "--host", srv.URL, "--token", "secret", "--overwrite", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "jobs.main-job: done [job_id=5]")
	assert.Contains(t, out, "workspace.main-notebook: done [path=/Shared/stack/main]")
	assert.Contains(t, out, "2 resource(s) deployed")

	st, err := state.NewManager(filepath.Join(dir, "stack.deployed.json")).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Deployed, 2)
	assert.Equal(t, int64(5), st.Deployed[0].PhysicalID.JobID)

	out, err = execute(t, "status", "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "main-job")
	assert.Contains(t, out, "job_id=5")
	assert.Contains(t, out, "path=/Shared/stack/main")

	out, err = execute(t, "status", "show", "main-notebook", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "# workspace.main-notebook")
	assert.Contains(t, out, `"object_id": 9`)

	_, err = execute(t, "status", "show", "nope", dir)
	assert.ErrorContains(t, err, "not found")

	out, err = execute(t, "plan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No changes")
}

func TestStatusListBeforeDeploy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stack")
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	out, err := execute(t, "status", "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "has not been deployed yet")
}
