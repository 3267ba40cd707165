// Package deployertest provides in-memory job and workspace services for
// tests of the deployers and the engine.
package deployertest

import (
	"context"
	"fmt"
	"sort"

	"github.com/picklr-io/stackctl/internal/remote"
)

// Jobs is an in-memory job service. Every call is appended to Calls.
type Jobs struct {
	NextID   int64
	Jobs     map[int64]map[string]any
	Creators map[int64]string
	Calls    []string

	// ListErr, when set, is returned by ListJobsByName.
	ListErr error
}

// NewJobs returns an empty job service whose first created job gets id 101.
func NewJobs() *Jobs {
	return &Jobs{
		NextID:   100,
		Jobs:     map[int64]map[string]any{},
		Creators: map[int64]string{},
	}
}

// Seed adds a job created out of band.
func (f *Jobs) Seed(id int64, name string) {
	f.Jobs[id] = map[string]any{"name": name}
	f.Creators[id] = "someone@example.com"
}

// Count returns how many calls start with prefix, e.g. "create".
func (f *Jobs) Count(prefix string) int {
	return countPrefix(f.Calls, prefix)
}

func (f *Jobs) CreateJob(_ context.Context, settings map[string]any) (int64, error) {
	f.Calls = append(f.Calls, "create")
	f.NextID++
	f.Jobs[f.NextID] = settings
	return f.NextID, nil
}

func (f *Jobs) ResetJob(_ context.Context, jobID int64, settings map[string]any) error {
	f.Calls = append(f.Calls, fmt.Sprintf("reset %d", jobID))
	if _, ok := f.Jobs[jobID]; !ok {
		return fmt.Errorf("job %d does not exist", jobID)
	}
	f.Jobs[jobID] = settings
	return nil
}

func (f *Jobs) GetJob(_ context.Context, jobID int64) (map[string]any, error) {
	f.Calls = append(f.Calls, fmt.Sprintf("get %d", jobID))
	settings, ok := f.Jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %d does not exist", jobID)
	}
	return map[string]any{"job_id": jobID, "settings": settings}, nil
}

func (f *Jobs) ListJobsByName(_ context.Context, name string) ([]remote.JobSummary, error) {
	f.Calls = append(f.Calls, "list "+name)
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var out []remote.JobSummary
	for id, settings := range f.Jobs {
		if settings["name"] != name {
			continue
		}
		out = append(out, remote.JobSummary{JobID: id, Name: name, CreatorUserName: f.Creators[id], CreatedTime: 1700000000000})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out, nil
}

// Workspace records workspace calls and serves status for imported paths.
type Workspace struct {
	Calls   []string
	Objects map[string]string

	// ImportErr maps a remote path to the error importing it returns.
	ImportErr map[string]error
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{Objects: map[string]string{}, ImportErr: map[string]error{}}
}

// Count returns how many calls start with prefix, e.g. "import".
func (f *Workspace) Count(prefix string) int {
	return countPrefix(f.Calls, prefix)
}

func (f *Workspace) Mkdirs(_ context.Context, path string) error {
	f.Calls = append(f.Calls, "mkdirs "+path)
	f.Objects[path] = "DIRECTORY"
	return nil
}

func (f *Workspace) ImportFile(_ context.Context, _, remotePath string, language remote.Language, format remote.Format, overwrite bool) error {
	f.Calls = append(f.Calls, fmt.Sprintf("import %s %s %s overwrite=%t", remotePath, language, format, overwrite))
	if err := f.ImportErr[remotePath]; err != nil {
		return err
	}
	if _, exists := f.Objects[remotePath]; exists && !overwrite {
		return fmt.Errorf("%s already exists", remotePath)
	}
	f.Objects[remotePath] = "NOTEBOOK"
	return nil
}

func (f *Workspace) ImportDirectory(_ context.Context, _, remotePath string, overwrite, excludeHidden bool) error {
	f.Calls = append(f.Calls, fmt.Sprintf("import-dir %s overwrite=%t exclude-hidden=%t", remotePath, overwrite, excludeHidden))
	if err := f.ImportErr[remotePath]; err != nil {
		return err
	}
	f.Objects[remotePath] = "DIRECTORY"
	return nil
}

func (f *Workspace) GetStatus(_ context.Context, path string) (map[string]any, error) {
	f.Calls = append(f.Calls, "status "+path)
	objectType, ok := f.Objects[path]
	if !ok {
		return nil, fmt.Errorf("%s does not exist", path)
	}
	return map[string]any{"path": path, "object_type": objectType}, nil
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
