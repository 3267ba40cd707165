package deployer

import (
	"context"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/remote"
)

// Options are the per-run settings passed to every deployer.
type Options struct {
	// Overwrite allows workspace imports to replace existing objects.
	Overwrite bool
	// BaseDir is the directory relative paths in properties resolve against,
	// normally the directory holding the stack config.
	BaseDir string
}

// Deployer creates or updates one kind of remote resource. prior is nil on
// the first deployment of a resource.
type Deployer interface {
	Deploy(ctx context.Context, properties map[string]any, prior *ir.PhysicalID, opts Options) (*ir.PhysicalID, map[string]any, error)
}

// JobService is the remote job API the job deployer consumes.
type JobService interface {
	CreateJob(ctx context.Context, settings map[string]any) (int64, error)
	ResetJob(ctx context.Context, jobID int64, settings map[string]any) error
	GetJob(ctx context.Context, jobID int64) (map[string]any, error)
	ListJobsByName(ctx context.Context, name string) ([]remote.JobSummary, error)
}

// WorkspaceService is the remote workspace API the workspace deployer
// consumes.
type WorkspaceService interface {
	Mkdirs(ctx context.Context, path string) error
	ImportFile(ctx context.Context, localPath, remotePath string, language remote.Language, format remote.Format, overwrite bool) error
	ImportDirectory(ctx context.Context, localPath, remotePath string, overwrite, excludeHidden bool) error
	GetStatus(ctx context.Context, path string) (map[string]any, error)
}

var (
	_ JobService       = (*remote.Client)(nil)
	_ WorkspaceService = (*remote.Client)(nil)
)
