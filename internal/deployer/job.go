package deployer

import (
	"context"
	"fmt"
	"time"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

// JobDeployer deploys resources of the jobs service. The properties of a job
// resource are the job settings, sent as-is.
type JobDeployer struct {
	jobs JobService
}

// NewJobDeployer returns a deployer backed by the given job API.
func NewJobDeployer(jobs JobService) *JobDeployer {
	return &JobDeployer{jobs: jobs}
}

// Deploy resets the job recorded in prior, or finds or creates one by name
// when there is no prior record. The returned output is a fresh read of the
// job after the write.
func (d *JobDeployer) Deploy(ctx context.Context, properties map[string]any, prior *ir.PhysicalID, _ Options) (*ir.PhysicalID, map[string]any, error) {
	name, ok := properties["name"].(string)
	if !ok || name == "" {
		return nil, nil, stackerr.NewConfigurationError("properties.name", "please supply 'name' in job resource properties", nil)
	}

	var jobID int64
	if prior != nil && prior.JobID != 0 {
		jobID = prior.JobID
		if err := d.jobs.ResetJob(ctx, jobID, properties); err != nil {
			return nil, nil, fmt.Errorf("failed to update job %d: %w", jobID, err)
		}
	} else {
		id, err := d.putJob(ctx, name, properties)
		if err != nil {
			return nil, nil, err
		}
		jobID = id
	}
	logging.Info("job deployed", "name", name, "job_id", jobID)

	output, err := d.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read job %d: %w", jobID, err)
	}

	return &ir.PhysicalID{JobID: jobID}, output, nil
}

// putJob creates a job, unless exactly one job with the same name already
// exists, in which case that job is overwritten and adopted.
func (d *JobDeployer) putJob(ctx context.Context, name string, settings map[string]any) (int64, error) {
	existing, err := d.jobs.ListJobsByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs named %q: %w", name, err)
	}

	switch len(existing) {
	case 0:
		id, err := d.jobs.CreateJob(ctx, settings)
		if err != nil {
			return 0, fmt.Errorf("failed to create job %q: %w", name, err)
		}
		return id, nil
	case 1:
		job := existing[0]
		logging.Warn("job exists with same name and will be overwritten",
			"name", name,
			"job_id", job.JobID,
			"creator", job.CreatorUserName,
			"created", time.UnixMilli(job.CreatedTime).UTC().Format(time.DateTime),
		)
		if err := d.jobs.ResetJob(ctx, job.JobID, settings); err != nil {
			return 0, fmt.Errorf("failed to update job %d: %w", job.JobID, err)
		}
		return job.JobID, nil
	default:
		return 0, &stackerr.AmbiguousResourceError{Service: "jobs", Name: name, Matches: len(existing)}
	}
}
