package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const listJobsPageSize = 25

// JobSummary is the subset of a listed job the deployers need to decide
// whether to adopt it.
type JobSummary struct {
	JobID           int64
	Name            string
	CreatorUserName string
	CreatedTime     int64 // Milliseconds since epoch
}

type createJobResponse struct {
	JobID int64 `json:"job_id"`
}

type resetJobRequest struct {
	JobID       int64          `json:"job_id"`
	NewSettings map[string]any `json:"new_settings"`
}

type listJobsResponse struct {
	Jobs []struct {
		JobID           int64  `json:"job_id"`
		CreatorUserName string `json:"creator_user_name"`
		CreatedTime     int64  `json:"created_time"`
		Settings        struct {
			Name string `json:"name"`
		} `json:"settings"`
	} `json:"jobs"`
	HasMore bool `json:"has_more"`
}

// CreateJob creates a job with the given settings and returns its id.
func (cli *Client) CreateJob(ctx context.Context, settings map[string]any) (int64, error) {
	resp, err := cli.post(ctx, "/api/2.1/jobs/create", nil, settings)
	defer ensureReaderClosed(resp)
	if err != nil {
		return 0, err
	}

	var out createJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode created job: %w", err)
	}
	return out.JobID, nil
}

// ResetJob overwrites all settings of an existing job.
func (cli *Client) ResetJob(ctx context.Context, jobID int64, settings map[string]any) error {
	resp, err := cli.post(ctx, "/api/2.1/jobs/reset", nil, resetJobRequest{JobID: jobID, NewSettings: settings})
	defer ensureReaderClosed(resp)
	return err
}

// GetJob returns the current remote representation of a job.
func (cli *Client) GetJob(ctx context.Context, jobID int64) (map[string]any, error) {
	query := url.Values{}
	query.Set("job_id", strconv.FormatInt(jobID, 10))

	resp, err := cli.get(ctx, "/api/2.1/jobs/get", query)
	defer ensureReaderClosed(resp)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListJobsByName returns every job whose name is exactly name, following
// pagination until the service reports no more pages.
func (cli *Client) ListJobsByName(ctx context.Context, name string) ([]JobSummary, error) {
	var matches []JobSummary

	for offset := 0; ; offset += listJobsPageSize {
		query := url.Values{}
		query.Set("name", name)
		query.Set("limit", strconv.Itoa(listJobsPageSize))
		query.Set("offset", strconv.Itoa(offset))

		page, err := cli.listJobsPage(ctx, query)
		if err != nil {
			return nil, err
		}

		for _, j := range page.Jobs {
			// The name filter is not guaranteed to be exact on every API version.
			if j.Settings.Name != name {
				continue
			}
			matches = append(matches, JobSummary{
				JobID:           j.JobID,
				Name:            j.Settings.Name,
				CreatorUserName: j.CreatorUserName,
				CreatedTime:     j.CreatedTime,
			})
		}

		if !page.HasMore || len(page.Jobs) == 0 {
			return matches, nil
		}
	}
}

func (cli *Client) listJobsPage(ctx context.Context, query url.Values) (*listJobsResponse, error) {
	resp, err := cli.get(ctx, "/api/2.1/jobs/list", query)
	defer ensureReaderClosed(resp)
	if err != nil {
		return nil, err
	}

	var page listJobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode job list: %w", err)
	}
	return &page, nil
}
