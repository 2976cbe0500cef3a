package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const jobStatusTable = "pipeline_job_statuses"

// Job lifecycle states.
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// JobStatus tracks one asynchronous pipeline job in the store so callers can
// poll progress after a 202 response.
type JobStatus struct {
	JobID         string          `json:"job_id"`
	JobType       string          `json:"job_type"`
	Status        string          `json:"status"`
	InputPayload  json.RawMessage `json:"input_payload,omitempty"`
	OutputDetails json.RawMessage `json:"output_details,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitempty"`
}

// CreateJobRecord inserts a PENDING job row and returns its generated id.
func (c *Client) CreateJobRecord(ctx context.Context, jobType string, inputPayload interface{}) (string, error) {
	jobID := uuid.NewString()

	payloadBytes, err := json.Marshal(inputPayload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	record := JobStatus{
		JobID:        jobID,
		JobType:      jobType,
		Status:       JobStatusPending,
		InputPayload: payloadBytes,
	}

	_, _, err = c.db.From(jobStatusTable).
		Insert(record, false, "", "minimal", "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("insert job record: %w", err)
	}

	c.log.WithField("job_id", jobID).WithField("job_type", jobType).Info("Created job record")
	return jobID, nil
}

// UpdateJobStatus advances a job's state, optionally attaching output details
// or an error message.
func (c *Client) UpdateJobStatus(ctx context.Context, jobID, status string, outputDetails interface{}, errorMessage string) error {
	update := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if outputDetails != nil {
		detailBytes, err := json.Marshal(outputDetails)
		if err != nil {
			return fmt.Errorf("marshal job output details: %w", err)
		}
		update["output_details"] = json.RawMessage(detailBytes)
	}
	if errorMessage != "" {
		update["error_message"] = errorMessage
	}

	_, _, err := c.db.From(jobStatusTable).
		Update(update, "minimal", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}

// GetJobStatus fetches one job row by id.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var jobs []JobStatus
	_, err := c.db.From(jobStatusTable).
		Select("*", "", false).
		Eq("job_id", jobID).
		ExecuteTo(&jobs)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return &jobs[0], nil
}
