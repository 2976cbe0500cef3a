package jobs

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"presentersplit/internal/store"
)

// PublishOutputJob uploads a rendered presenter cut to the external video
// host. It is a pure sink: nothing here feeds back into the pipeline.
type PublishOutputJob struct {
	JobID       string
	OutputID    uuid.UUID
	Title       string
	Description string
	Env         *Env
}

// ID returns the job's status-row id.
func (j *PublishOutputJob) ID() string { return j.JobID }

// Type returns the persisted job type name.
func (j *PublishOutputJob) Type() string { return TypePublishOutput }

// Execute downloads the rendered artifact and hands it to the uploader.
func (j *PublishOutputJob) Execute(ctx context.Context) error {
	env := j.Env
	if err := env.Store.UpdateJobStatus(ctx, j.JobID, store.JobStatusProcessing, nil, ""); err != nil {
		return err
	}

	output, err := env.Store.GetOutput(ctx, j.OutputID)
	if err != nil {
		return env.fail(ctx, j.JobID, err)
	}
	if j.Title != "" {
		output.Title = j.Title
	}
	if j.Description != "" {
		output.Description = j.Description
	}

	media, err := env.Objects.Download(ctx, output.S3Location)
	if err != nil {
		return env.fail(ctx, j.JobID, fmt.Errorf("fetch rendered output: %w", err))
	}

	videoID, err := env.Uploader.Upload(ctx, *output, bytes.NewReader(media))
	if err != nil {
		return env.fail(ctx, j.JobID, fmt.Errorf("upload output %s: %w", j.OutputID, err))
	}

	return env.Store.UpdateJobStatus(ctx, j.JobID, store.JobStatusCompleted,
		map[string]interface{}{"video_id": videoID}, "")
}
