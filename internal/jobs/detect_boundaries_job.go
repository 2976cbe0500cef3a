package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"presentersplit/internal/store"
)

// DetectBoundariesJob runs the deterministic detection pass for one edit and
// persists the resulting segment batch. With ThenClassify set it continues
// straight into AI classification, mirroring the detect-then-analyze order
// of the surrounding workflow.
type DetectBoundariesJob struct {
	JobID        string
	EditID       uuid.UUID
	ThenClassify bool
	Env          *Env
}

// ID returns the job's status-row id.
func (j *DetectBoundariesJob) ID() string { return j.JobID }

// Type returns the persisted job type name.
func (j *DetectBoundariesJob) Type() string { return TypeDetectBoundaries }

// Execute downloads the transcript, detects segments and boundaries, writes
// the segment batch and optionally chains classification.
func (j *DetectBoundariesJob) Execute(ctx context.Context) error {
	env := j.Env
	if err := env.Store.UpdateJobStatus(ctx, j.JobID, store.JobStatusProcessing, nil, ""); err != nil {
		return err
	}

	edit, err := env.Store.GetEdit(ctx, j.EditID)
	if err != nil {
		return env.fail(ctx, j.JobID, err)
	}

	transcript, err := env.Objects.DownloadTranscript(ctx, j.EditID)
	if err != nil {
		return env.fail(ctx, j.JobID, fmt.Errorf("fetch transcript: %w", err))
	}

	result := env.Detector.Detect(j.EditID, edit.Owner, transcript)
	if err := env.Store.InsertSegments(ctx, result.Segments); err != nil {
		return env.fail(ctx, j.JobID, err)
	}

	details := map[string]interface{}{
		"segment_count":  len(result.Segments),
		"boundary_count": len(result.Boundaries),
		"speaker_map":    result.SpeakerMap,
	}

	if j.ThenClassify {
		classifyJob := &ClassifySegmentsJob{
			JobID:      j.JobID,
			EditID:     j.EditID,
			Segments:   result.Segments,
			Boundaries: result.Boundaries,
			Env:        env,
		}
		if err := classifyJob.run(ctx, edit, transcript); err != nil {
			return env.fail(ctx, j.JobID, err)
		}
	}

	return env.Store.UpdateJobStatus(ctx, j.JobID, store.JobStatusCompleted, details, "")
}
