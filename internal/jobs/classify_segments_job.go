package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"presentersplit/internal/classifier"
	"presentersplit/internal/store"
	"presentersplit/models"
)

// ClassifySegmentsJob asks the reasoning service to refine one edit's
// detected segments and upserts the result. The reasoning call is a single
// blocking round trip; any failure lands on the classifier's deterministic
// fallback, so this job only fails on store errors.
type ClassifySegmentsJob struct {
	JobID      string
	EditID     uuid.UUID
	Segments   []models.Segment
	Boundaries []models.Boundary
	Env        *Env
}

// ID returns the job's status-row id.
func (j *ClassifySegmentsJob) ID() string { return j.JobID }

// Type returns the persisted job type name.
func (j *ClassifySegmentsJob) Type() string { return TypeClassifySegments }

// Execute resolves the edit and transcript, then runs the classification
// pass.
func (j *ClassifySegmentsJob) Execute(ctx context.Context) error {
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

	if err := j.run(ctx, edit, transcript); err != nil {
		return env.fail(ctx, j.JobID, err)
	}

	return env.Store.UpdateJobStatus(ctx, j.JobID, store.JobStatusCompleted,
		map[string]interface{}{"segment_count": len(j.Segments)}, "")
}

// run performs the classification pass against an already-resolved edit and
// transcript, so the detection job can chain into it without refetching.
func (j *ClassifySegmentsJob) run(ctx context.Context, edit *models.Edit, transcript *models.Transcript) error {
	refined := j.Env.Classifier.Classify(ctx, classifier.Input{
		EditID:         j.EditID,
		Owner:          edit.Owner,
		ModelID:        edit.ModelID,
		TranscriptText: transcript.Text(),
		Segments:       j.Segments,
		Boundaries:     j.Boundaries,
	})

	if err := j.Env.Store.UpsertSegments(ctx, refined); err != nil {
		return fmt.Errorf("persist refined segments: %w", err)
	}
	j.Segments = refined
	return nil
}
