// Package jobs defines the asynchronous pipeline stages executed by the
// worker pool. Each job owns its status row in the store: callers get a job
// id back immediately and poll for completion.
package jobs

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"presentersplit/internal/classifier"
	"presentersplit/internal/detector"
	"presentersplit/internal/store"
	"presentersplit/models"
)

// Job type names persisted on status rows.
const (
	TypeDetectBoundaries = "DETECT_BOUNDARIES"
	TypeClassifySegments = "CLASSIFY_SEGMENTS"
	TypePublishOutput    = "PUBLISH_OUTPUT"
)

// Uploader pushes a finished artifact to the external hosting service.
type Uploader interface {
	Upload(ctx context.Context, output models.Output, media io.Reader) (string, error)
}

// Env bundles the collaborators every job draws on. One Env is built at
// startup and shared; jobs hold no other state between runs.
type Env struct {
	Store      *store.Client
	Objects    *store.ObjectStore
	Detector   *detector.Detector
	Classifier *classifier.Classifier
	Uploader   Uploader
	Log        *logrus.Logger
}

// fail marks the job row FAILED and returns the error for the worker log.
func (e *Env) fail(ctx context.Context, jobID string, err error) error {
	if uerr := e.Store.UpdateJobStatus(ctx, jobID, store.JobStatusFailed, nil, err.Error()); uerr != nil {
		e.Log.WithError(uerr).WithField("job_id", jobID).Error("Could not record job failure")
	}
	return err
}
