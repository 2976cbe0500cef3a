// Package assembler materializes the clip-list job description for one
// presenter of one edit.
package assembler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/internal/timecode"
	"presentersplit/models"
)

// Store is the slice of the record store the assembler needs.
type Store interface {
	GetEdit(ctx context.Context, id uuid.UUID) (*models.Edit, error)
	SegmentsForOutput(ctx context.Context, editID uuid.UUID, speakerLabel string) ([]models.Segment, error)
	DeleteOutputs(ctx context.Context, editID uuid.UUID, presenterNumber int) error
	InsertOutput(ctx context.Context, output models.Output) error
}

// Request identifies which presenter cut to generate.
type Request struct {
	EditID          uuid.UUID
	PresenterNumber int
	Title           string
	Description     string
}

// Assembler builds transcode job descriptions from approved segments.
type Assembler struct {
	store  Store
	bucket string
	log    *logrus.Logger
}

// New creates an Assembler. bucket names the object-storage bucket holding
// the source recording and receiving the rendered cut.
func New(store Store, bucket string, log *logrus.Logger) *Assembler {
	return &Assembler{store: store, bucket: bucket, log: log}
}

// Generate resolves the approved segments for the requested presenter,
// converts them to an ordered clip-range list, replaces any prior output
// record for the (edit, presenter) pair and returns the transcode job
// description. Zero qualifying segments yield a job with an empty clip list;
// rejecting a degenerate job is the transcoder's call.
func (a *Assembler) Generate(ctx context.Context, req Request) (*models.TranscodeJob, error) {
	if req.PresenterNumber < 1 {
		return nil, fmt.Errorf("invalid presenter number %d", req.PresenterNumber)
	}

	edit, err := a.store.GetEdit(ctx, req.EditID)
	if err != nil {
		return nil, fmt.Errorf("resolve edit: %w", err)
	}

	speakerLabel := fmt.Sprintf("presenter%d", req.PresenterNumber)
	segments, err := a.store.SegmentsForOutput(ctx, req.EditID, speakerLabel)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})

	clipRanges := make([]models.ClipRange, 0, len(segments))
	for _, seg := range segments {
		startTC, err := timecode.FromSeconds(seg.StartTime)
		if err != nil {
			return nil, fmt.Errorf("segment %s start: %w", seg.ID, err)
		}
		endTC, err := timecode.FromSeconds(seg.EndTime)
		if err != nil {
			return nil, fmt.Errorf("segment %s end: %w", seg.ID, err)
		}
		clipRanges = append(clipRanges, models.ClipRange{
			StartTimecode: startTC.String(),
			EndTimecode:   endTC.String(),
		})
	}

	// Replace any previous output for this pair so repeated generation never
	// accumulates duplicates.
	if err := a.store.DeleteOutputs(ctx, req.EditID, req.PresenterNumber); err != nil {
		return nil, fmt.Errorf("delete prior outputs: %w", err)
	}

	outputKey := fmt.Sprintf("videos/%s/LongVideoOutput/presenter%d", req.EditID, req.PresenterNumber)
	now := time.Now().UTC()
	output := models.Output{
		ID:              uuid.New(),
		EditID:          req.EditID,
		PresenterNumber: req.PresenterNumber,
		S3Location:      outputKey + ".mp4",
		Title:           req.Title,
		Description:     req.Description,
		Owner:           edit.Owner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.InsertOutput(ctx, output); err != nil {
		return nil, fmt.Errorf("insert output: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"edit_id":   req.EditID,
		"presenter": req.PresenterNumber,
		"clips":     len(clipRanges),
		"output_id": output.ID,
	}).Info("Generated output job")

	return &models.TranscodeJob{
		InputLocation:     fmt.Sprintf("s3://%s/videos/%s/LONG_RAW.mp4", a.bucket, req.EditID),
		ClipRanges:        clipRanges,
		OutputDestination: fmt.Sprintf("s3://%s/%s", a.bucket, outputKey),
		OutputID:          output.ID,
	}, nil
}
