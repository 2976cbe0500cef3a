// Package store persists pipeline records through the Supabase PostgREST
// API: segments, edits, outputs and pipeline job statuses, plus transcript
// and artifact access against object storage.
package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"presentersplit/models"
)

const (
	editTable    = "edits"
	segmentTable = "segments"
	outputTable  = "outputs"
)

// Client wraps the PostgREST client with the pipeline's record operations.
type Client struct {
	db  *postgrest.Client
	log *logrus.Logger
}

// New creates a store client against the given Supabase project.
func New(supabaseURL, serviceKey string, log *logrus.Logger) (*Client, error) {
	if supabaseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase URL and service key must be set")
	}

	db := postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": fmt.Sprintf("Bearer %s", serviceKey),
	})
	if db.ClientError != nil {
		return nil, fmt.Errorf("initialize postgrest client: %w", db.ClientError)
	}

	return &Client{db: db, log: log}, nil
}

// GetEdit fetches the edit record that selects the reasoning model and owner.
func (c *Client) GetEdit(ctx context.Context, id uuid.UUID) (*models.Edit, error) {
	var edits []models.Edit
	_, err := c.db.From(editTable).
		Select("*", "", false).
		Eq("id", id.String()).
		ExecuteTo(&edits)
	if err != nil {
		return nil, fmt.Errorf("fetch edit %s: %w", id, err)
	}
	if len(edits) == 0 {
		return nil, fmt.Errorf("edit %s not found", id)
	}
	return &edits[0], nil
}

// InsertSegments writes a fresh batch of detected segments.
func (c *Client) InsertSegments(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	_, _, err := c.db.From(segmentTable).
		Insert(segments, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert %d segments: %w", len(segments), err)
	}
	c.log.WithField("count", len(segments)).Info("Inserted segment batch")
	return nil
}

// UpsertSegments overwrites classified segments by id; segments the
// classifier created fresh ids for are inserted.
func (c *Client) UpsertSegments(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	_, _, err := c.db.From(segmentTable).
		Insert(segments, true, "id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert %d segments: %w", len(segments), err)
	}
	c.log.WithField("count", len(segments)).Info("Upserted segment batch")
	return nil
}

// ListSegments returns every segment of an edit, ordered by start time.
func (c *Client) ListSegments(ctx context.Context, editID uuid.UUID) ([]models.Segment, error) {
	var segments []models.Segment
	_, err := c.db.From(segmentTable).
		Select("*", "", false).
		Eq("edit_id", editID.String()).
		ExecuteTo(&segments)
	if err != nil {
		return nil, fmt.Errorf("list segments for edit %s: %w", editID, err)
	}
	sortSegments(segments)
	return segments, nil
}

// SegmentsForOutput returns the segments of an edit that are approved for the
// final cut of one speaker, ordered by start time.
func (c *Client) SegmentsForOutput(ctx context.Context, editID uuid.UUID, speakerLabel string) ([]models.Segment, error) {
	var segments []models.Segment
	_, err := c.db.From(segmentTable).
		Select("*", "", false).
		Eq("edit_id", editID.String()).
		Eq("include_in_output", "true").
		Eq("speaker_label", speakerLabel).
		ExecuteTo(&segments)
	if err != nil {
		return nil, fmt.Errorf("query output segments for edit %s: %w", editID, err)
	}
	sortSegments(segments)
	return segments, nil
}

// UpdateSegment applies a partial update to one segment record.
func (c *Client) UpdateSegment(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Segment, error) {
	var segments []models.Segment
	_, err := c.db.From(segmentTable).
		Update(fields, "representation", "").
		Eq("id", id.String()).
		ExecuteTo(&segments)
	if err != nil {
		return nil, fmt.Errorf("update segment %s: %w", id, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("segment %s not found", id)
	}
	return &segments[0], nil
}

// DeleteOutputs removes all output rows for an (edit, presenter) pair so
// regeneration never accumulates duplicates.
func (c *Client) DeleteOutputs(ctx context.Context, editID uuid.UUID, presenterNumber int) error {
	_, _, err := c.db.From(outputTable).
		Delete("minimal", "").
		Eq("edit_id", editID.String()).
		Eq("presenter_number", strconv.Itoa(presenterNumber)).
		Execute()
	if err != nil {
		return fmt.Errorf("delete outputs for edit %s presenter %d: %w", editID, presenterNumber, err)
	}
	return nil
}

// InsertOutput writes the new output record.
func (c *Client) InsertOutput(ctx context.Context, output models.Output) error {
	_, _, err := c.db.From(outputTable).
		Insert(output, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert output %s: %w", output.ID, err)
	}
	return nil
}

// GetOutput fetches one output record by id.
func (c *Client) GetOutput(ctx context.Context, id uuid.UUID) (*models.Output, error) {
	var outputs []models.Output
	_, err := c.db.From(outputTable).
		Select("*", "", false).
		Eq("id", id.String()).
		ExecuteTo(&outputs)
	if err != nil {
		return nil, fmt.Errorf("fetch output %s: %w", id, err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("output %s not found", id)
	}
	return &outputs[0], nil
}

// sortSegments orders by start time. sort.SliceStable keeps equal starts in
// store order, so repeated reads agree on tie order.
func sortSegments(segments []models.Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})
}
