package models

import (
	"time"

	"github.com/google/uuid"
)

// Output is the persisted record of one generated per-presenter cut. At most
// one live row exists per (edit_id, presenter_number); regeneration deletes
// prior rows before inserting.
type Output struct {
	ID              uuid.UUID `json:"id"`
	EditID          uuid.UUID `json:"edit_id"`
	PresenterNumber int       `json:"presenter_number"`
	S3Location      string    `json:"s3_location"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Owner           string    `json:"owner"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ClipRange is a start/end timecode pair describing material to retain.
type ClipRange struct {
	StartTimecode string `json:"start_timecode"`
	EndTimecode   string `json:"end_timecode"`
}

// TranscodeJob is the clip-list job description handed to the external
// transcoding service.
type TranscodeJob struct {
	InputLocation     string      `json:"input_location"`
	ClipRanges        []ClipRange `json:"clip_ranges"`
	OutputDestination string      `json:"output_destination"`
	OutputID          uuid.UUID   `json:"output_id"`
}
