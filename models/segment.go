package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Speaker labels assigned after positional presenter mapping.
const (
	SpeakerPresenter1 = "presenter1"
	SpeakerPresenter2 = "presenter2"
	SpeakerUnknown    = "unknown"
)

// Segment classification types. Presenter segments reuse the speaker labels;
// the rest mark non-presentation content.
const (
	SegmentTypeIntro      = "intro"
	SegmentTypeOutro      = "outro"
	SegmentTypeTransition = "transition"
	SegmentTypeQA         = "qa"
	SegmentTypeSilence    = "silence"
	SegmentTypeUnknown    = "unknown"
)

// Segment is the persisted classification of one time interval of the source
// video. Created by boundary detection and later overwritten (upsert by id)
// by the AI classification pass.
type Segment struct {
	ID              uuid.UUID `json:"id"`
	EditID          uuid.UUID `json:"edit_id"`
	StartTime       float64   `json:"start_time"`
	EndTime         float64   `json:"end_time"`
	SpeakerLabel    string    `json:"speaker_label"`
	SegmentType     string    `json:"segment_type"`
	IncludeInOutput bool      `json:"include_in_output"`
	AIConfidence    float64   `json:"ai_confidence"`
	Owner           string    `json:"owner"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SilenceGap is an interval with no recognized speech. Derived during
// boundary detection and discarded afterwards.
type SilenceGap struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// DiarizedSegment is a merged run of speech attributed to one diarized
// speaker identity, before presenter mapping.
type DiarizedSegment struct {
	SpeakerLabel string  `json:"speaker_label"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
}

// Duration returns the segment length in seconds.
func (s DiarizedSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Boundary marks a transition between two differently-labeled merged
// segments. It is forwarded to the classifier but never persisted.
type Boundary struct {
	Time        float64 `json:"time"`
	FromSpeaker string  `json:"from_speaker"`
	ToSpeaker   string  `json:"to_speaker"`
	GapDuration float64 `json:"gap_duration"`
	HasSilence  bool    `json:"has_silence"`
	Confidence  float64 `json:"confidence"`
}

// Round3 rounds v to three decimal places. All times and confidences are
// rounded this way before persistence to avoid floating-point drift in the
// store.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
