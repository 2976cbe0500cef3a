// Package detector finds presenter boundaries in a diarization transcript by
// combining silence-gap detection with speaker-change analysis.
package detector

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/models"
)

const (
	// SilenceThreshold is the minimum quiet interval, in seconds, reported
	// as a silence gap.
	SilenceThreshold = 3.0

	// MergeGapMax is the largest gap, in seconds, across which two
	// consecutive segments of the same speaker are coalesced.
	MergeGapMax = 3.0

	// MinSegmentSeconds is the duration below which a segment is absorbed
	// into its predecessor instead of standing alone.
	MinSegmentSeconds = 5.0

	// silenceTolerance loosens the overlap test between a speaker
	// transition and a silence gap, in seconds on each end.
	silenceTolerance = 0.5
)

// Confidence assigned to a boundary depending on whether the transition
// overlaps a detected silence gap.
const (
	ConfidenceWithSilence    = 0.9
	ConfidenceWithoutSilence = 0.7
)

// initialConfidence is stamped on segments created by the detection pass,
// before AI refinement.
const initialConfidence = 0.8

// Result is the full output of one detection run.
type Result struct {
	Segments   []models.Segment
	Boundaries []models.Boundary
	SpeakerMap map[string]string
}

// Detector runs the deterministic boundary-detection pass.
type Detector struct {
	log *logrus.Logger
}

// New creates a Detector.
func New(log *logrus.Logger) *Detector {
	return &Detector{log: log}
}

// DetectSilenceGaps walks the recognized tokens in order and reports every
// quiet interval of at least minGap seconds. Tokens without timing data
// (punctuation) are skipped without advancing the cursor.
func DetectSilenceGaps(t *models.Transcript, minGap float64) []models.SilenceGap {
	var gaps []models.SilenceGap
	prevEnd := 0.0

	for _, item := range t.Results.Items {
		start, ok := models.ParseSeconds(item.StartTime)
		if !ok {
			continue
		}
		end, _ := models.ParseSeconds(item.EndTime)

		if start-prevEnd >= minGap {
			gaps = append(gaps, models.SilenceGap{
				Start:    prevEnd,
				End:      start,
				Duration: start - prevEnd,
			})
		}
		if end > prevEnd {
			prevEnd = end
		}
	}

	return gaps
}

// ExtractSpeakerSegments reads the diarization segment list, taking each
// labeled segment's bounds from its first and last token. Segments without
// tokens are skipped.
func ExtractSpeakerSegments(t *models.Transcript) []models.DiarizedSegment {
	var segments []models.DiarizedSegment

	for _, seg := range t.Results.SpeakerLabels.Segments {
		if len(seg.Items) == 0 {
			continue
		}
		label := seg.SpeakerLabel
		if label == "" {
			label = models.SpeakerUnknown
		}
		start, _ := models.ParseSeconds(seg.Items[0].StartTime)
		end, _ := models.ParseSeconds(seg.Items[len(seg.Items)-1].EndTime)

		segments = append(segments, models.DiarizedSegment{
			SpeakerLabel: label,
			StartTime:    start,
			EndTime:      end,
		})
	}

	return segments
}

// MergeSegments coalesces the raw diarized segments in two passes: first
// consecutive same-speaker segments separated by at most MergeGapMax seconds,
// then segments shorter than MinSegmentSeconds are absorbed into their
// predecessor. The second pass never touches the first segment and only runs
// when more than one segment remains.
func MergeSegments(segments []models.DiarizedSegment) []models.DiarizedSegment {
	if len(segments) == 0 {
		return nil
	}

	merged := []models.DiarizedSegment{segments[0]}
	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if seg.SpeakerLabel == last.SpeakerLabel && seg.StartTime-last.EndTime <= MergeGapMax {
			last.EndTime = seg.EndTime
		} else {
			merged = append(merged, seg)
		}
	}

	if len(merged) > 1 {
		final := []models.DiarizedSegment{merged[0]}
		for _, seg := range merged[1:] {
			if seg.Duration() < MinSegmentSeconds {
				final[len(final)-1].EndTime = seg.EndTime
			} else {
				final = append(final, seg)
			}
		}
		merged = final
	}

	return merged
}

// SynthesizeBoundaries emits a Boundary at the midpoint of every transition
// between adjacent merged segments with differing labels. A transition fully
// covered by a silence gap (with silenceTolerance slack on both ends) gets
// the higher confidence.
func SynthesizeBoundaries(merged []models.DiarizedSegment, gaps []models.SilenceGap) []models.Boundary {
	var boundaries []models.Boundary

	for i := 0; i+1 < len(merged); i++ {
		curr, next := merged[i], merged[i+1]
		if curr.SpeakerLabel == next.SpeakerLabel {
			continue
		}

		gapStart := curr.EndTime
		gapEnd := next.StartTime

		hasSilence := false
		for _, g := range gaps {
			if g.Start <= gapStart+silenceTolerance && g.End >= gapEnd-silenceTolerance {
				hasSilence = true
				break
			}
		}

		confidence := ConfidenceWithoutSilence
		if hasSilence {
			confidence = ConfidenceWithSilence
		}

		boundaries = append(boundaries, models.Boundary{
			Time:        (gapStart + gapEnd) / 2,
			FromSpeaker: curr.SpeakerLabel,
			ToSpeaker:   next.SpeakerLabel,
			GapDuration: gapEnd - gapStart,
			HasSilence:  hasSilence,
			Confidence:  confidence,
		})
	}

	return boundaries
}

// MapSpeakers assigns presenter identities to diarized speaker labels in
// encounter order. The first distinct label becomes presenter1, the second
// presenter2; any further labels map to unknown.
func MapSpeakers(segments []models.DiarizedSegment) map[string]string {
	presenters := []string{models.SpeakerPresenter1, models.SpeakerPresenter2}
	speakerMap := make(map[string]string)

	for _, seg := range segments {
		if _, seen := speakerMap[seg.SpeakerLabel]; seen {
			continue
		}
		if len(speakerMap) < len(presenters) {
			speakerMap[seg.SpeakerLabel] = presenters[len(speakerMap)]
		} else {
			speakerMap[seg.SpeakerLabel] = models.SpeakerUnknown
		}
	}

	return speakerMap
}

// Detect runs the full detection pass for one edit: silence gaps, speaker
// segment extraction, the two merge passes, boundary synthesis and presenter
// mapping. An empty transcript yields an empty Result, never an error.
func (d *Detector) Detect(editID uuid.UUID, owner string, t *models.Transcript) *Result {
	gaps := DetectSilenceGaps(t, SilenceThreshold)
	merged := MergeSegments(ExtractSpeakerSegments(t))
	boundaries := SynthesizeBoundaries(merged, gaps)
	speakerMap := MapSpeakers(merged)

	now := time.Now().UTC()
	segments := make([]models.Segment, 0, len(merged))
	for _, seg := range merged {
		mapped, ok := speakerMap[seg.SpeakerLabel]
		if !ok {
			mapped = models.SpeakerUnknown
		}
		segments = append(segments, models.Segment{
			ID:              uuid.New(),
			EditID:          editID,
			StartTime:       models.Round3(seg.StartTime),
			EndTime:         models.Round3(seg.EndTime),
			SpeakerLabel:    mapped,
			SegmentType:     mapped,
			IncludeInOutput: true,
			AIConfidence:    initialConfidence,
			Owner:           owner,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	d.log.WithFields(logrus.Fields{
		"edit_id":      editID,
		"segments":     len(segments),
		"boundaries":   len(boundaries),
		"silence_gaps": len(gaps),
	}).Info("Boundary detection complete")

	return &Result{Segments: segments, Boundaries: boundaries, SpeakerMap: speakerMap}
}
