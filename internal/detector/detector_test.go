package detector

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// wordItems fills the token list with evenly spaced words over [start, end],
// the last one ending exactly at end.
func wordItems(start, end float64) []models.TranscriptItem {
	var items []models.TranscriptItem
	for t := start; t < end; t += 1.0 {
		stop := t + 0.8
		if stop > end {
			stop = end
		}
		items = append(items, models.TranscriptItem{
			StartTime: fmt.Sprintf("%.2f", t),
			EndTime:   fmt.Sprintf("%.2f", stop),
		})
	}
	if len(items) > 0 {
		items[len(items)-1].EndTime = fmt.Sprintf("%.2f", end)
	}
	return items
}

func speakerSegment(label string, start, end float64) models.SpeakerSegment {
	return models.SpeakerSegment{
		SpeakerLabel: label,
		Items: []models.SpeakerItem{
			{StartTime: fmt.Sprintf("%.2f", start), EndTime: fmt.Sprintf("%.2f", start+0.8)},
			{StartTime: fmt.Sprintf("%.2f", end-0.8), EndTime: fmt.Sprintf("%.2f", end)},
		},
	}
}

func TestDetectSilenceGaps(t *testing.T) {
	tr := &models.Transcript{}
	tr.Results.Items = append(tr.Results.Items, wordItems(0, 30)...)
	// Punctuation token without timing must not advance the cursor.
	tr.Results.Items = append(tr.Results.Items, models.TranscriptItem{})
	tr.Results.Items = append(tr.Results.Items, wordItems(33.5, 60)...)

	gaps := DetectSilenceGaps(tr, SilenceThreshold)
	if len(gaps) != 1 {
		t.Fatalf("expected 1 silence gap, got %d: %+v", len(gaps), gaps)
	}
	g := gaps[0]
	if g.Start != 30 || g.End != 33.5 {
		t.Errorf("gap bounds = [%v, %v], want [30, 33.5]", g.Start, g.End)
	}
	if math.Abs(g.Duration-(g.End-g.Start)) > 1e-9 {
		t.Errorf("gap duration %v != end-start %v", g.Duration, g.End-g.Start)
	}
}

func TestDetectSilenceGapsProperties(t *testing.T) {
	tr := &models.Transcript{}
	// Several quiet stretches of varying length, some below threshold.
	spans := [][2]float64{{0, 10}, {11, 20}, {25, 40}, {49, 60}, {61.5, 70}, {78, 90}}
	for _, s := range spans {
		tr.Results.Items = append(tr.Results.Items, wordItems(s[0], s[1])...)
	}

	gaps := DetectSilenceGaps(tr, SilenceThreshold)
	if len(gaps) == 0 {
		t.Fatal("expected silence gaps")
	}
	for i, g := range gaps {
		if g.Duration < SilenceThreshold {
			t.Errorf("gap %d duration %v below threshold", i, g.Duration)
		}
		if math.Abs(g.Duration-(g.End-g.Start)) > 1e-9 {
			t.Errorf("gap %d duration %v != end-start", i, g.Duration)
		}
		if i > 0 && gaps[i-1].End > g.Start {
			t.Errorf("gaps %d and %d overlap", i-1, i)
		}
	}
}

func TestExtractSpeakerSegmentsSkipsEmpty(t *testing.T) {
	tr := &models.Transcript{}
	tr.Results.SpeakerLabels.Segments = []models.SpeakerSegment{
		speakerSegment("spk_0", 0, 10),
		{SpeakerLabel: "spk_1"}, // no items
		speakerSegment("spk_1", 12, 20),
	}

	segs := ExtractSpeakerSegments(tr)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].StartTime != 0 || segs[0].EndTime != 10 {
		t.Errorf("segment 0 bounds = [%v, %v], want [0, 10]", segs[0].StartTime, segs[0].EndTime)
	}
}

func TestMergeSegmentsCoalescesSameSpeaker(t *testing.T) {
	in := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 10},
		{SpeakerLabel: "spk_0", StartTime: 12, EndTime: 25}, // gap 2.0 <= max, merge
		{SpeakerLabel: "spk_0", StartTime: 30, EndTime: 40}, // gap 5.0 > max, keep
		{SpeakerLabel: "spk_1", StartTime: 41, EndTime: 55},
	}

	got := MergeSegments(in)
	want := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 25},
		{SpeakerLabel: "spk_0", StartTime: 30, EndTime: 40},
		{SpeakerLabel: "spk_1", StartTime: 41, EndTime: 55},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeSegments = %+v, want %+v", got, want)
	}
}

func TestMergeSegmentsAbsorbsShortSegments(t *testing.T) {
	in := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 20},
		{SpeakerLabel: "spk_1", StartTime: 24, EndTime: 27}, // 3s, absorbed
		{SpeakerLabel: "spk_0", StartTime: 31, EndTime: 50},
	}

	got := MergeSegments(in)
	want := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 27},
		{SpeakerLabel: "spk_0", StartTime: 31, EndTime: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeSegments = %+v, want %+v", got, want)
	}
}

func TestMergeSegmentsKeepsShortFirstSegment(t *testing.T) {
	in := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 2},
		{SpeakerLabel: "spk_1", StartTime: 10, EndTime: 30},
	}

	got := MergeSegments(in)
	if len(got) == 0 {
		t.Fatal("merge produced empty list from non-empty input")
	}
	if got[0].SpeakerLabel != "spk_0" || got[0].StartTime != 0 {
		t.Errorf("first segment was removed: %+v", got)
	}

	// A lone short segment survives untouched.
	single := MergeSegments(in[:1])
	if !reflect.DeepEqual(single, in[:1]) {
		t.Errorf("single short segment changed: %+v", single)
	}
}

func TestMergeSegmentsIdempotent(t *testing.T) {
	in := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 10},
		{SpeakerLabel: "spk_0", StartTime: 11, EndTime: 14},
		{SpeakerLabel: "spk_1", StartTime: 15, EndTime: 40},
		{SpeakerLabel: "spk_0", StartTime: 42, EndTime: 44},
		{SpeakerLabel: "spk_1", StartTime: 50, EndTime: 70},
	}

	once := MergeSegments(in)
	twice := MergeSegments(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestSynthesizeBoundariesConfidence(t *testing.T) {
	merged := []models.DiarizedSegment{
		{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 30},
		{SpeakerLabel: "spk_1", StartTime: 32, EndTime: 60},
		{SpeakerLabel: "spk_0", StartTime: 61, EndTime: 90},
	}
	gaps := []models.SilenceGap{{Start: 30.5, End: 31.8, Duration: 1.3}}

	boundaries := SynthesizeBoundaries(merged, gaps)
	if len(boundaries) != 2 {
		t.Fatalf("expected 2 boundaries, got %d", len(boundaries))
	}

	covered := boundaries[0]
	if !covered.HasSilence || covered.Confidence != ConfidenceWithSilence {
		t.Errorf("covered transition: hasSilence=%v confidence=%v, want true/%v",
			covered.HasSilence, covered.Confidence, ConfidenceWithSilence)
	}
	if covered.Time != 31 {
		t.Errorf("boundary time = %v, want 31", covered.Time)
	}

	bare := boundaries[1]
	if bare.HasSilence || bare.Confidence != ConfidenceWithoutSilence {
		t.Errorf("uncovered transition: hasSilence=%v confidence=%v, want false/%v",
			bare.HasSilence, bare.Confidence, ConfidenceWithoutSilence)
	}
}

func TestMapSpeakers(t *testing.T) {
	segs := []models.DiarizedSegment{
		{SpeakerLabel: "spk_1", StartTime: 0, EndTime: 10},
		{SpeakerLabel: "spk_0", StartTime: 12, EndTime: 20},
		{SpeakerLabel: "spk_1", StartTime: 22, EndTime: 30},
		{SpeakerLabel: "spk_2", StartTime: 32, EndTime: 40},
	}

	m := MapSpeakers(segs)
	want := map[string]string{
		"spk_1": models.SpeakerPresenter1,
		"spk_0": models.SpeakerPresenter2,
		"spk_2": models.SpeakerUnknown,
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("MapSpeakers = %v, want %v", m, want)
	}
}

func TestMapSpeakersSingleSpeaker(t *testing.T) {
	m := MapSpeakers([]models.DiarizedSegment{{SpeakerLabel: "spk_0", StartTime: 0, EndTime: 60}})
	if m["spk_0"] != models.SpeakerPresenter1 {
		t.Errorf("single speaker mapped to %q, want presenter1", m["spk_0"])
	}
}

func TestDetectEndToEnd(t *testing.T) {
	tr := &models.Transcript{}
	tr.Results.Items = append(tr.Results.Items, wordItems(0, 30)...)
	tr.Results.Items = append(tr.Results.Items, wordItems(33.5, 60)...)
	tr.Results.SpeakerLabels.Segments = []models.SpeakerSegment{
		speakerSegment("spk_0", 0, 30),
		speakerSegment("spk_1", 32, 60),
	}

	editID := uuid.New()
	res := New(quietLogger()).Detect(editID, "owner-1", tr)

	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if len(res.Boundaries) != 1 {
		t.Fatalf("expected 1 boundary, got %d", len(res.Boundaries))
	}

	b := res.Boundaries[0]
	if b.Time != 31 || !b.HasSilence || b.Confidence != ConfidenceWithSilence {
		t.Errorf("boundary = %+v, want time 31, hasSilence, confidence 0.9", b)
	}
	if res.SpeakerMap["spk_0"] != models.SpeakerPresenter1 || res.SpeakerMap["spk_1"] != models.SpeakerPresenter2 {
		t.Errorf("speaker map = %v", res.SpeakerMap)
	}

	for i, seg := range res.Segments {
		if seg.EditID != editID {
			t.Errorf("segment %d edit id = %v", i, seg.EditID)
		}
		if !seg.IncludeInOutput {
			t.Errorf("segment %d excluded from output", i)
		}
		if seg.AIConfidence != 0.8 {
			t.Errorf("segment %d confidence = %v, want 0.8", i, seg.AIConfidence)
		}
		if seg.Owner != "owner-1" {
			t.Errorf("segment %d owner = %q", i, seg.Owner)
		}
		if seg.SegmentType != seg.SpeakerLabel {
			t.Errorf("segment %d type %q != speaker %q", i, seg.SegmentType, seg.SpeakerLabel)
		}
	}
}

func TestDetectEmptyTranscript(t *testing.T) {
	res := New(quietLogger()).Detect(uuid.New(), "", &models.Transcript{})
	if len(res.Segments) != 0 || len(res.Boundaries) != 0 {
		t.Errorf("empty transcript produced segments=%d boundaries=%d", len(res.Segments), len(res.Boundaries))
	}
}
