package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/internal/llm"
	"presentersplit/models"
)

type fakeReasoner struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeReasoner) Converse(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testInput() Input {
	return Input{
		EditID:         uuid.New(),
		Owner:          "owner-1",
		ModelID:        "model-x",
		TranscriptText: "Welcome everyone to the webinar.",
		Segments: []models.Segment{
			{ID: uuid.New(), StartTime: 0, EndTime: 30, SpeakerLabel: models.SpeakerPresenter1, SegmentType: models.SpeakerPresenter1},
			{ID: uuid.New(), StartTime: 32, EndTime: 60, SpeakerLabel: models.SpeakerPresenter2, SegmentType: models.SpeakerPresenter2},
		},
		Boundaries: []models.Boundary{
			{Time: 31, FromSpeaker: "spk_0", ToSpeaker: "spk_1", GapDuration: 2, HasSilence: true, Confidence: 0.9},
		},
	}
}

func TestClassifyParsesEmbeddedJSON(t *testing.T) {
	in := testInput()
	keep := in.Segments[0].ID

	reasoner := &fakeReasoner{response: fmt.Sprintf(`Here is my analysis:
{
  "segments": [
    {"id": %q, "startTime": 0.0001, "endTime": 30, "speakerLabel": "presenter1", "segmentType": "intro", "includeInOutput": false, "aiConfidence": 0.91119},
    {"startTime": 32, "endTime": 60, "speakerLabel": "presenter2", "segmentType": "presenter2", "includeInOutput": true, "aiConfidence": 1.5}
  ]
}
Hope that helps.`, keep)}

	got := New(reasoner, "gemini-2.5-flash", quietLogger()).Classify(context.Background(), in)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}

	if got[0].ID != keep {
		t.Errorf("existing id not preserved: %v != %v", got[0].ID, keep)
	}
	if got[0].SegmentType != models.SegmentTypeIntro || got[0].IncludeInOutput {
		t.Errorf("segment 0 = %+v, want excluded intro", got[0])
	}
	if got[0].AIConfidence != 0.911 {
		t.Errorf("confidence not rounded: %v", got[0].AIConfidence)
	}
	if got[0].StartTime != 0 {
		t.Errorf("start time not rounded: %v", got[0].StartTime)
	}

	if got[1].ID == uuid.Nil || got[1].ID == in.Segments[1].ID {
		t.Errorf("missing id should be freshly generated, got %v", got[1].ID)
	}
	if got[1].AIConfidence != 1 {
		t.Errorf("out-of-range confidence not clamped: %v", got[1].AIConfidence)
	}
	if got[1].EditID != in.EditID || got[1].Owner != "owner-1" {
		t.Errorf("edit/owner not stamped: %+v", got[1])
	}

	if reasoner.lastReq.Temperature != 0.3 || reasoner.lastReq.MaxOutputTokens != 8192 {
		t.Errorf("decoding params = %v/%v", reasoner.lastReq.Temperature, reasoner.lastReq.MaxOutputTokens)
	}
	if reasoner.lastReq.ModelID != "model-x" {
		t.Errorf("model id = %q", reasoner.lastReq.ModelID)
	}
}

func TestClassifyModelSelection(t *testing.T) {
	response := `{"segments": [{"startTime": 0, "endTime": 30, "speakerLabel": "presenter1", "segmentType": "presenter1"}]}`

	reasoner := &fakeReasoner{response: response}
	in := testInput()
	New(reasoner, "gemini-2.5-flash", quietLogger()).Classify(context.Background(), in)
	if reasoner.lastReq.ModelID != "model-x" {
		t.Errorf("edit model should win: got %q", reasoner.lastReq.ModelID)
	}

	in.ModelID = ""
	New(reasoner, "gemini-2.5-flash", quietLogger()).Classify(context.Background(), in)
	if reasoner.lastReq.ModelID != "gemini-2.5-flash" {
		t.Errorf("empty edit model should fall back to the configured default, got %q", reasoner.lastReq.ModelID)
	}
}

func TestClassifyFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "transport error", err: errors.New("throttled")},
		{name: "no JSON at all", response: "I cannot classify this transcript."},
		{name: "malformed JSON", response: `{"segments": [{"startTime": }]}`},
		{name: "empty segments array", response: `{"segments": []}`},
		{name: "wrong shape", response: `{"result": "ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput()
			got := New(&fakeReasoner{response: tt.response, err: tt.err}, "gemini-2.5-flash", quietLogger()).
				Classify(context.Background(), in)

			if len(got) != len(in.Segments) {
				t.Fatalf("fallback length %d != input length %d", len(got), len(in.Segments))
			}
			for i, seg := range got {
				if seg.StartTime != in.Segments[i].StartTime || seg.EndTime != in.Segments[i].EndTime {
					t.Errorf("segment %d times changed: %+v", i, seg)
				}
				if !seg.IncludeInOutput {
					t.Errorf("segment %d excluded in fallback", i)
				}
				if seg.AIConfidence != 0.5 {
					t.Errorf("segment %d confidence = %v, want 0.5", i, seg.AIConfidence)
				}
				if seg.ID != in.Segments[i].ID {
					t.Errorf("segment %d id changed in fallback", i)
				}
			}
		})
	}
}

func TestFallbackDefaultsUnknown(t *testing.T) {
	in := Input{
		EditID:   uuid.New(),
		Segments: []models.Segment{{StartTime: 1, EndTime: 2}},
	}
	got := New(&fakeReasoner{err: errors.New("down")}, "gemini-2.5-flash", quietLogger()).Classify(context.Background(), in)
	if got[0].SegmentType != models.SegmentTypeUnknown || got[0].SpeakerLabel != models.SpeakerUnknown {
		t.Errorf("blank labels should default to unknown: %+v", got[0])
	}
	if got[0].ID == uuid.Nil {
		t.Error("nil id should be replaced")
	}
}

func TestBuildUserPromptCapsAndExcerpts(t *testing.T) {
	var segments []models.Segment
	for i := 0; i < 80; i++ {
		segments = append(segments, models.Segment{ID: uuid.New(), StartTime: float64(i), EndTime: float64(i + 1)})
	}
	var boundaries []models.Boundary
	for i := 0; i < 40; i++ {
		boundaries = append(boundaries, models.Boundary{Time: float64(i)})
	}

	script := strings.Repeat("a", scriptHeadChars) + strings.Repeat("b", 5000) + "THE-VERY-END"
	prompt := buildUserPrompt(script, segments, boundaries)

	// One extra occurrence comes from the format example in the template.
	if got := strings.Count(prompt, `"speakerLabel"`) - 1; got != maxPromptSegments {
		t.Errorf("prompt contains %d segments, want %d", got, maxPromptSegments)
	}
	if got := strings.Count(prompt, `"from_speaker"`); got != maxPromptBoundaries {
		t.Errorf("prompt contains %d boundaries, want %d", got, maxPromptBoundaries)
	}
	if !strings.Contains(prompt, "THE-VERY-END") {
		t.Error("long transcript tail missing from prompt")
	}
	if strings.Contains(prompt, strings.Repeat("b", 4000)) {
		t.Error("transcript middle should be truncated")
	}

	short := buildUserPrompt("short script", nil, nil)
	if !strings.Contains(short, "short script") || strings.Contains(short, "transcript truncated") {
		t.Error("short transcript should be embedded whole")
	}
}
