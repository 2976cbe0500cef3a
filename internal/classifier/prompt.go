package classifier

import (
	"encoding/json"
	"fmt"

	"presentersplit/models"
)

// systemPrompt frames the task for the reasoning service.
const systemPrompt = "You are an AI assistant that analyzes video transcripts to identify presenter segments and non-presentation segments."

// userPromptTemplate asks for a strict JSON reply so the response can be
// extracted with a brace scan. Placeholders: script excerpt, segment summary,
// boundary summary.
const userPromptTemplate = `Below is a transcript of a webinar/seminar video with two presenters.
<script>%s</script>

Here are the detected speaker segments (speaker boundaries from diarization):
<segments>%s</segments>

Here are the detected speaker change boundaries:
<boundaries>%s</boundaries>

Analyze these segments and classify each one. The video has exactly 2 presenters.
For each segment, determine:
1. Whether it belongs to presenter1, presenter2, or is a non-presentation segment
2. Non-presentation types: "intro", "outro", "transition", "qa", "silence"
3. Whether it should be included in the final output (exclude intros, outros, transitions, Q&A sections)
4. Your confidence level (0.0-1.0)

Return the analysis in this JSON format:
{
  "segments": [
    {
      "id": "segment_id",
      "startTime": 0.0,
      "endTime": 30.5,
      "speakerLabel": "presenter1",
      "segmentType": "presenter1",
      "includeInOutput": true,
      "aiConfidence": 0.95
    }
  ]
}

Important:
- Keep existing segment IDs where available
- Presenter segments should have segmentType matching their speakerLabel
- Mark intro/outro/transition/qa/silence segments with includeInOutput: false
- Respond only with the JSON structure above`

// Prompt size caps. The segment and boundary summaries are truncated so one
// oversized edit cannot blow the model's context window; the transcript gets
// its head plus, when long, its tail so intro and outro content are both
// visible to the model.
const (
	maxPromptSegments   = 50
	maxPromptBoundaries = 20
	scriptHeadChars     = 8000
	scriptTailChars     = 2000
)

func buildUserPrompt(script string, segments []models.Segment, boundaries []models.Boundary) string {
	if len(segments) > maxPromptSegments {
		segments = segments[:maxPromptSegments]
	}
	if len(boundaries) > maxPromptBoundaries {
		boundaries = boundaries[:maxPromptBoundaries]
	}

	summaries := make([]promptSegment, 0, len(segments))
	for _, seg := range segments {
		summaries = append(summaries, promptSegment{
			ID:           seg.ID.String(),
			StartTime:    seg.StartTime,
			EndTime:      seg.EndTime,
			SpeakerLabel: seg.SpeakerLabel,
			SegmentType:  seg.SegmentType,
		})
	}

	segmentJSON, _ := json.MarshalIndent(summaries, "", "  ")
	boundaryJSON, _ := json.MarshalIndent(boundaries, "", "  ")

	return fmt.Sprintf(userPromptTemplate, scriptExcerpt(script), segmentJSON, boundaryJSON)
}

// scriptExcerpt returns the transcript head and, for long transcripts, its
// tail separated by an ellipsis marker.
func scriptExcerpt(script string) string {
	if len(script) <= scriptHeadChars {
		return script
	}
	head := script[:scriptHeadChars]
	tail := script[len(script)-scriptTailChars:]
	return head + "\n[... transcript truncated ...]\n" + tail
}

// promptSegment is the compact segment summary embedded in the prompt, using
// the same field names the model is asked to return.
type promptSegment struct {
	ID           string  `json:"id"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
	SpeakerLabel string  `json:"speakerLabel"`
	SegmentType  string  `json:"segmentType"`
}
