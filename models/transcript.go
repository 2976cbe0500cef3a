package models

import "strconv"

// Transcript mirrors the diarization JSON produced by the upstream
// speech-to-text service. Only the fields the pipeline consumes are mapped;
// everything else in the document is ignored during unmarshalling.
type Transcript struct {
	Results TranscriptResults `json:"results"`
}

// TranscriptResults holds the token list, the speaker diarization segments
// and the full transcript text.
type TranscriptResults struct {
	Transcripts   []TranscriptText `json:"transcripts"`
	Items         []TranscriptItem `json:"items"`
	SpeakerLabels SpeakerLabels    `json:"speaker_labels"`
}

// TranscriptText wraps the full transcript string.
type TranscriptText struct {
	Transcript string `json:"transcript"`
}

// TranscriptItem is a single recognized token. Non-speech tokens
// (punctuation) carry no timing data, so both fields are optional strings
// exactly as the service emits them.
type TranscriptItem struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// SpeakerLabels groups the speaker-attributed segment list.
type SpeakerLabels struct {
	Segments []SpeakerSegment `json:"segments"`
}

// SpeakerSegment is a contiguous run of tokens attributed to one diarized
// speaker identity (spk_0, spk_1, ...).
type SpeakerSegment struct {
	SpeakerLabel string        `json:"speaker_label"`
	Items        []SpeakerItem `json:"items"`
}

// SpeakerItem is a token reference inside a speaker segment.
type SpeakerItem struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Text returns the full transcript text, or "" when the document carries none.
func (t *Transcript) Text() string {
	if len(t.Results.Transcripts) == 0 {
		return ""
	}
	return t.Results.Transcripts[0].Transcript
}

// ParseSeconds converts a transcript time field to seconds. The service emits
// times as decimal strings; a missing field parses as (0, false).
func ParseSeconds(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
