// Package classifier refines detected segments with an external reasoning
// service, deciding per segment whether it is genuine presenter content and
// whether it belongs in the final cut. Classification failure never aborts
// the pipeline: every failure path lands on a deterministic fallback.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/internal/llm"
	"presentersplit/models"
)

// Decoding parameters for the classification round trip. The low temperature
// biases the model toward literal compliance with the output format.
const (
	temperature     = 0.3
	maxOutputTokens = 8192
)

// fallbackConfidence is stamped on segments when the service response is
// unusable and the input is echoed back.
const fallbackConfidence = 0.5

// Reasoner is the single-request reasoning service the classifier talks to.
type Reasoner interface {
	Converse(ctx context.Context, req llm.Request) (string, error)
}

// Input carries everything one classification invocation needs.
type Input struct {
	EditID         uuid.UUID
	Owner          string
	ModelID        string
	TranscriptText string
	Segments       []models.Segment
	Boundaries     []models.Boundary
}

// Classifier asks the reasoning service to reclassify detected segments.
type Classifier struct {
	reasoner     Reasoner
	defaultModel string
	log          *logrus.Logger
}

// New creates a Classifier. defaultModel is used when the edit record does
// not name a model of its own.
func New(reasoner Reasoner, defaultModel string, log *logrus.Logger) *Classifier {
	return &Classifier{reasoner: reasoner, defaultModel: defaultModel, log: log}
}

// Classify runs one classification pass and returns the refined segment
// list, ready for upsert. Service or parse failures are logged and recovered
// via Fallback, so the returned list is never empty when the input is not.
func (c *Classifier) Classify(ctx context.Context, in Input) []models.Segment {
	model := in.ModelID
	if model == "" {
		model = c.defaultModel
	}

	raw, err := c.reasoner.Converse(ctx, llm.Request{
		SystemPrompt:    systemPrompt,
		UserPrompt:      buildUserPrompt(in.TranscriptText, in.Segments, in.Boundaries),
		ModelID:         model,
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		c.log.WithError(err).WithField("edit_id", in.EditID).Warn("Reasoning service failed, using fallback classification")
		return c.Fallback(in)
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		c.log.WithError(err).WithField("edit_id", in.EditID).Warn("Unparseable classification response, using fallback")
		return c.Fallback(in)
	}

	return c.normalize(parsed, in)
}

// Fallback echoes the input segments with a neutral classification: the
// segment type defaults to the existing speaker label, every segment stays in
// the output, and confidence drops to 0.5.
func (c *Classifier) Fallback(in Input) []models.Segment {
	now := time.Now().UTC()
	out := make([]models.Segment, 0, len(in.Segments))
	for _, seg := range in.Segments {
		id := seg.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		segType := seg.SegmentType
		if segType == "" {
			segType = seg.SpeakerLabel
		}
		if segType == "" {
			segType = models.SegmentTypeUnknown
		}
		speaker := seg.SpeakerLabel
		if speaker == "" {
			speaker = models.SpeakerUnknown
		}
		out = append(out, models.Segment{
			ID:              id,
			EditID:          in.EditID,
			StartTime:       models.Round3(seg.StartTime),
			EndTime:         models.Round3(seg.EndTime),
			SpeakerLabel:    speaker,
			SegmentType:     segType,
			IncludeInOutput: true,
			AIConfidence:    fallbackConfidence,
			Owner:           in.Owner,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return out
}

// responseSegment is the shape the model is instructed to return. Optional
// fields are pointers so missing values can be told apart from explicit
// zeroes.
type responseSegment struct {
	ID              string   `json:"id"`
	StartTime       float64  `json:"startTime"`
	EndTime         float64  `json:"endTime"`
	SpeakerLabel    string   `json:"speakerLabel"`
	SegmentType     string   `json:"segmentType"`
	IncludeInOutput *bool    `json:"includeInOutput"`
	AIConfidence    *float64 `json:"aiConfidence"`
}

type classificationResponse struct {
	Segments []responseSegment `json:"segments"`
}

// parseResponse extracts the JSON object embedded in the free-text model
// response by scanning from the first '{' to the last '}'. A response with no
// usable segments array is an error.
func parseResponse(raw string) ([]responseSegment, error) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last == -1 || last < first {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var resp classificationResponse
	if err := json.Unmarshal([]byte(raw[first:last+1]), &resp); err != nil {
		return nil, fmt.Errorf("parse embedded JSON: %w", err)
	}
	if len(resp.Segments) == 0 {
		return nil, fmt.Errorf("response has no segments")
	}
	return resp.Segments, nil
}

// normalize converts the model's segments into persistable records: ids
// matching an input segment are preserved so the upsert overwrites, unknown
// or missing ids get fresh ones, defaults are resolved, and all numeric
// values are rounded to three decimals.
func (c *Classifier) normalize(parsed []responseSegment, in Input) []models.Segment {
	now := time.Now().UTC()
	out := make([]models.Segment, 0, len(parsed))
	for _, rs := range parsed {
		id, err := uuid.Parse(rs.ID)
		if err != nil {
			id = uuid.New()
		}

		speaker := rs.SpeakerLabel
		if speaker == "" {
			speaker = models.SpeakerUnknown
		}
		segType := rs.SegmentType
		if segType == "" {
			segType = models.SegmentTypeUnknown
		}

		include := true
		if rs.IncludeInOutput != nil {
			include = *rs.IncludeInOutput
		}
		confidence := fallbackConfidence
		if rs.AIConfidence != nil {
			confidence = clamp01(*rs.AIConfidence)
		}

		out = append(out, models.Segment{
			ID:              id,
			EditID:          in.EditID,
			StartTime:       models.Round3(rs.StartTime),
			EndTime:         models.Round3(rs.EndTime),
			SpeakerLabel:    speaker,
			SegmentType:     segType,
			IncludeInOutput: include,
			AIConfidence:    models.Round3(confidence),
			Owner:           in.Owner,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
