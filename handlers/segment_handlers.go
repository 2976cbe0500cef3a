package handlers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"presentersplit/models"
	"presentersplit/utils"
)

// validSegmentTypes guards the PATCH endpoint against labels the pipeline
// does not understand.
var validSegmentTypes = map[string]bool{
	models.SpeakerPresenter1:     true,
	models.SpeakerPresenter2:     true,
	models.SegmentTypeIntro:      true,
	models.SegmentTypeOutro:      true,
	models.SegmentTypeTransition: true,
	models.SegmentTypeQA:         true,
	models.SegmentTypeSilence:    true,
	models.SegmentTypeUnknown:    true,
}

// boolFilter normalizes a raw query value to the literal the record store
// filter expects. An absent parameter means no filter at all, so false must
// survive as an explicit "false".
func boolFilter(raw string) (string, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(v), nil
}

// ListSegments retrieves all segments of an edit, ordered by start time.
// GET /api/v1/edits/:editId/segments
func (h *ApplicationHandler) ListSegments(c *fiber.Ctx) error {
	editID, err := uuid.Parse(c.Params("editId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid edit ID format")
	}

	query := h.DB.From("segments").
		Select("*", "", false).
		Eq("edit_id", editID.String())
	if speaker := c.Query("speaker_label"); speaker != "" {
		query = query.Eq("speaker_label", speaker)
	}
	if raw := c.Query("include_in_output"); raw != "" {
		val, err := boolFilter(raw)
		if err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid include_in_output value %q", raw))
		}
		query = query.Eq("include_in_output", val)
	}

	bodyBytes, _, err := query.Execute()
	if err != nil {
		h.Logger.WithError(err).WithField("edit_id", editID).Error("Segment query failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not retrieve segments: %v", err))
	}

	var segments []models.Segment
	if err := json.Unmarshal(bodyBytes, &segments); err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not process segment data: %v", err))
	}
	if segments == nil {
		segments = []models.Segment{}
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})

	return utils.RespondWithJSON(c, fiber.StatusOK, segments)
}

// UpdateSegmentPayload is the PATCH body. Pointers distinguish a field that
// was omitted from one set to an explicit zero value.
type UpdateSegmentPayload struct {
	SegmentType     *string `json:"segment_type,omitempty"`
	IncludeInOutput *bool   `json:"include_in_output,omitempty"`
}

// UpdateSegment lets the editing surface toggle a segment's inclusion or
// reclassify it. Segments are never deleted through this API.
// PATCH /api/v1/segments/:segmentId
func (h *ApplicationHandler) UpdateSegment(c *fiber.Ctx) error {
	segmentID, err := uuid.Parse(c.Params("segmentId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid segment ID format")
	}

	payload := new(UpdateSegmentPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	updateFields := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if payload.SegmentType != nil {
		if !validSegmentTypes[*payload.SegmentType] {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid segment type %q", *payload.SegmentType))
		}
		updateFields["segment_type"] = *payload.SegmentType
	}
	if payload.IncludeInOutput != nil {
		updateFields["include_in_output"] = *payload.IncludeInOutput
	}
	if len(updateFields) == 1 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No updatable fields provided")
	}

	bodyBytes, _, err := h.DB.From("segments").
		Update(updateFields, "representation", "").
		Eq("id", segmentID.String()).
		Execute()
	if err != nil {
		h.Logger.WithError(err).WithField("segment_id", segmentID).Error("Segment update failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not update segment: %v", err))
	}

	var segments []models.Segment
	if err := json.Unmarshal(bodyBytes, &segments); err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not process update response: %v", err))
	}
	if len(segments) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Segment not found")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, segments[0])
}
