package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"presentersplit/internal/assembler"
	"presentersplit/internal/jobs"
	"presentersplit/models"
	"presentersplit/utils"
)

// DetectBoundaries runs the deterministic detection pass synchronously and
// returns the detected segments and boundaries so the caller can feed them
// into classification.
// POST /api/v1/edits/:editId/detect
func (h *ApplicationHandler) DetectBoundaries(c *fiber.Ctx) error {
	editID, err := uuid.Parse(c.Params("editId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid edit ID format")
	}

	edit, err := h.Env.Store.GetEdit(c.Context(), editID)
	if err != nil {
		h.Logger.WithError(err).WithField("edit_id", editID).Error("Edit lookup failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not resolve edit: %v", err))
	}

	transcript, err := h.Env.Objects.DownloadTranscript(c.Context(), editID)
	if err != nil {
		h.Logger.WithError(err).WithField("edit_id", editID).Error("Transcript fetch failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not fetch transcript: %v", err))
	}

	result := h.Detector.Detect(editID, edit.Owner, transcript)
	if err := h.Env.Store.InsertSegments(c.Context(), result.Segments); err != nil {
		h.Logger.WithError(err).WithField("edit_id", editID).Error("Segment insert failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not persist segments: %v", err))
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"edit_id":     editID,
		"segments":    result.Segments,
		"boundaries":  result.Boundaries,
		"speaker_map": result.SpeakerMap,
	})
}

// ClassifySegmentsPayload is the request body for classification: the
// segments and boundaries produced by a preceding detection call.
type ClassifySegmentsPayload struct {
	Segments   []models.Segment  `json:"segments" validate:"required,min=1"`
	Boundaries []models.Boundary `json:"boundaries"`
}

// ClassifySegments queues the AI classification pass. The reasoning round
// trip can take minutes, so the work runs on the job pool and the caller
// polls the returned job id.
// POST /api/v1/edits/:editId/classify
func (h *ApplicationHandler) ClassifySegments(c *fiber.Ctx) error {
	editID, err := uuid.Parse(c.Params("editId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid edit ID format")
	}

	payload := new(ClassifySegmentsPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := h.Validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  utils.FormatValidationErrors(err),
		})
	}

	jobID, err := h.Env.Store.CreateJobRecord(c.Context(), jobs.TypeClassifySegments, fiber.Map{
		"edit_id":       editID,
		"segment_count": len(payload.Segments),
	})
	if err != nil {
		h.Logger.WithError(err).Error("Could not create job record")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create job: %v", err))
	}

	job := &jobs.ClassifySegmentsJob{
		JobID:      jobID,
		EditID:     editID,
		Segments:   payload.Segments,
		Boundaries: payload.Boundaries,
		Env:        h.Env,
	}
	if !h.Dispatcher.Submit(job) {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Job queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"job_id": jobID})
}

// GenerateOutputPayload is the request body for output assembly.
type GenerateOutputPayload struct {
	PresenterNumber int    `json:"presenter_number" validate:"required,min=1,max=2"`
	Title           string `json:"title"`
	Description     string `json:"description"`
}

// GenerateOutput assembles the clip-list job for one presenter and returns
// the transcode job description.
// POST /api/v1/edits/:editId/outputs
func (h *ApplicationHandler) GenerateOutput(c *fiber.Ctx) error {
	editID, err := uuid.Parse(c.Params("editId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid edit ID format")
	}

	payload := new(GenerateOutputPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := h.Validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  utils.FormatValidationErrors(err),
		})
	}

	job, err := h.Assembler.Generate(c.Context(), assembler.Request{
		EditID:          editID,
		PresenterNumber: payload.PresenterNumber,
		Title:           payload.Title,
		Description:     payload.Description,
	})
	if err != nil {
		h.Logger.WithError(err).WithField("edit_id", editID).Error("Output assembly failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not generate output: %v", err))
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

// PublishOutputPayload optionally overrides the stored title/description.
type PublishOutputPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PublishOutput queues the upload of a rendered cut to the video host.
// POST /api/v1/outputs/:outputId/publish
func (h *ApplicationHandler) PublishOutput(c *fiber.Ctx) error {
	outputID, err := uuid.Parse(c.Params("outputId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid output ID format")
	}
	if h.Env.Uploader == nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Publishing is not configured")
	}

	payload := new(PublishOutputPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	jobID, err := h.Env.Store.CreateJobRecord(c.Context(), jobs.TypePublishOutput, fiber.Map{
		"output_id": outputID,
	})
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create job: %v", err))
	}

	job := &jobs.PublishOutputJob{
		JobID:       jobID,
		OutputID:    outputID,
		Title:       payload.Title,
		Description: payload.Description,
		Env:         h.Env,
	}
	if !h.Dispatcher.Submit(job) {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Job queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"job_id": jobID})
}

// GetJobStatus reports the state of an asynchronous pipeline job.
// GET /api/v1/jobs/:jobId
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	job, err := h.Env.Store.GetJobStatus(c.Context(), jobID.String())
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("Job not found: %v", err))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}
