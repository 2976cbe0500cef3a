package models

import "github.com/google/uuid"

// Edit is the long-video edit record. Read-only to the pipeline: it selects
// which reasoning model to call and which owner to stamp on derived records.
type Edit struct {
	ID      uuid.UUID `json:"id"`
	ModelID string    `json:"model_id"`
	Owner   string    `json:"owner"`
}
