package dto

import (
	"time"

	"github.com/google/uuid"
)

type ExportLearningRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}

// LearningCaptureMessage is the internal pub/sub payload queued when a
// session completes, consumed by the learning export worker.
type LearningCaptureMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
}

type LearningEntryResponse struct {
	Id          uuid.UUID `json:"id"`
	ProjectKey  string    `json:"project_key"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExportLearningResponse struct {
	SessionId uuid.UUID               `json:"session_id"`
	Entries   []LearningEntryResponse `json:"entries"`
}

type ListLearningResponse struct {
	Entries []LearningEntryResponse `json:"entries"`
	Total   int                     `json:"total"`
}
