package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReviewSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	ProjectKey   string
	DocumentPath string
	DocumentHash string
	Model        string
	LensWeights  map[string]float64
	Status       string
	CurrentIndex int
	CreatedAt    time.Time
	CompletedAt  *time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
