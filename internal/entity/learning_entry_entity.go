package entity

import (
	"time"

	"github.com/google/uuid"
)

type LearningEntry struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	ProjectKey  string
	Category    string
	Description string
	CreatedAt   time.Time
}
