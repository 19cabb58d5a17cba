package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReviewSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	ProjectKey   string         `gorm:"type:text;not null;index"`
	DocumentPath string         `gorm:"type:text;not null"`
	DocumentHash string         `gorm:"type:text;not null"`
	Model        string         `gorm:"type:text;not null"`
	LensWeights  datatypes.JSON `gorm:"type:jsonb"`
	Status       string         `gorm:"type:text;not null;index"`
	CurrentIndex int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	CompletedAt  *time.Time
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ReviewSession) TableName() string {
	return "review_sessions"
}
