package model

import (
	"time"

	"github.com/google/uuid"
)

type LearningEntry struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	ProjectKey  string    `gorm:"type:text;not null;index"`
	Category    string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (LearningEntry) TableName() string {
	return "learning_entries"
}
