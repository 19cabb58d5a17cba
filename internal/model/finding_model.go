package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Finding struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId        uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:idx_findings_session_number"`
	Number           int                         `gorm:"not null;uniqueIndex:idx_findings_session_number"`
	Severity         string                      `gorm:"type:text;not null"`
	Lenses           datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Location         string                      `gorm:"type:text;not null"`
	AnchorText       string                      `gorm:"type:text;not null"`
	ContextHash      string                      `gorm:"type:text"`
	LineStart        *int
	LineEnd          *int
	Evidence         string                      `gorm:"type:text"`
	Impact           string                      `gorm:"type:text"`
	SuggestedOptions datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Ambiguous        bool                        `gorm:"not null;default:false"`
	Stale            bool                        `gorm:"not null;default:false"`
	Status           string                      `gorm:"type:text;not null;index"`
	AuthorResponse   string                      `gorm:"type:text"`
	OutcomeReason    string                      `gorm:"type:text"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (Finding) TableName() string {
	return "findings"
}
