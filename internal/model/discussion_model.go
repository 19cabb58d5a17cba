package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DiscussionTurn struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FindingId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DiscussionTurn) TableName() string {
	return "discussion_turns"
}

type RevisionRecord struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FindingId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Reason         string    `gorm:"type:text;not null"`
	SeverityBefore string    `gorm:"type:text"`
	SeverityAfter  string    `gorm:"type:text"`
	EvidenceBefore string    `gorm:"type:text"`
	EvidenceAfter  string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (RevisionRecord) TableName() string {
	return "revision_records"
}

type DiscussionArchive struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FindingId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	FindingSnapshot datatypes.JSON `gorm:"type:jsonb;not null"`
	ArchivedTurns   datatypes.JSON `gorm:"type:jsonb;not null"`
	TransitionNote  string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (DiscussionArchive) TableName() string {
	return "discussion_archives"
}
