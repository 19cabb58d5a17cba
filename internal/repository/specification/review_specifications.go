package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByFindingID struct {
	FindingID uuid.UUID
}

func (s ByFindingID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("finding_id = ?", s.FindingID)
}

type ByProjectKey struct {
	ProjectKey string
}

func (s ByProjectKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_key = ?", s.ProjectKey)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

type ByNumber struct {
	Number int
}

func (s ByNumber) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("number = ?", s.Number)
}
