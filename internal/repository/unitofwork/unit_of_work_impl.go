package unitofwork

import (
	"context"
	"fmt"

	"ai-docreview-be/internal/repository/contract"
	"ai-docreview-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ReviewSessionRepository() contract.ReviewSessionRepository {
	return implementation.NewReviewSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FindingRepository() contract.FindingRepository {
	return implementation.NewFindingRepository(u.getDB())
}

func (u *UnitOfWorkImpl) DiscussionRepository() contract.DiscussionRepository {
	return implementation.NewDiscussionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LearningEntryRepository() contract.LearningEntryRepository {
	return implementation.NewLearningEntryRepository(u.getDB())
}
