package unitofwork

import (
	"context"

	"ai-docreview-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ReviewSessionRepository() contract.ReviewSessionRepository
	FindingRepository() contract.FindingRepository
	DiscussionRepository() contract.DiscussionRepository
	LearningEntryRepository() contract.LearningEntryRepository
}
