package contract

import (
	"context"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LearningEntryRepository interface {
	Create(ctx context.Context, entry *entity.LearningEntry) error
	CreateBatch(ctx context.Context, entries []*entity.LearningEntry) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LearningEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
