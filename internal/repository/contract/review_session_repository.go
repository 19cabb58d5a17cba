package contract

import (
	"context"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ReviewSessionRepository interface {
	Create(ctx context.Context, session *entity.ReviewSession) error
	Update(ctx context.Context, session *entity.ReviewSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ReviewSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReviewSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
