package contract

import (
	"context"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FindingRepository interface {
	Create(ctx context.Context, finding *entity.Finding) error
	CreateBatch(ctx context.Context, findings []*entity.Finding) error
	Update(ctx context.Context, finding *entity.Finding) error
	UpdateBatch(ctx context.Context, findings []*entity.Finding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Finding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Finding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
