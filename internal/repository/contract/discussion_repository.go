package contract

import (
	"context"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DiscussionRepository interface {
	CreateTurn(ctx context.Context, turn *entity.DiscussionTurn) error
	FindTurns(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscussionTurn, error)
	DeleteTurnsByFindingId(ctx context.Context, findingId uuid.UUID) error

	CreateRevision(ctx context.Context, revision *entity.RevisionRecord) error
	FindRevisions(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionRecord, error)

	CreateArchive(ctx context.Context, archive *entity.DiscussionArchive) error
	FindArchives(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscussionArchive, error)
}
