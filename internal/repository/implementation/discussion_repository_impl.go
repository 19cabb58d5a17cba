package implementation

import (
	"context"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/mapper"
	"ai-docreview-be/internal/model"
	"ai-docreview-be/internal/repository/contract"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscussionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReviewMapper
}

func NewDiscussionRepository(db *gorm.DB) contract.DiscussionRepository {
	return &DiscussionRepositoryImpl{
		db:     db,
		mapper: mapper.NewReviewMapper(),
	}
}

func (r *DiscussionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DiscussionRepositoryImpl) CreateTurn(ctx context.Context, turn *entity.DiscussionTurn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *DiscussionRepositoryImpl) FindTurns(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscussionTurn, error) {
	var models []*model.DiscussionTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	turns := make([]*entity.DiscussionTurn, len(models))
	for i, m := range models {
		turns[i] = r.mapper.TurnToEntity(m)
	}
	return turns, nil
}

func (r *DiscussionRepositoryImpl) DeleteTurnsByFindingId(ctx context.Context, findingId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("finding_id = ?", findingId).Delete(&model.DiscussionTurn{}).Error
}

func (r *DiscussionRepositoryImpl) CreateRevision(ctx context.Context, revision *entity.RevisionRecord) error {
	m := r.mapper.RevisionToModel(revision)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*revision = *r.mapper.RevisionToEntity(m)
	return nil
}

func (r *DiscussionRepositoryImpl) FindRevisions(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionRecord, error) {
	var models []*model.RevisionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	revisions := make([]*entity.RevisionRecord, len(models))
	for i, m := range models {
		revisions[i] = r.mapper.RevisionToEntity(m)
	}
	return revisions, nil
}

func (r *DiscussionRepositoryImpl) CreateArchive(ctx context.Context, archive *entity.DiscussionArchive) error {
	m := r.mapper.ArchiveToModel(archive)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*archive = *r.mapper.ArchiveToEntity(m)
	return nil
}

func (r *DiscussionRepositoryImpl) FindArchives(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscussionArchive, error) {
	var models []*model.DiscussionArchive
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	archives := make([]*entity.DiscussionArchive, len(models))
	for i, m := range models {
		archives[i] = r.mapper.ArchiveToEntity(m)
	}
	return archives, nil
}
