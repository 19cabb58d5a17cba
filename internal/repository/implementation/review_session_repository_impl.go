package implementation

import (
	"context"
	"errors"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/mapper"
	"ai-docreview-be/internal/model"
	"ai-docreview-be/internal/repository/contract"
	"ai-docreview-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReviewMapper
}

func NewReviewSessionRepository(db *gorm.DB) contract.ReviewSessionRepository {
	return &ReviewSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewReviewMapper(),
	}
}

func (r *ReviewSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReviewSessionRepositoryImpl) Create(ctx context.Context, session *entity.ReviewSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ReviewSessionRepositoryImpl) Update(ctx context.Context, session *entity.ReviewSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ReviewSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ReviewSession{}, id).Error
}

func (r *ReviewSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ReviewSession, error) {
	var m model.ReviewSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ReviewSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReviewSession, error) {
	var models []*model.ReviewSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ReviewSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *ReviewSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ReviewSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
