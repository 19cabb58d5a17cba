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

type FindingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReviewMapper
}

func NewFindingRepository(db *gorm.DB) contract.FindingRepository {
	return &FindingRepositoryImpl{
		db:     db,
		mapper: mapper.NewReviewMapper(),
	}
}

func (r *FindingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FindingRepositoryImpl) Create(ctx context.Context, finding *entity.Finding) error {
	m := r.mapper.FindingToModel(finding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*finding = *r.mapper.FindingToEntity(m)
	return nil
}

func (r *FindingRepositoryImpl) CreateBatch(ctx context.Context, findings []*entity.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	models := make([]*model.Finding, len(findings))
	for i, f := range findings {
		models[i] = r.mapper.FindingToModel(f)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*findings[i] = *r.mapper.FindingToEntity(m)
	}
	return nil
}

func (r *FindingRepositoryImpl) Update(ctx context.Context, finding *entity.Finding) error {
	m := r.mapper.FindingToModel(finding)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*finding = *r.mapper.FindingToEntity(m)
	return nil
}

func (r *FindingRepositoryImpl) UpdateBatch(ctx context.Context, findings []*entity.Finding) error {
	for _, f := range findings {
		if err := r.Update(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (r *FindingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Finding{}, id).Error
}

func (r *FindingRepositoryImpl) DeleteAllBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.Finding{}).Error
}

func (r *FindingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Finding, error) {
	var m model.Finding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FindingToEntity(&m), nil
}

func (r *FindingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Finding, error) {
	var models []*model.Finding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Finding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.FindingToEntity(m)
	}
	return entities, nil
}

func (r *FindingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Finding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
