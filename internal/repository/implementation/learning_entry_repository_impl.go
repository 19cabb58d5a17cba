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

type LearningEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReviewMapper
}

func NewLearningEntryRepository(db *gorm.DB) contract.LearningEntryRepository {
	return &LearningEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewReviewMapper(),
	}
}

func (r *LearningEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LearningEntryRepositoryImpl) Create(ctx context.Context, entry *entity.LearningEntry) error {
	m := r.mapper.LearningToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.LearningToEntity(m)
	return nil
}

func (r *LearningEntryRepositoryImpl) CreateBatch(ctx context.Context, entries []*entity.LearningEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]*model.LearningEntry, len(entries))
	for i, e := range entries {
		models[i] = r.mapper.LearningToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*entries[i] = *r.mapper.LearningToEntity(m)
	}
	return nil
}

func (r *LearningEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LearningEntry, error) {
	var m model.LearningEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.LearningToEntity(&m), nil
}

func (r *LearningEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningEntry, error) {
	var models []*model.LearningEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]*entity.LearningEntry, len(models))
	for i, m := range models {
		entries[i] = r.mapper.LearningToEntity(m)
	}
	return entries, nil
}

func (r *LearningEntryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.LearningEntry{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LearningEntryRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.LearningEntry{}, id).Error
}
