package mapper

import (
	"encoding/json"
	"time"

	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReviewMapper struct{}

func NewReviewMapper() *ReviewMapper {
	return &ReviewMapper{}
}

// Session Mappers

func (m *ReviewMapper) SessionToEntity(s *model.ReviewSession) *entity.ReviewSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	weights := map[string]float64{}
	if len(s.LensWeights) > 0 {
		// Weights were marshalled by us; a decode failure means a corrupt
		// row, treated as "no weights" rather than a hard error.
		_ = json.Unmarshal(s.LensWeights, &weights)
	}

	return &entity.ReviewSession{
		Id:           s.Id,
		UserId:       s.UserId,
		ProjectKey:   s.ProjectKey,
		DocumentPath: s.DocumentPath,
		DocumentHash: s.DocumentHash,
		Model:        s.Model,
		LensWeights:  weights,
		Status:       s.Status,
		CurrentIndex: s.CurrentIndex,
		CreatedAt:    s.CreatedAt,
		CompletedAt:  s.CompletedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *ReviewMapper) SessionToModel(s *entity.ReviewSession) *model.ReviewSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	var weights datatypes.JSON
	if len(s.LensWeights) > 0 {
		raw, _ := json.Marshal(s.LensWeights)
		weights = datatypes.JSON(raw)
	}

	return &model.ReviewSession{
		Id:           s.Id,
		UserId:       s.UserId,
		ProjectKey:   s.ProjectKey,
		DocumentPath: s.DocumentPath,
		DocumentHash: s.DocumentHash,
		Model:        s.Model,
		LensWeights:  weights,
		Status:       s.Status,
		CurrentIndex: s.CurrentIndex,
		CreatedAt:    s.CreatedAt,
		CompletedAt:  s.CompletedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

// Finding Mappers

func (m *ReviewMapper) FindingToEntity(f *model.Finding) *entity.Finding {
	if f == nil {
		return nil
	}

	var updatedAt *time.Time
	if !f.UpdatedAt.IsZero() {
		t := f.UpdatedAt
		updatedAt = &t
	}

	return &entity.Finding{
		Id:        f.Id,
		SessionId: f.SessionId,
		Number:    f.Number,
		Severity:  f.Severity,
		Lenses:    f.Lenses,
		Anchor: entity.Anchor{
			Location:    f.Location,
			AnchorText:  f.AnchorText,
			ContextHash: f.ContextHash,
			LineStart:   f.LineStart,
			LineEnd:     f.LineEnd,
		},
		Evidence:         f.Evidence,
		Impact:           f.Impact,
		SuggestedOptions: f.SuggestedOptions,
		Ambiguous:        f.Ambiguous,
		Stale:            f.Stale,
		Status:           f.Status,
		AuthorResponse:   f.AuthorResponse,
		OutcomeReason:    f.OutcomeReason,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *ReviewMapper) FindingToModel(f *entity.Finding) *model.Finding {
	if f == nil {
		return nil
	}

	var updatedAt time.Time
	if f.UpdatedAt != nil {
		updatedAt = *f.UpdatedAt
	}

	return &model.Finding{
		Id:               f.Id,
		SessionId:        f.SessionId,
		Number:           f.Number,
		Severity:         f.Severity,
		Lenses:           datatypes.NewJSONSlice(f.Lenses),
		Location:         f.Anchor.Location,
		AnchorText:       f.Anchor.AnchorText,
		ContextHash:      f.Anchor.ContextHash,
		LineStart:        f.Anchor.LineStart,
		LineEnd:          f.Anchor.LineEnd,
		Evidence:         f.Evidence,
		Impact:           f.Impact,
		SuggestedOptions: datatypes.NewJSONSlice(f.SuggestedOptions),
		Ambiguous:        f.Ambiguous,
		Stale:            f.Stale,
		Status:           f.Status,
		AuthorResponse:   f.AuthorResponse,
		OutcomeReason:    f.OutcomeReason,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

// Discussion Mappers

func (m *ReviewMapper) TurnToEntity(t *model.DiscussionTurn) *entity.DiscussionTurn {
	if t == nil {
		return nil
	}
	return &entity.DiscussionTurn{
		Id:        t.Id,
		FindingId: t.FindingId,
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (m *ReviewMapper) TurnToModel(t *entity.DiscussionTurn) *model.DiscussionTurn {
	if t == nil {
		return nil
	}
	return &model.DiscussionTurn{
		Id:        t.Id,
		FindingId: t.FindingId,
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (m *ReviewMapper) RevisionToEntity(r *model.RevisionRecord) *entity.RevisionRecord {
	if r == nil {
		return nil
	}
	return &entity.RevisionRecord{
		Id:             r.Id,
		FindingId:      r.FindingId,
		Reason:         r.Reason,
		SeverityBefore: r.SeverityBefore,
		SeverityAfter:  r.SeverityAfter,
		EvidenceBefore: r.EvidenceBefore,
		EvidenceAfter:  r.EvidenceAfter,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *ReviewMapper) RevisionToModel(r *entity.RevisionRecord) *model.RevisionRecord {
	if r == nil {
		return nil
	}
	return &model.RevisionRecord{
		Id:             r.Id,
		FindingId:      r.FindingId,
		Reason:         r.Reason,
		SeverityBefore: r.SeverityBefore,
		SeverityAfter:  r.SeverityAfter,
		EvidenceBefore: r.EvidenceBefore,
		EvidenceAfter:  r.EvidenceAfter,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *ReviewMapper) ArchiveToEntity(a *model.DiscussionArchive) *entity.DiscussionArchive {
	if a == nil {
		return nil
	}

	var snapshot entity.Finding
	_ = json.Unmarshal(a.FindingSnapshot, &snapshot)

	var turns []entity.DiscussionTurn
	_ = json.Unmarshal(a.ArchivedTurns, &turns)

	return &entity.DiscussionArchive{
		Id:              a.Id,
		FindingId:       a.FindingId,
		FindingSnapshot: snapshot,
		ArchivedTurns:   turns,
		TransitionNote:  a.TransitionNote,
		CreatedAt:       a.CreatedAt,
	}
}

func (m *ReviewMapper) ArchiveToModel(a *entity.DiscussionArchive) *model.DiscussionArchive {
	if a == nil {
		return nil
	}

	snapshot, _ := json.Marshal(a.FindingSnapshot)
	turns, _ := json.Marshal(a.ArchivedTurns)

	return &model.DiscussionArchive{
		Id:              a.Id,
		FindingId:       a.FindingId,
		FindingSnapshot: datatypes.JSON(snapshot),
		ArchivedTurns:   datatypes.JSON(turns),
		TransitionNote:  a.TransitionNote,
		CreatedAt:       a.CreatedAt,
	}
}

// Learning Mappers

func (m *ReviewMapper) LearningToEntity(l *model.LearningEntry) *entity.LearningEntry {
	if l == nil {
		return nil
	}
	return &entity.LearningEntry{
		Id:          l.Id,
		UserId:      l.UserId,
		ProjectKey:  l.ProjectKey,
		Category:    l.Category,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}

func (m *ReviewMapper) LearningToModel(l *entity.LearningEntry) *model.LearningEntry {
	if l == nil {
		return nil
	}
	return &model.LearningEntry{
		Id:          l.Id,
		UserId:      l.UserId,
		ProjectKey:  l.ProjectKey,
		Category:    l.Category,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}
