package service

import (
	"context"
	"fmt"
	"strings"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/pkg/logger"
	"ai-docreview-be/internal/repository/specification"
	"ai-docreview-be/internal/repository/unitofwork"
	"ai-docreview-be/pkg/events"
	"ai-docreview-be/pkg/reasoning"

	"github.com/google/uuid"
)

// LearningExporter is the reasoning call the learning service needs.
type LearningExporter interface {
	ExportLearning(ctx context.Context, outcomeLog string) ([]reasoning.LearningItem, error)
}

// ILearningService turns finished review sessions into durable
// calibration notes: what the author accepts, rejects, and argues about.
type ILearningService interface {
	ExportLearning(ctx context.Context, userId uuid.UUID, request *dto.ExportLearningRequest) (*dto.ExportLearningResponse, error)
	ListLearningEntries(ctx context.Context, userId uuid.UUID, projectKey string) (*dto.ListLearningResponse, error)
	DeleteLearningEntry(ctx context.Context, userId uuid.UUID, entryId uuid.UUID) error
}

type learningService struct {
	uowFactory unitofwork.RepositoryFactory
	runner     *unitofwork.TransactionRunner
	exporter   LearningExporter
	publisher  EventPublisher
	log        logger.ILogger
}

func NewLearningService(
	uowFactory unitofwork.RepositoryFactory,
	runner *unitofwork.TransactionRunner,
	exporter LearningExporter,
	publisher EventPublisher,
	log logger.ILogger,
) ILearningService {
	return &learningService{
		uowFactory: uowFactory,
		runner:     runner,
		exporter:   exporter,
		publisher:  publisher,
		log:        log,
	}
}

func (ls *learningService) ExportLearning(ctx context.Context, userId uuid.UUID, request *dto.ExportLearningRequest) (*dto.ExportLearningResponse, error) {
	uow := ls.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ReviewSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.SessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("session")
	}

	findings, err := uow.FindingRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "number"},
	)
	if err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return &dto.ExportLearningResponse{SessionId: session.Id}, nil
	}

	outcomeLog, err := ls.buildOutcomeLog(ctx, uow, findings)
	if err != nil {
		return nil, err
	}

	items, err := ls.exporter.ExportLearning(ctx, outcomeLog)
	if err != nil {
		return nil, err
	}

	entries := make([]*entity.LearningEntry, 0, len(items))
	for _, item := range items {
		if !constant.LearningCategories[item.Category] {
			ls.log.Warn("learning", "dropping entry with unknown category", map[string]interface{}{
				"category": item.Category,
			})
			continue
		}
		entries = append(entries, &entity.LearningEntry{
			UserId:      userId,
			ProjectKey:  session.ProjectKey,
			Category:    item.Category,
			Description: item.Description,
		})
	}

	err = ls.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		return uow.LearningEntryRepository().CreateBatch(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	if ls.publisher != nil {
		event := events.NewLearningExported(session.Id.String(), userId.String(), len(entries))
		if err := ls.publisher.Publish(ctx, event); err != nil {
			ls.log.Warn("learning", "event publish failed", map[string]interface{}{
				"session": session.Id.String(),
				"error":   err.Error(),
			})
		}
	}

	response := &dto.ExportLearningResponse{SessionId: session.Id}
	for _, entry := range entries {
		response.Entries = append(response.Entries, toLearningEntryResponse(entry))
	}
	return response, nil
}

func (ls *learningService) ListLearningEntries(ctx context.Context, userId uuid.UUID, projectKey string) (*dto.ListLearningResponse, error) {
	uow := ls.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if projectKey != "" {
		specs = append(specs, specification.ByProjectKey{ProjectKey: projectKey})
	}
	entries, err := uow.LearningEntryRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	response := &dto.ListLearningResponse{Total: len(entries)}
	for _, entry := range entries {
		response.Entries = append(response.Entries, toLearningEntryResponse(entry))
	}
	return response, nil
}

func (ls *learningService) DeleteLearningEntry(ctx context.Context, userId uuid.UUID, entryId uuid.UUID) error {
	uow := ls.uowFactory.NewUnitOfWork(ctx)
	entry, err := uow.LearningEntryRepository().FindOne(ctx,
		specification.ByID{ID: entryId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return err
	}
	if entry == nil {
		return apperrors.NotFound("learning entry")
	}

	return ls.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		return uow.LearningEntryRepository().Delete(ctx, entry.Id)
	})
}

// buildOutcomeLog flattens each finding's final state and any
// discussion into the plain-text log the export prompt consumes.
func (ls *learningService) buildOutcomeLog(ctx context.Context, uow unitofwork.UnitOfWork, findings []*entity.Finding) (string, error) {
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "finding #%d [%s] %s: %s -> %s", f.Number, f.Severity, f.Anchor.Location, f.Evidence, f.Status)
		if f.OutcomeReason != "" {
			fmt.Fprintf(&b, " (%s)", f.OutcomeReason)
		}
		if f.AuthorResponse != "" {
			fmt.Fprintf(&b, " author: %s", f.AuthorResponse)
		}
		if f.Ambiguous {
			b.WriteString(" [ambiguous]")
		}
		b.WriteString("\n")

		turns, err := uow.DiscussionRepository().FindTurns(ctx,
			specification.ByFindingID{FindingID: f.Id},
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return "", err
		}
		for _, turn := range turns {
			fmt.Fprintf(&b, "  %s: %s\n", turn.Role, turn.Content)
		}
	}
	return b.String(), nil
}

func toLearningEntryResponse(entry *entity.LearningEntry) dto.LearningEntryResponse {
	return dto.LearningEntryResponse{
		Id:          entry.Id,
		ProjectKey:  entry.ProjectKey,
		Category:    entry.Category,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
}
