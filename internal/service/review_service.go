package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/pkg/logger"
	"ai-docreview-be/internal/repository/memory"
	"ai-docreview-be/internal/repository/specification"
	"ai-docreview-be/internal/repository/unitofwork"
	"ai-docreview-be/pkg/document"
	"ai-docreview-be/pkg/events"
	"ai-docreview-be/pkg/llm"
	"ai-docreview-be/pkg/reasoning"
	"ai-docreview-be/pkg/review/analysis"
	"ai-docreview-be/pkg/review/discussion"
	"ai-docreview-be/pkg/review/scenechange"
	"ai-docreview-be/pkg/review/statemachine"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// LearningCaptureTopic is the internal pub/sub topic a completed
// session is announced on; the learning worker consumes it.
const LearningCaptureTopic = "review.session.completed"

// Reasoner is the slice of the reasoning client the review service
// drives directly. Discussion streaming goes through the orchestrator.
type Reasoner interface {
	Analyze(ctx context.Context, lens, indexContext string, doc *document.Document) ([]reasoning.RawFinding, error)
	ReEvaluateFinding(ctx context.Context, f reasoning.FindingContext, doc *document.Document) (*reasoning.ReEvaluation, error)
}

// EventPublisher pushes lifecycle events to the external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IReviewService is the session façade: it creates and resumes review
// sessions, sequences analysis, exposes navigation, and coordinates the
// state machine, scene-change detector, and discussion orchestrator.
type IReviewService interface {
	StartAnalysis(ctx context.Context, userId uuid.UUID, request *dto.StartAnalysisRequest) (*dto.StartAnalysisResponse, error)
	Resume(ctx context.Context, userId uuid.UUID, request *dto.ResumeSessionRequest) (*dto.ResumeSessionResponse, error)

	CurrentFinding(ctx context.Context, userId, sessionId uuid.UUID) (*dto.NavigationResponse, error)
	ContinueFinding(ctx context.Context, userId, sessionId uuid.UUID) (*dto.NavigationResponse, error)
	GotoFinding(ctx context.Context, userId, sessionId uuid.UUID, index int) (*dto.NavigationResponse, error)
	SkipRemaining(ctx context.Context, userId, sessionId uuid.UUID, request *dto.SkipRemainingRequest) (*dto.NavigationResponse, error)
	MarkEdited(ctx context.Context, userId, sessionId uuid.UUID) error

	Accept(ctx context.Context, userId, findingId uuid.UUID, note string) (*dto.FindingOutcomeResponse, error)
	Reject(ctx context.Context, userId, findingId uuid.UUID, reason string) (*dto.FindingOutcomeResponse, error)
	Discuss(ctx context.Context, userId, findingId uuid.UUID, message string, onToken llm.TokenHandler) (*dto.FindingOutcomeResponse, error)
	GetDiscussionHistory(ctx context.Context, userId, findingId uuid.UUID) (*dto.DiscussionHistoryResponse, error)

	ReviewForSceneChange(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SceneReviewResponse, error)

	ListSessions(ctx context.Context, userId uuid.UUID, projectKey string) ([]*dto.SessionSummaryResponse, error)
	GetSessionDetail(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
}

type reviewService struct {
	uowFactory   unitofwork.RepositoryFactory
	runner       *unitofwork.TransactionRunner
	reasoner     Reasoner
	orchestrator *discussion.Orchestrator
	navRepo      *memory.NavStateRepository
	publisher    EventPublisher
	pubSub       *gochannel.GoChannel
	log          logger.ILogger
	loadDocument func(path string) (*document.Document, error)
}

func NewReviewService(
	uowFactory unitofwork.RepositoryFactory,
	runner *unitofwork.TransactionRunner,
	reasoner Reasoner,
	orchestrator *discussion.Orchestrator,
	navRepo *memory.NavStateRepository,
	publisher EventPublisher,
	pubSub *gochannel.GoChannel,
	log logger.ILogger,
) IReviewService {
	return &reviewService{
		uowFactory:   uowFactory,
		runner:       runner,
		reasoner:     reasoner,
		orchestrator: orchestrator,
		navRepo:      navRepo,
		publisher:    publisher,
		pubSub:       pubSub,
		log:          log,
		loadDocument: document.Load,
	}
}

// --- Analysis ---

func (rs *reviewService) StartAnalysis(ctx context.Context, userId uuid.UUID, request *dto.StartAnalysisRequest) (*dto.StartAnalysisResponse, error) {
	doc, err := rs.loadDocument(request.DocumentPath)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, apperrors.SessionPathMissing(request.DocumentPath, request.DocumentPath)
		}
		return nil, err
	}

	lenses := request.Lenses
	if len(lenses) == 0 {
		lenses = constant.DefaultLenses
	}

	// Lenses run concurrently; one lens failing degrades to zero
	// findings for that lens, never a fatal error for the session.
	results := make([]analysis.LensResult, len(lenses))
	var wg sync.WaitGroup
	for i, lens := range lenses {
		wg.Add(1)
		go func(i int, lens string) {
			defer wg.Done()
			findings, err := rs.reasoner.Analyze(ctx, lens, "", doc)
			results[i] = analysis.LensResult{Lens: lens, Findings: findings, Err: err}
			if err != nil {
				rs.log.Warn("review", "analysis lens failed", map[string]interface{}{
					"lens":  lens,
					"error": err.Error(),
				})
			}
		}(i, lens)
	}
	wg.Wait()

	findings, summary := analysis.Merge(results)
	if len(summary.FailedLenses) == len(lenses) {
		return nil, apperrors.New(apperrors.KindAnalysisFailure, "every analysis lens failed")
	}

	for _, f := range findings {
		if f.Anchor.LineStart != nil && f.Anchor.LineEnd != nil {
			f.Anchor.ContextHash = scenechange.ContextHash(doc, *f.Anchor.LineStart, *f.Anchor.LineEnd)
		}
	}

	session := &entity.ReviewSession{
		UserId:       userId,
		ProjectKey:   request.ProjectKey,
		DocumentPath: request.DocumentPath,
		DocumentHash: doc.Hash,
		Model:        request.Model,
		LensWeights:  request.LensWeights,
		Status:       constant.SessionStatusActive,
	}

	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		// A new analysis supersedes any active session on the same
		// document: at most one active session per document per project.
		stale, err := uow.ReviewSessionRepository().FindAll(ctx,
			specification.ByUserID{UserID: userId},
			specification.ByProjectKey{ProjectKey: request.ProjectKey},
			specification.ByStatus{Status: constant.SessionStatusActive},
		)
		if err != nil {
			return err
		}
		for _, old := range stale {
			if old.DocumentPath != request.DocumentPath {
				continue
			}
			old.Status = constant.SessionStatusAbandoned
			if err := uow.ReviewSessionRepository().Update(ctx, old); err != nil {
				return err
			}
		}

		if err := uow.ReviewSessionRepository().Create(ctx, session); err != nil {
			return err
		}
		for _, f := range findings {
			f.SessionId = session.Id
		}
		return uow.FindingRepository().CreateBatch(ctx, findings)
	})
	if err != nil {
		return nil, err
	}

	rs.navRepo.Save(&memory.NavState{SessionId: session.Id})
	rs.publishEvent(ctx, events.NewSessionStarted(session.Id.String(), userId.String(), session.ProjectKey, len(findings)))

	response := &dto.StartAnalysisResponse{
		SessionId:     session.Id,
		TotalFindings: len(findings),
		BySeverity: dto.SeverityCounts{
			Critical: summary.BySeverity[constant.SeverityCritical],
			Major:    summary.BySeverity[constant.SeverityMajor],
			Minor:    summary.BySeverity[constant.SeverityMinor],
		},
		ByLens:       summary.ByLens,
		FailedLenses: summary.FailedLenses,
	}
	if len(findings) > 0 {
		response.First = buildNavigation(findings, 0)
	}
	return response, nil
}

// --- Resume ---

func (rs *reviewService) Resume(ctx context.Context, userId uuid.UUID, request *dto.ResumeSessionRequest) (*dto.ResumeSessionResponse, error) {
	session, err := rs.resolveResumeSession(ctx, userId, request)
	if err != nil {
		return nil, err
	}

	path := session.DocumentPath
	if request.PathOverride != "" {
		path = request.PathOverride
	}
	doc, err := rs.loadDocument(path)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, apperrors.SessionPathMissing(session.DocumentPath, path)
		}
		return nil, err
	}

	var (
		findings []*entity.Finding
		sweep    scenechange.SweepResult
	)
	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		findings, err = rs.sessionFindings(ctx, uow, session.Id)
		if err != nil {
			return err
		}

		// Cheap adjust-only sweep; re-evaluation candidates wait for an
		// explicit scene review.
		sweep = scenechange.Sweep(findings, doc)
		if err := uow.FindingRepository().UpdateBatch(ctx, findings); err != nil {
			return err
		}

		session.DocumentPath = path
		session.DocumentHash = doc.Hash
		return uow.ReviewSessionRepository().Update(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	state, ok := rs.navRepo.Get(session.Id)
	if !ok {
		state = &memory.NavState{SessionId: session.Id, CurrentIndex: session.CurrentIndex}
	}
	state.Dirty = false
	rs.navRepo.Save(state)

	response := &dto.ResumeSessionResponse{
		SessionId:     session.Id,
		TotalFindings: len(findings),
		Remaining:     countOpen(findings),
		AdjustedCount: sweep.Adjusted + len(sweep.ReEvaluate),
		StaleCount:    sweep.Stale,
	}
	if len(findings) > 0 {
		response.Current = buildNavigation(findings, clampIndex(state.CurrentIndex, len(findings)))
	}
	return response, nil
}

// resolveResumeSession finds the session to resume: directly by id, or
// the most recent active session for the given document identity.
func (rs *reviewService) resolveResumeSession(ctx context.Context, userId uuid.UUID, request *dto.ResumeSessionRequest) (*entity.ReviewSession, error) {
	if request.SessionId != uuid.Nil {
		session, err := rs.loadOwnedSession(ctx, userId, request.SessionId)
		if err != nil {
			return nil, err
		}
		if session.Status != constant.SessionStatusActive {
			return nil, apperrors.Validation("session is not active")
		}
		return session, nil
	}

	if request.ProjectKey == "" || request.DocumentPath == "" {
		return nil, apperrors.Validation("session_id or project_key with document_path is required")
	}

	uow := rs.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.ReviewSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.ByProjectKey{ProjectKey: request.ProjectKey},
		specification.ByStatus{Status: constant.SessionStatusActive},
	)
	if err != nil {
		return nil, err
	}
	var latest *entity.ReviewSession
	for _, s := range candidates {
		if s.DocumentPath != request.DocumentPath {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound("active session")
	}
	return latest, nil
}

// --- Navigation ---

func (rs *reviewService) CurrentFinding(ctx context.Context, userId, sessionId uuid.UUID) (*dto.NavigationResponse, error) {
	session, findings, err := rs.loadSessionAndFindings(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	state := rs.navState(session)
	if err := rs.sweepIfDirty(ctx, session, findings, state); err != nil {
		return nil, err
	}
	return buildNavigation(findings, clampIndex(state.CurrentIndex, len(findings))), nil
}

func (rs *reviewService) ContinueFinding(ctx context.Context, userId, sessionId uuid.UUID) (*dto.NavigationResponse, error) {
	session, findings, err := rs.loadSessionAndFindings(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	state := rs.navState(session)
	if err := rs.sweepIfDirty(ctx, session, findings, state); err != nil {
		return nil, err
	}

	next, ok := nextOpenIndex(findings, state.CurrentIndex)
	if !ok {
		return &dto.NavigationResponse{Total: len(findings), Complete: true}, nil
	}
	state.CurrentIndex = next
	rs.navRepo.Save(state)
	rs.persistIndex(ctx, session, next)
	return buildNavigation(findings, next), nil
}

func (rs *reviewService) GotoFinding(ctx context.Context, userId, sessionId uuid.UUID, index int) (*dto.NavigationResponse, error) {
	session, findings, err := rs.loadSessionAndFindings(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(findings) {
		return nil, apperrors.IndexOutOfRange(index, len(findings))
	}
	state := rs.navState(session)
	if err := rs.sweepIfDirty(ctx, session, findings, state); err != nil {
		return nil, err
	}
	state.CurrentIndex = index
	rs.navRepo.Save(state)
	rs.persistIndex(ctx, session, index)
	return buildNavigation(findings, index), nil
}

func (rs *reviewService) SkipRemaining(ctx context.Context, userId, sessionId uuid.UUID, request *dto.SkipRemainingRequest) (*dto.NavigationResponse, error) {
	session, findings, err := rs.loadSessionAndFindings(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	state := rs.navState(session)

	matches := func(f *entity.Finding) bool {
		if request.Severity != "" && f.Severity != request.Severity {
			return false
		}
		if request.Lens != "" && !hasLens(f, request.Lens) {
			return false
		}
		if request.Stale != nil && f.Stale != *request.Stale {
			return false
		}
		return true
	}

	// Advance past matching findings without touching their status.
	index := state.CurrentIndex
	for index < len(findings) && (statemachine.IsTerminal(findings[index].Status) || matches(findings[index])) {
		index++
	}
	if index >= len(findings) {
		return &dto.NavigationResponse{Total: len(findings), Complete: countOpen(findings) == 0}, nil
	}
	state.CurrentIndex = index
	rs.navRepo.Save(state)
	rs.persistIndex(ctx, session, index)
	return buildNavigation(findings, index), nil
}

// MarkEdited flags the session dirty after an external edit
// notification; the next navigation runs the cheap sweep first.
func (rs *reviewService) MarkEdited(ctx context.Context, userId, sessionId uuid.UUID) error {
	session, err := rs.loadOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	state := rs.navState(session)
	state.Dirty = true
	rs.navRepo.Save(state)
	return nil
}

// --- Status transitions ---

func (rs *reviewService) Accept(ctx context.Context, userId, findingId uuid.UUID, note string) (*dto.FindingOutcomeResponse, error) {
	return rs.settle(ctx, userId, findingId, func(f *entity.Finding) error {
		return statemachine.Accept(f, note)
	})
}

func (rs *reviewService) Reject(ctx context.Context, userId, findingId uuid.UUID, reason string) (*dto.FindingOutcomeResponse, error) {
	return rs.settle(ctx, userId, findingId, func(f *entity.Finding) error {
		return statemachine.Reject(f, reason)
	})
}

func (rs *reviewService) settle(ctx context.Context, userId, findingId uuid.UUID, transition func(*entity.Finding) error) (*dto.FindingOutcomeResponse, error) {
	var (
		session   *entity.ReviewSession
		finding   *entity.Finding
		findings  []*entity.Finding
		oldStatus string
	)
	err := rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		var err error
		session, finding, err = rs.loadOwnedFinding(ctx, uow, userId, findingId)
		if err != nil {
			return err
		}
		oldStatus = finding.Status
		if err := transition(finding); err != nil {
			return err
		}
		if err := uow.FindingRepository().Update(ctx, finding); err != nil {
			return err
		}
		findings, err = rs.sessionFindings(ctx, uow, session.Id)
		if err != nil {
			return err
		}
		return rs.completeIfSettled(ctx, uow, session, findings)
	})
	if err != nil {
		return nil, err
	}

	rs.afterStatusChange(ctx, session, finding, oldStatus)
	return rs.buildOutcome(session, finding, findings), nil
}

// --- Discussion ---

func (rs *reviewService) Discuss(ctx context.Context, userId, findingId uuid.UUID, message string, onToken llm.TokenHandler) (*dto.FindingOutcomeResponse, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	session, finding, err := rs.loadOwnedFinding(ctx, uow, userId, findingId)
	if err != nil {
		return nil, err
	}
	history, err := uow.DiscussionRepository().FindTurns(ctx,
		specification.ByFindingID{FindingID: findingId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	oldStatus := finding.Status

	// The stream runs outside any transaction; nothing is persisted
	// until the turn completes, so a cancelled stream leaves no trace.
	turn, err := rs.orchestrator.RunTurn(ctx, finding, history, message, onToken)
	if err != nil {
		return nil, err
	}

	var findings []*entity.Finding
	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.DiscussionRepository().CreateTurn(ctx, turn.UserTurn); err != nil {
			return err
		}
		if err := uow.DiscussionRepository().CreateTurn(ctx, turn.AssistantTurn); err != nil {
			return err
		}
		if turn.Revision != nil {
			if err := uow.DiscussionRepository().CreateRevision(ctx, turn.Revision); err != nil {
				return err
			}
		}
		if err := uow.FindingRepository().Update(ctx, finding); err != nil {
			return err
		}
		var err error
		findings, err = rs.sessionFindings(ctx, uow, session.Id)
		if err != nil {
			return err
		}
		return rs.completeIfSettled(ctx, uow, session, findings)
	})
	if err != nil {
		return nil, err
	}

	rs.afterStatusChange(ctx, session, finding, oldStatus)
	return rs.buildOutcome(session, finding, findings), nil
}

func (rs *reviewService) GetDiscussionHistory(ctx context.Context, userId, findingId uuid.UUID) (*dto.DiscussionHistoryResponse, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	if _, _, err := rs.loadOwnedFinding(ctx, uow, userId, findingId); err != nil {
		return nil, err
	}
	turns, err := uow.DiscussionRepository().FindTurns(ctx,
		specification.ByFindingID{FindingID: findingId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	response := &dto.DiscussionHistoryResponse{FindingId: findingId}
	for _, turn := range turns {
		response.Turns = append(response.Turns, dto.DiscussionTurnResponse{
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		})
	}
	return response, nil
}

// --- Scene change ---

func (rs *reviewService) ReviewForSceneChange(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SceneReviewResponse, error) {
	session, err := rs.loadOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	doc, err := rs.loadDocument(session.DocumentPath)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, apperrors.SessionPathMissing(session.DocumentPath, session.DocumentPath)
		}
		return nil, err
	}

	uow := rs.uowFactory.NewUnitOfWork(ctx)
	findings, err := rs.sessionFindings(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	sweep := scenechange.Sweep(findings, doc)

	// Each re-evaluation costs one reasoning call; this only ever runs
	// on this explicit review or on resume, never during navigation.
	response := &dto.SceneReviewResponse{
		AdjustedCount: sweep.Adjusted,
		StaleCount:    sweep.Stale,
	}
	revisions := make([]*entity.RevisionRecord, 0, len(sweep.ReEvaluate))
	archives := make([]*entity.DiscussionArchive, 0)
	for _, f := range sweep.ReEvaluate {
		// Freeze the pre-edit finding and its discussion before the
		// re-evaluation rewrites content; the archive keeps the history
		// the author already reacted to.
		archive, err := rs.archiveDiscussion(ctx, uow, f)
		if err != nil {
			return nil, err
		}

		re, err := rs.reasoner.ReEvaluateFinding(ctx, reasoning.FindingContext{
			Number:     f.Number,
			Severity:   f.Severity,
			Status:     f.Status,
			Location:   f.Anchor.Location,
			AnchorText: f.Anchor.AnchorText,
			Evidence:   f.Evidence,
		}, doc)
		if err != nil {
			// Degrade per finding: keep the adjusted anchor, note the
			// failure, move on.
			rs.log.Warn("review", "re-evaluation failed", map[string]interface{}{
				"finding": f.Number,
				"error":   err.Error(),
			})
			response.AdjustedCount++
			continue
		}

		anchor := entity.Anchor{
			Location:   f.Anchor.Location,
			AnchorText: re.AnchorText,
			LineStart:  re.LineStart,
			LineEnd:    re.LineEnd,
		}
		if re.AnchorText != "" && re.LineStart != nil && re.LineEnd != nil {
			anchor.ContextHash = scenechange.ContextHash(doc, *re.LineStart, *re.LineEnd)
		}
		record := statemachine.ApplyReEvaluation(f, re.StillValid, anchor, re.Severity, re.Evidence, re.SuggestedOptions, time.Now())
		if record != nil {
			revisions = append(revisions, record)
		}
		if archive != nil && (record != nil || !re.StillValid) {
			archives = append(archives, archive)
		}
		if f.Status == constant.FindingStatusWithdrawn {
			response.Withdrawn = append(response.Withdrawn, f.Number)
		}
		response.ReEvaluated = append(response.ReEvaluated, *toFindingResponse(f))
	}

	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.FindingRepository().UpdateBatch(ctx, findings); err != nil {
			return err
		}
		for _, record := range revisions {
			if err := uow.DiscussionRepository().CreateRevision(ctx, record); err != nil {
				return err
			}
		}
		for _, archive := range archives {
			if err := uow.DiscussionRepository().CreateArchive(ctx, archive); err != nil {
				return err
			}
		}
		return rs.completeIfSettled(ctx, uow, session, findings)
	})
	if err != nil {
		return nil, err
	}

	rs.publishEvent(ctx, events.NewSceneChangeDetected(session.Id.String(), userId.String(),
		response.AdjustedCount, response.StaleCount, len(response.ReEvaluated)))
	return response, nil
}

// archiveDiscussion snapshots a finding and its turns ahead of a
// re-evaluation. Returns nil when there is no discussion to preserve.
func (rs *reviewService) archiveDiscussion(ctx context.Context, uow unitofwork.UnitOfWork, f *entity.Finding) (*entity.DiscussionArchive, error) {
	turns, err := uow.DiscussionRepository().FindTurns(ctx,
		specification.ByFindingID{FindingID: f.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, nil
	}

	archived := make([]entity.DiscussionTurn, 0, len(turns))
	for _, turn := range turns {
		archived = append(archived, *turn)
	}
	return &entity.DiscussionArchive{
		FindingId:       f.Id,
		FindingSnapshot: *f,
		ArchivedTurns:   archived,
		TransitionNote:  "document edited; finding re-evaluated",
	}, nil
}

// --- Session management ---

func (rs *reviewService) ListSessions(ctx context.Context, userId uuid.UUID, projectKey string) ([]*dto.SessionSummaryResponse, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 100},
	}
	if projectKey != "" {
		specs = append(specs, specification.ByProjectKey{ProjectKey: projectKey})
	}
	sessions, err := uow.ReviewSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		findings, err := rs.sessionFindings(ctx, uow, session.Id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, toSessionSummary(session, findings))
	}
	return summaries, nil
}

func (rs *reviewService) GetSessionDetail(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	session, findings, err := rs.loadSessionAndFindings(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	detail := &dto.SessionDetailResponse{
		SessionSummaryResponse: *toSessionSummary(session, findings),
		Model:                  session.Model,
		DocumentHash:           session.DocumentHash,
		LensWeights:            session.LensWeights,
		CurrentIndex:           session.CurrentIndex,
	}
	for _, f := range findings {
		detail.Findings = append(detail.Findings, *toFindingResponse(f))
	}
	return detail, nil
}

func (rs *reviewService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	session, err := rs.loadOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return err
	}

	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if session.Status == constant.SessionStatusActive {
			session.Status = constant.SessionStatusAbandoned
			if err := uow.ReviewSessionRepository().Update(ctx, session); err != nil {
				return err
			}
		}
		return uow.ReviewSessionRepository().Delete(ctx, session.Id)
	})
	if err != nil {
		return err
	}

	rs.navRepo.Delete(session.Id)
	rs.publishEvent(ctx, events.NewSessionAbandoned(session.Id.String(), userId.String()))
	return nil
}

// --- Internals ---

func (rs *reviewService) loadOwnedSession(ctx context.Context, userId, sessionId uuid.UUID) (*entity.ReviewSession, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ReviewSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("session")
	}
	return session, nil
}

func (rs *reviewService) loadOwnedFinding(ctx context.Context, uow unitofwork.UnitOfWork, userId, findingId uuid.UUID) (*entity.ReviewSession, *entity.Finding, error) {
	finding, err := uow.FindingRepository().FindOne(ctx, specification.ByID{ID: findingId})
	if err != nil {
		return nil, nil, err
	}
	if finding == nil {
		return nil, nil, apperrors.NotFound("finding")
	}
	session, err := uow.ReviewSessionRepository().FindOne(ctx,
		specification.ByID{ID: finding.SessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperrors.NotFound("finding")
	}
	return session, finding, nil
}

func (rs *reviewService) loadSessionAndFindings(ctx context.Context, userId, sessionId uuid.UUID) (*entity.ReviewSession, []*entity.Finding, error) {
	session, err := rs.loadOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, nil, err
	}
	uow := rs.uowFactory.NewUnitOfWork(ctx)
	findings, err := rs.sessionFindings(ctx, uow, session.Id)
	if err != nil {
		return nil, nil, err
	}
	return session, findings, nil
}

func (rs *reviewService) sessionFindings(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]*entity.Finding, error) {
	return uow.FindingRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "number"},
	)
}

func (rs *reviewService) navState(session *entity.ReviewSession) *memory.NavState {
	state, ok := rs.navRepo.Get(session.Id)
	if !ok {
		state = &memory.NavState{SessionId: session.Id, CurrentIndex: session.CurrentIndex}
		rs.navRepo.Save(state)
	}
	return state
}

// sweepIfDirty runs the cheap anchor sweep when an external edit was
// signalled since the last navigation.
func (rs *reviewService) sweepIfDirty(ctx context.Context, session *entity.ReviewSession, findings []*entity.Finding, state *memory.NavState) error {
	if !state.Dirty {
		return nil
	}
	doc, err := rs.loadDocument(session.DocumentPath)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return apperrors.SessionPathMissing(session.DocumentPath, session.DocumentPath)
		}
		return err
	}
	scenechange.Sweep(findings, doc)
	err = rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		return uow.FindingRepository().UpdateBatch(ctx, findings)
	})
	if err != nil {
		return err
	}
	state.Dirty = false
	rs.navRepo.Save(state)
	return nil
}

func (rs *reviewService) persistIndex(ctx context.Context, session *entity.ReviewSession, index int) {
	session.CurrentIndex = index
	err := rs.runner.Run(ctx, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		return uow.ReviewSessionRepository().Update(ctx, session)
	})
	if err != nil {
		rs.log.Warn("review", "failed to persist navigation index", map[string]interface{}{
			"session": session.Id.String(),
			"error":   err.Error(),
		})
	}
}

// completeIfSettled flips the session to completed once every finding
// is terminal, and queues the learning-capture message.
func (rs *reviewService) completeIfSettled(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ReviewSession, findings []*entity.Finding) error {
	if session.Status != constant.SessionStatusActive || countOpen(findings) > 0 || len(findings) == 0 {
		return nil
	}
	now := time.Now()
	session.Status = constant.SessionStatusCompleted
	session.CompletedAt = &now
	return uow.ReviewSessionRepository().Update(ctx, session)
}

func (rs *reviewService) afterStatusChange(ctx context.Context, session *entity.ReviewSession, finding *entity.Finding, oldStatus string) {
	if finding.Status != oldStatus {
		rs.publishEvent(ctx, events.NewFindingStatusChanged(
			session.Id.String(), finding.Id.String(), session.UserId.String(),
			finding.Number, oldStatus, finding.Status))
	}
	if session.Status == constant.SessionStatusCompleted {
		rs.publishEvent(ctx, events.NewSessionCompleted(session.Id.String(), session.UserId.String()))
		rs.queueLearningCapture(session)
	}
}

func (rs *reviewService) queueLearningCapture(session *entity.ReviewSession) {
	if rs.pubSub == nil {
		return
	}
	payload, err := json.Marshal(dto.LearningCaptureMessage{
		SessionId: session.Id,
		UserId:    session.UserId,
	})
	if err != nil {
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := rs.pubSub.Publish(LearningCaptureTopic, msg); err != nil {
		rs.log.Warn("review", "failed to queue learning capture", map[string]interface{}{
			"session": session.Id.String(),
			"error":   err.Error(),
		})
	}
}

func (rs *reviewService) publishEvent(ctx context.Context, event events.Event) {
	if rs.publisher == nil {
		return
	}
	if err := rs.publisher.Publish(ctx, event); err != nil {
		rs.log.Warn("review", "event publish failed", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (rs *reviewService) buildOutcome(session *entity.ReviewSession, finding *entity.Finding, findings []*entity.Finding) *dto.FindingOutcomeResponse {
	outcome := &dto.FindingOutcomeResponse{
		Finding:       *toFindingResponse(finding),
		SessionStatus: session.Status,
	}
	if index, ok := nextOpenIndex(findings, indexOf(findings, finding.Id)); ok {
		outcome.Next = buildNavigation(findings, index)
	} else {
		outcome.Next = &dto.NavigationResponse{Total: len(findings), Complete: countOpen(findings) == 0}
	}
	return outcome
}

// --- Pure helpers ---

func clampIndex(index, total int) int {
	if index < 0 {
		return 0
	}
	if index >= total {
		return total - 1
	}
	return index
}

func countOpen(findings []*entity.Finding) int {
	open := 0
	for _, f := range findings {
		if !statemachine.IsTerminal(f.Status) {
			open++
		}
	}
	return open
}

// nextOpenIndex finds the first non-terminal finding at or after start,
// wrapping around to the beginning once.
func nextOpenIndex(findings []*entity.Finding, start int) (int, bool) {
	if len(findings) == 0 {
		return 0, false
	}
	if start < 0 {
		start = 0
	}
	for offset := 0; offset < len(findings); offset++ {
		i := (start + offset) % len(findings)
		if !statemachine.IsTerminal(findings[i].Status) {
			return i, true
		}
	}
	return 0, false
}

func indexOf(findings []*entity.Finding, id uuid.UUID) int {
	for i, f := range findings {
		if f.Id == id {
			return i
		}
	}
	return 0
}

func hasLens(f *entity.Finding, lens string) bool {
	for _, l := range f.Lenses {
		if l == lens {
			return true
		}
	}
	return false
}

func buildNavigation(findings []*entity.Finding, index int) *dto.NavigationResponse {
	remaining := countOpen(findings)
	if remaining == 0 {
		return &dto.NavigationResponse{Total: len(findings), Complete: true}
	}
	return &dto.NavigationResponse{
		Finding:   toFindingResponse(findings[index]),
		Index:     index,
		Total:     len(findings),
		Remaining: remaining,
	}
}

func toFindingResponse(f *entity.Finding) *dto.FindingResponse {
	return &dto.FindingResponse{
		Id:               f.Id,
		Number:           f.Number,
		Severity:         f.Severity,
		Lenses:           f.Lenses,
		Location:         f.Anchor.Location,
		AnchorText:       f.Anchor.AnchorText,
		LineStart:        f.Anchor.LineStart,
		LineEnd:          f.Anchor.LineEnd,
		Evidence:         f.Evidence,
		Impact:           f.Impact,
		SuggestedOptions: f.SuggestedOptions,
		Ambiguous:        f.Ambiguous,
		Stale:            f.Stale,
		Status:           f.Status,
		AuthorResponse:   f.AuthorResponse,
		OutcomeReason:    f.OutcomeReason,
	}
}

func toSessionSummary(session *entity.ReviewSession, findings []*entity.Finding) *dto.SessionSummaryResponse {
	return &dto.SessionSummaryResponse{
		Id:            session.Id,
		ProjectKey:    session.ProjectKey,
		DocumentPath:  session.DocumentPath,
		Status:        session.Status,
		TotalFindings: len(findings),
		Remaining:     countOpen(findings),
		CreatedAt:     session.CreatedAt,
		CompletedAt:   session.CompletedAt,
	}
}
