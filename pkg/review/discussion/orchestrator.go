// Package discussion runs the turn-based exchange between the author
// and the reasoning model about one finding. It owns the per-finding
// stream registry: at most one stream may be open per finding, and a
// new turn cancels any stream already in flight.
package discussion

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/pkg/llm"
	"ai-docreview-be/pkg/reasoning"
	"ai-docreview-be/pkg/review/statemachine"

	"github.com/google/uuid"
)

// Reasoner is the slice of the reasoning client a discussion needs.
type Reasoner interface {
	DiscussFinding(ctx context.Context, f reasoning.FindingContext, history []llm.Message, message string, onToken llm.TokenHandler) (*reasoning.DiscussionResult, error)
}

// TurnResult carries everything a completed turn produced. Nothing is
// persisted here; the caller writes the turns, the updated finding, and
// any revision record in one transaction.
type TurnResult struct {
	Answer        string
	Decision      *reasoning.Decision
	UserTurn      *entity.DiscussionTurn
	AssistantTurn *entity.DiscussionTurn
	Revision      *entity.RevisionRecord
}

type registration struct {
	cancel context.CancelFunc
}

type Orchestrator struct {
	reasoner Reasoner
	timeout  time.Duration

	mu     sync.Mutex
	active map[uuid.UUID]*registration
}

func NewOrchestrator(reasoner Reasoner, streamTimeout time.Duration) *Orchestrator {
	if streamTimeout <= 0 {
		streamTimeout = 3 * time.Minute
	}
	return &Orchestrator{
		reasoner: reasoner,
		timeout:  streamTimeout,
		active:   make(map[uuid.UUID]*registration),
	}
}

// acquire registers a stream for the finding, cancelling any stream
// already in flight for it.
func (o *Orchestrator) acquire(ctx context.Context, findingId uuid.UUID) (context.Context, *registration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if reg, ok := o.active[findingId]; ok {
		reg.cancel()
	}

	streamCtx, cancel := context.WithTimeout(ctx, o.timeout)
	reg := &registration{cancel: cancel}
	o.active[findingId] = reg
	return streamCtx, reg
}

func (o *Orchestrator) release(findingId uuid.UUID, reg *registration) {
	reg.cancel()
	o.mu.Lock()
	defer o.mu.Unlock()
	// Only remove our own registration; a newer turn may have replaced it.
	if o.active[findingId] == reg {
		delete(o.active, findingId)
	}
}

// RunTurn executes one discussion turn. Tokens stream through onToken
// while the model answers; once the stream completes, the decision is
// applied to the finding and the two new turns are returned. A
// cancelled or timed-out stream yields StreamTimeout and mutates
// nothing: partial output is discarded, never partially applied.
func (o *Orchestrator) RunTurn(ctx context.Context, finding *entity.Finding, history []*entity.DiscussionTurn, message string, onToken llm.TokenHandler) (*TurnResult, error) {
	if statemachine.IsTerminal(finding.Status) {
		return nil, apperrors.IllegalStatusTransition(finding.Status, constant.FindingStatusDiscussed)
	}

	streamCtx, reg := o.acquire(ctx, finding.Id)
	defer o.release(finding.Id, reg)

	result, err := o.reasoner.DiscussFinding(streamCtx, reasoning.FindingContext{
		Number:     finding.Number,
		Severity:   finding.Severity,
		Status:     finding.Status,
		Location:   finding.Anchor.Location,
		AnchorText: finding.Anchor.AnchorText,
		Evidence:   finding.Evidence,
		Impact:     finding.Impact,
	}, toMessages(history), message, onToken)
	if err != nil {
		if streamCtx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.StreamTimeout(finding.Number)
		}
		return nil, err
	}

	now := time.Now()
	turnResult := &TurnResult{
		Answer:   result.Answer,
		Decision: result.Decision,
		UserTurn: &entity.DiscussionTurn{
			FindingId: finding.Id,
			Role:      constant.TurnRoleUser,
			Content:   message,
			CreatedAt: now,
		},
		AssistantTurn: &entity.DiscussionTurn{
			FindingId: finding.Id,
			Role:      constant.TurnRoleAssistant,
			Content:   result.Answer,
			CreatedAt: now,
		},
	}

	status, severityChange, newEvidence := "", "", ""
	if result.Decision != nil {
		status = result.Decision.Status
		severityChange = result.Decision.SeverityChange
		newEvidence = result.Decision.NewEvidence
	}
	// A turn with no explicit verdict still marks a pending finding as
	// having been discussed.
	if status == "" && finding.Status == constant.FindingStatusPending {
		status = constant.FindingStatusDiscussed
	}

	revision, err := statemachine.ApplyDecision(finding, status, severityChange, newEvidence, now)
	if err != nil {
		return nil, err
	}
	turnResult.Revision = revision
	return turnResult, nil
}

func toMessages(history []*entity.DiscussionTurn) []llm.Message {
	messages := make([]llm.Message, len(history))
	for i, turn := range history {
		messages[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}
