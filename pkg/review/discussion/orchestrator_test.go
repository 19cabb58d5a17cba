package discussion

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/pkg/llm"
	"ai-docreview-be/pkg/reasoning"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReasoner returns a fixed result, optionally blocking until
// its context is cancelled to simulate a long stream.
type scriptedReasoner struct {
	mu      sync.Mutex
	result  *reasoning.DiscussionResult
	block   bool
	started chan struct{}
	calls   int
}

func (r *scriptedReasoner) DiscussFinding(ctx context.Context, f reasoning.FindingContext, history []llm.Message, message string, onToken llm.TokenHandler) (*reasoning.DiscussionResult, error) {
	r.mu.Lock()
	r.calls++
	block := r.block
	result := r.result
	started := r.started
	r.started = nil
	r.mu.Unlock()

	if onToken != nil {
		if err := onToken("partial "); err != nil {
			return nil, err
		}
	}
	if started != nil {
		close(started)
	}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return result, nil
}

func testFinding() *entity.Finding {
	return &entity.Finding{
		Id:       uuid.New(),
		Number:   1,
		Severity: constant.SeverityMajor,
		Evidence: "evidence",
		Status:   constant.FindingStatusPending,
		Anchor:   entity.Anchor{Location: "sec 1", AnchorText: "span"},
	}
}

func TestRunTurnAppliesDecisionAndBuildsTurns(t *testing.T) {
	r := &scriptedReasoner{result: &reasoning.DiscussionResult{
		Answer:   "I concede the point.",
		Decision: &reasoning.Decision{Status: constant.FindingStatusConceded},
	}}
	o := NewOrchestrator(r, time.Minute)
	f := testFinding()

	var streamed string
	result, err := o.RunTurn(context.Background(), f, nil, "why is this major?", func(token string) error {
		streamed += token
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "partial ", streamed)
	assert.Equal(t, constant.FindingStatusConceded, f.Status)
	assert.Equal(t, constant.TurnRoleUser, result.UserTurn.Role)
	assert.Equal(t, "why is this major?", result.UserTurn.Content)
	assert.Equal(t, constant.TurnRoleAssistant, result.AssistantTurn.Role)
	assert.Equal(t, "I concede the point.", result.AssistantTurn.Content)
	assert.Nil(t, result.Revision, "status flip alone appends no revision")
}

func TestRunTurnDefaultsPendingToDiscussed(t *testing.T) {
	r := &scriptedReasoner{result: &reasoning.DiscussionResult{Answer: "We talked."}}
	o := NewOrchestrator(r, time.Minute)
	f := testFinding()

	_, err := o.RunTurn(context.Background(), f, nil, "thoughts?", nil)
	require.NoError(t, err)
	assert.Equal(t, constant.FindingStatusDiscussed, f.Status)
}

func TestRunTurnRevisionRecordOnContentChange(t *testing.T) {
	r := &scriptedReasoner{result: &reasoning.DiscussionResult{
		Answer: "Revising downward.",
		Decision: &reasoning.Decision{
			Status:         constant.FindingStatusRevised,
			SeverityChange: constant.SeverityMinor,
			NewEvidence:    "weaker evidence",
		},
	}}
	o := NewOrchestrator(r, time.Minute)
	f := testFinding()

	result, err := o.RunTurn(context.Background(), f, nil, "really major?", nil)
	require.NoError(t, err)
	require.NotNil(t, result.Revision)
	assert.Equal(t, constant.SeverityMajor, result.Revision.SeverityBefore)
	assert.Equal(t, constant.SeverityMinor, result.Revision.SeverityAfter)
	assert.Equal(t, constant.SeverityMinor, f.Severity)
}

func TestRunTurnRefusesTerminalFinding(t *testing.T) {
	o := NewOrchestrator(&scriptedReasoner{}, time.Minute)
	f := testFinding()
	f.Status = constant.FindingStatusAccepted
	before := *f

	_, err := o.RunTurn(context.Background(), f, nil, "hello?", nil)
	assert.Equal(t, apperrors.KindIllegalStatusTransition, apperrors.KindOf(err))
	assert.Equal(t, before, *f)
}

func TestRunTurnTimeoutYieldsStreamTimeout(t *testing.T) {
	r := &scriptedReasoner{block: true}
	o := NewOrchestrator(r, 20*time.Millisecond)
	f := testFinding()
	before := *f

	_, err := o.RunTurn(context.Background(), f, nil, "hi", nil)
	assert.Equal(t, apperrors.KindStreamTimeout, apperrors.KindOf(err))
	assert.Equal(t, before, *f, "partial output must never be applied")
}

func TestSecondTurnCancelsInFlightStream(t *testing.T) {
	started := make(chan struct{})
	r := &scriptedReasoner{block: true, started: started}
	o := NewOrchestrator(r, time.Minute)
	f := testFinding()

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.RunTurn(context.Background(), f, nil, "first", nil)
		firstDone <- err
	}()

	<-started
	r.mu.Lock()
	r.block = false
	r.result = &reasoning.DiscussionResult{
		Answer:   "second answer",
		Decision: &reasoning.Decision{Status: constant.FindingStatusDiscussed},
	}
	r.mu.Unlock()

	_, err := o.RunTurn(context.Background(), f, nil, "second", nil)
	require.NoError(t, err)

	select {
	case firstErr := <-firstDone:
		assert.Equal(t, apperrors.KindStreamTimeout, apperrors.KindOf(firstErr),
			"cancelled first stream must surface as a stream timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("first turn never returned after being cancelled")
	}

	assert.Equal(t, constant.FindingStatusDiscussed, f.Status, "only the second turn's outcome is applied")
	assert.Equal(t, 2, r.calls)
}
