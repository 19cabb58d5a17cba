package statemachine

import (
	"testing"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingFinding() *entity.Finding {
	return &entity.Finding{
		Number:   1,
		Severity: constant.SeverityMajor,
		Evidence: "original evidence",
		Status:   constant.FindingStatusPending,
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(constant.FindingStatusAccepted))
	assert.True(t, IsTerminal(constant.FindingStatusRejected))
	assert.True(t, IsTerminal(constant.FindingStatusWithdrawn))
	assert.False(t, IsTerminal(constant.FindingStatusPending))
	assert.False(t, IsTerminal(constant.FindingStatusDiscussed))
	assert.False(t, IsTerminal(constant.FindingStatusRevised))
	assert.False(t, IsTerminal(constant.FindingStatusEscalated))
	assert.False(t, IsTerminal(constant.FindingStatusConceded))
}

func TestAcceptFromPending(t *testing.T) {
	f := pendingFinding()
	require.NoError(t, Accept(f, "agreed"))
	assert.Equal(t, constant.FindingStatusAccepted, f.Status)
	assert.Equal(t, "agreed", f.AuthorResponse)
}

func TestAcceptOnlyLegalFromPending(t *testing.T) {
	for _, status := range []string{
		constant.FindingStatusAccepted,
		constant.FindingStatusRejected,
		constant.FindingStatusDiscussed,
		constant.FindingStatusRevised,
		constant.FindingStatusWithdrawn,
	} {
		f := pendingFinding()
		f.Status = status
		before := *f

		err := Accept(f, "note")
		assert.Equal(t, apperrors.KindIllegalStatusTransition, apperrors.KindOf(err), "from %s", status)
		assert.Equal(t, before, *f, "finding must be unchanged after illegal accept from %s", status)
	}
}

func TestRejectRecordsReason(t *testing.T) {
	f := pendingFinding()
	require.NoError(t, Reject(f, "intentional fragment"))
	assert.Equal(t, constant.FindingStatusRejected, f.Status)
	assert.Equal(t, "intentional fragment", f.OutcomeReason)
}

func TestApplyDecisionStatusOnlyAppendsNoRevision(t *testing.T) {
	f := pendingFinding()
	record, err := ApplyDecision(f, constant.FindingStatusDiscussed, "", "", time.Now())
	require.NoError(t, err)
	assert.Nil(t, record, "pure status flip must not append a revision record")
	assert.Equal(t, constant.FindingStatusDiscussed, f.Status)
}

func TestApplyDecisionWithContentChangeAppendsRevision(t *testing.T) {
	f := pendingFinding()
	now := time.Now()
	record, err := ApplyDecision(f, constant.FindingStatusRevised, constant.SeverityMinor, "softer claim", now)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, constant.SeverityMajor, record.SeverityBefore)
	assert.Equal(t, constant.SeverityMinor, record.SeverityAfter)
	assert.Equal(t, "original evidence", record.EvidenceBefore)
	assert.Equal(t, "softer claim", record.EvidenceAfter)
	assert.Equal(t, constant.SeverityMinor, f.Severity)
	assert.Equal(t, "softer claim", f.Evidence)
	assert.Equal(t, constant.FindingStatusRevised, f.Status)
}

func TestApplyDecisionUnchangedContentAppendsNoRevision(t *testing.T) {
	f := pendingFinding()
	record, err := ApplyDecision(f, constant.FindingStatusRevised, constant.SeverityMajor, "original evidence", time.Now())
	require.NoError(t, err)
	assert.Nil(t, record, "identical severity and evidence are not a content change")
}

func TestApplyDecisionIgnoresUnknownSeverity(t *testing.T) {
	f := pendingFinding()
	record, err := ApplyDecision(f, constant.FindingStatusDiscussed, "blocker", "", time.Now())
	require.NoError(t, err)
	assert.Nil(t, record, "an out-of-domain severity is not a content change")
	assert.Equal(t, constant.SeverityMajor, f.Severity)
	assert.Equal(t, constant.FindingStatusDiscussed, f.Status)
}

func TestApplyDecisionRejectedTargets(t *testing.T) {
	for _, target := range []string{constant.FindingStatusAccepted, constant.FindingStatusRejected, "bogus"} {
		f := pendingFinding()
		before := *f
		_, err := ApplyDecision(f, target, "", "", time.Now())
		assert.Equal(t, apperrors.KindIllegalStatusTransition, apperrors.KindOf(err), "target %s", target)
		assert.Equal(t, before, *f)
	}
}

func TestApplyDecisionFromTerminalFails(t *testing.T) {
	f := pendingFinding()
	f.Status = constant.FindingStatusAccepted
	before := *f

	_, err := ApplyDecision(f, constant.FindingStatusDiscussed, "", "", time.Now())
	assert.Equal(t, apperrors.KindIllegalStatusTransition, apperrors.KindOf(err))
	assert.Equal(t, before, *f)
}

func TestApplyDecisionIntermediateStaysOpen(t *testing.T) {
	f := pendingFinding()
	f.Status = constant.FindingStatusDiscussed

	_, err := ApplyDecision(f, constant.FindingStatusConceded, "", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, constant.FindingStatusConceded, f.Status)

	_, err = ApplyDecision(f, constant.FindingStatusWithdrawn, "", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, constant.FindingStatusWithdrawn, f.Status)
}

func TestApplyReEvaluationWithdrawsResolvedFinding(t *testing.T) {
	f := pendingFinding()
	f.Number = 4
	record := ApplyReEvaluation(f, false, entity.Anchor{}, "", "", nil, time.Now())
	assert.Nil(t, record)
	assert.Equal(t, constant.FindingStatusWithdrawn, f.Status)
	assert.Equal(t, 4, f.Number, "identity must survive re-evaluation")
}

func TestApplyReEvaluationRefreshesContent(t *testing.T) {
	start, end := 10, 11
	f := pendingFinding()
	f.Stale = true

	record := ApplyReEvaluation(f, true,
		entity.Anchor{Location: "sec 2", AnchorText: "new span", LineStart: &start, LineEnd: &end},
		constant.SeverityMinor, "refreshed evidence", []string{"option A"}, time.Now())

	require.NotNil(t, record)
	assert.Equal(t, constant.SeverityMinor, f.Severity)
	assert.Equal(t, "refreshed evidence", f.Evidence)
	assert.Equal(t, "new span", f.Anchor.AnchorText)
	assert.Equal(t, []string{"option A"}, f.SuggestedOptions)
	assert.False(t, f.Stale)
	assert.Equal(t, 1, f.Number)
}

func TestApplyReEvaluationIgnoresUnknownSeverity(t *testing.T) {
	f := pendingFinding()
	record := ApplyReEvaluation(f, true, entity.Anchor{}, "blocker", "", nil, time.Now())
	assert.Nil(t, record)
	assert.Equal(t, constant.SeverityMajor, f.Severity)
}
