// Package statemachine owns the legal status transitions of a finding
// and their side effects. Accept and reject are explicit author
// actions; every other transition arrives as a discussion decision.
package statemachine

import (
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
)

var terminalStatuses = map[string]bool{
	constant.FindingStatusAccepted:  true,
	constant.FindingStatusRejected:  true,
	constant.FindingStatusWithdrawn: true,
}

// decisionStatuses are the targets a discussion decision may request.
// accepted and rejected are reserved for the author.
var decisionStatuses = map[string]bool{
	constant.FindingStatusDiscussed: true,
	constant.FindingStatusRevised:   true,
	constant.FindingStatusEscalated: true,
	constant.FindingStatusConceded:  true,
	constant.FindingStatusWithdrawn: true,
}

var severities = map[string]bool{
	constant.SeverityCritical: true,
	constant.SeverityMajor:    true,
	constant.SeverityMinor:    true,
}

// IsTerminal reports whether a finding in this status is settled and
// counts toward session completion.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// Accept marks a pending finding as accepted by the author.
func Accept(f *entity.Finding, note string) error {
	if f.Status != constant.FindingStatusPending {
		return apperrors.IllegalStatusTransition(f.Status, constant.FindingStatusAccepted)
	}
	f.Status = constant.FindingStatusAccepted
	f.AuthorResponse = note
	return nil
}

// Reject marks a pending finding as rejected, recording the author's
// reason. The reason feeds learning export later.
func Reject(f *entity.Finding, reason string) error {
	if f.Status != constant.FindingStatusPending {
		return apperrors.IllegalStatusTransition(f.Status, constant.FindingStatusRejected)
	}
	f.Status = constant.FindingStatusRejected
	f.AuthorResponse = reason
	f.OutcomeReason = reason
	return nil
}

// ApplyDecision applies a discussion decision to the finding: an
// optional status move plus optional severity/evidence revisions. A
// RevisionRecord is returned only when severity or evidence actually
// changed; pure status flips return nil. On an illegal transition the
// finding is left untouched.
func ApplyDecision(f *entity.Finding, status, severityChange, newEvidence string, now time.Time) (*entity.RevisionRecord, error) {
	if status != "" {
		if IsTerminal(f.Status) || !decisionStatuses[status] {
			return nil, apperrors.IllegalStatusTransition(f.Status, status)
		}
	} else if IsTerminal(f.Status) {
		return nil, apperrors.IllegalStatusTransition(f.Status, f.Status)
	}

	// A severity outside the known set is model noise, not a revision.
	var record *entity.RevisionRecord
	severityChanged := severities[severityChange] && severityChange != f.Severity
	evidenceChanged := newEvidence != "" && newEvidence != f.Evidence
	if severityChanged || evidenceChanged {
		record = &entity.RevisionRecord{
			FindingId:      f.Id,
			Reason:         "discussion decision",
			SeverityBefore: f.Severity,
			SeverityAfter:  f.Severity,
			EvidenceBefore: f.Evidence,
			EvidenceAfter:  f.Evidence,
			CreatedAt:      now,
		}
		if severityChanged {
			f.Severity = severityChange
			record.SeverityAfter = severityChange
		}
		if evidenceChanged {
			f.Evidence = newEvidence
			record.EvidenceAfter = newEvidence
		}
	}

	if status != "" {
		f.Status = status
	}
	return record, nil
}

// ApplyReEvaluation refreshes a finding's content after a document
// edit. This is the one path allowed to touch a settled finding: it
// updates content, never identity, and withdraws findings the edit
// resolved. A RevisionRecord is returned when severity or evidence
// changed.
func ApplyReEvaluation(f *entity.Finding, stillValid bool, anchor entity.Anchor, severity, evidence string, options []string, now time.Time) *entity.RevisionRecord {
	if !stillValid {
		f.Status = constant.FindingStatusWithdrawn
		f.Stale = false
		f.OutcomeReason = "resolved by document edit"
		return nil
	}

	var record *entity.RevisionRecord
	severityChanged := severities[severity] && severity != f.Severity
	evidenceChanged := evidence != "" && evidence != f.Evidence
	if severityChanged || evidenceChanged {
		record = &entity.RevisionRecord{
			FindingId:      f.Id,
			Reason:         "re-evaluation after document edit",
			SeverityBefore: f.Severity,
			SeverityAfter:  f.Severity,
			EvidenceBefore: f.Evidence,
			EvidenceAfter:  f.Evidence,
			CreatedAt:      now,
		}
		if severityChanged {
			f.Severity = severity
			record.SeverityAfter = severity
		}
		if evidenceChanged {
			f.Evidence = evidence
			record.EvidenceAfter = evidence
		}
	}

	if anchor.AnchorText != "" {
		f.Anchor = anchor
	}
	if len(options) > 0 {
		f.SuggestedOptions = options
	}
	f.Stale = false
	return record
}
