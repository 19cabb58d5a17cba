// Package analysis turns per-lens reasoning output into one ordered,
// numbered finding set. Lenses run independently and often report the
// same issue; merging collapses duplicates on their anchor, unions the
// lens labels, and keeps the most severe rating.
package analysis

import (
	"sort"
	"strings"

	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/pkg/reasoning"
)

// LensResult is one lens's output, or its failure. A failed lens
// contributes zero findings; it never fails the whole analysis.
type LensResult struct {
	Lens     string
	Findings []reasoning.RawFinding
	Err      error
}

// Summary is what a merge produced, for the session-level report.
type Summary struct {
	BySeverity   map[string]int
	ByLens       map[string]int
	FailedLenses []string
}

var severityRank = map[string]int{
	constant.SeverityCritical: 3,
	constant.SeverityMajor:    2,
	constant.SeverityMinor:    1,
}

// Merge collapses per-lens results into one deduplicated, ordered,
// numbered finding set. Findings sharing an anchor are merged: lenses
// union, severity takes the maximum, evidence keeps the first
// non-empty. Ordering is severity-major, then document position.
// Numbers are assigned once here and never change afterwards.
func Merge(results []LensResult) ([]*entity.Finding, Summary) {
	summary := Summary{
		BySeverity: map[string]int{},
		ByLens:     map[string]int{},
	}

	merged := make(map[string]*entity.Finding)
	var order []string
	for _, result := range results {
		if result.Err != nil {
			summary.FailedLenses = append(summary.FailedLenses, result.Lens)
			continue
		}
		summary.ByLens[result.Lens] = len(result.Findings)
		for _, raw := range result.Findings {
			key := dedupeKey(raw)
			existing, ok := merged[key]
			if !ok {
				f := fromRaw(raw, result.Lens)
				merged[key] = f
				order = append(order, key)
				continue
			}
			combine(existing, raw, result.Lens)
		}
	}

	findings := make([]*entity.Finding, 0, len(merged))
	for _, key := range order {
		findings = append(findings, merged[key])
	}

	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := severityRank[findings[i].Severity], severityRank[findings[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return lineOf(findings[i]) < lineOf(findings[j])
	})

	for i, f := range findings {
		f.Number = i + 1
		f.Status = constant.FindingStatusPending
		summary.BySeverity[f.Severity]++
	}
	return findings, summary
}

func dedupeKey(raw reasoning.RawFinding) string {
	anchor := strings.TrimSpace(strings.ToLower(raw.AnchorText))
	if anchor != "" {
		return anchor
	}
	// Anchorless findings dedupe on their location description instead.
	return "loc:" + strings.TrimSpace(strings.ToLower(raw.Location))
}

func fromRaw(raw reasoning.RawFinding, lens string) *entity.Finding {
	severity := raw.Severity
	if severityRank[severity] == 0 {
		severity = constant.SeverityMinor
	}
	return &entity.Finding{
		Severity: severity,
		Lenses:   []string{lens},
		Anchor: entity.Anchor{
			Location:   raw.Location,
			AnchorText: raw.AnchorText,
			LineStart:  raw.LineStart,
			LineEnd:    raw.LineEnd,
		},
		Evidence:         raw.Evidence,
		Impact:           raw.Impact,
		SuggestedOptions: raw.SuggestedOptions,
		Ambiguous:        raw.Ambiguous,
	}
}

func combine(f *entity.Finding, raw reasoning.RawFinding, lens string) {
	if !containsLens(f.Lenses, lens) {
		f.Lenses = append(f.Lenses, lens)
	}
	if severityRank[raw.Severity] > severityRank[f.Severity] {
		f.Severity = raw.Severity
	}
	if f.Evidence == "" {
		f.Evidence = raw.Evidence
	}
	if f.Impact == "" {
		f.Impact = raw.Impact
	}
	f.SuggestedOptions = appendNewOptions(f.SuggestedOptions, raw.SuggestedOptions)
	f.Ambiguous = f.Ambiguous || raw.Ambiguous
}

func containsLens(lenses []string, lens string) bool {
	for _, l := range lenses {
		if l == lens {
			return true
		}
	}
	return false
}

func appendNewOptions(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, opt := range existing {
		seen[strings.TrimSpace(opt)] = true
	}
	for _, opt := range incoming {
		if !seen[strings.TrimSpace(opt)] {
			existing = append(existing, opt)
			seen[strings.TrimSpace(opt)] = true
		}
	}
	return existing
}

func lineOf(f *entity.Finding) int {
	if f.Anchor.LineStart != nil {
		return *f.Anchor.LineStart
	}
	return 1 << 30
}
