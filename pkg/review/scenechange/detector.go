// Package scenechange reconciles persisted findings with the live
// document after external edits. Classification is anchored on the
// exact quoted text span: still present means the finding survives
// (line numbers refreshed), missing means stale, present but with
// changed surrounding context means the evidence needs a re-evaluation
// pass.
package scenechange

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/pkg/document"
)

// contextRadius is how many lines around the anchor participate in the
// context hash. A change inside this window invalidates the evidence
// even when the anchor itself survived.
const contextRadius = 2

// Classification is the outcome of checking one finding against the
// live document.
type Classification struct {
	Kind      string // constant.SceneChangeAdjusted | SceneChangeStale | SceneChangeReEvaluate
	LineStart int    // valid for adjusted and re_evaluate
	LineEnd   int
	Hash      string // refreshed context hash
}

// SweepResult summarizes an adjust-only sweep over a finding set.
type SweepResult struct {
	Adjusted   int
	Stale      int
	ReEvaluate []*entity.Finding
}

// ContextHash hashes the anchor's surrounding lines (1-based inclusive
// range, widened by contextRadius).
func ContextHash(doc *document.Document, lineStart, lineEnd int) string {
	window := doc.Slice(lineStart-contextRadius, lineEnd+contextRadius)
	sum := sha256.Sum256([]byte(strings.Join(window, "\n")))
	return hex.EncodeToString(sum[:])
}

// Classify checks a single finding's anchor against the document.
func Classify(f *entity.Finding, doc *document.Document) Classification {
	anchor := strings.TrimSpace(f.Anchor.AnchorText)
	if anchor == "" {
		// Nothing to anchor on; treat as stale so the author sees the
		// finding may no longer apply.
		return Classification{Kind: constant.SceneChangeStale}
	}

	start, ok := locate(doc, anchor, f.Anchor.LineStart)
	if !ok {
		return Classification{Kind: constant.SceneChangeStale}
	}
	end := start + strings.Count(anchor, "\n")

	hash := ContextHash(doc, start, end)
	kind := constant.SceneChangeAdjusted
	if f.Anchor.ContextHash != "" && f.Anchor.ContextHash != hash {
		kind = constant.SceneChangeReEvaluate
	}
	return Classification{
		Kind:      kind,
		LineStart: start,
		LineEnd:   end,
		Hash:      hash,
	}
}

// Sweep runs the cheap adjust-only pass: adjusted findings get fresh
// line numbers, missing anchors are flagged stale, and findings whose
// surrounding context changed are collected for the caller to
// re-evaluate explicitly. Status and number are never touched here.
func Sweep(findings []*entity.Finding, doc *document.Document) SweepResult {
	var result SweepResult
	for _, f := range findings {
		c := Classify(f, doc)
		switch c.Kind {
		case constant.SceneChangeStale:
			f.Stale = true
			result.Stale++
		case constant.SceneChangeAdjusted:
			applyAdjustment(f, c)
			result.Adjusted++
		case constant.SceneChangeReEvaluate:
			applyAdjustment(f, c)
			result.ReEvaluate = append(result.ReEvaluate, f)
		}
	}
	return result
}

func applyAdjustment(f *entity.Finding, c Classification) {
	start, end := c.LineStart, c.LineEnd
	f.Anchor.LineStart = &start
	f.Anchor.LineEnd = &end
	f.Anchor.ContextHash = c.Hash
	f.Stale = false
}

// locate finds the 1-based line of the anchor's first line. When the
// anchor occurs more than once the occurrence closest to the previous
// position wins.
func locate(doc *document.Document, anchor string, previousStart *int) (int, bool) {
	content := strings.ReplaceAll(doc.Content, "\r\n", "\n")

	var lines []int
	offset := 0
	for {
		idx := strings.Index(content[offset:], anchor)
		if idx < 0 {
			break
		}
		abs := offset + idx
		lines = append(lines, 1+strings.Count(content[:abs], "\n"))
		offset = abs + 1
	}
	if len(lines) == 0 {
		return 0, false
	}
	if previousStart == nil || len(lines) == 1 {
		return lines[0], true
	}

	best := lines[0]
	bestDist := abs(best - *previousStart)
	for _, line := range lines[1:] {
		if d := abs(line - *previousStart); d < bestDist {
			best, bestDist = line, d
		}
	}
	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
