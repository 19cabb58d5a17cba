package scenechange

import (
	"fmt"
	"strings"
	"testing"

	"ai-docreview-be/internal/constant"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/pkg/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromLines(lines ...string) *document.Document {
	return document.FromContent("draft.md", strings.Join(lines, "\n"))
}

func findingAt(number, start, end int, anchor string, doc *document.Document) *entity.Finding {
	return &entity.Finding{
		Number:   number,
		Severity: constant.SeverityMinor,
		Status:   constant.FindingStatusPending,
		Anchor: entity.Anchor{
			AnchorText:  anchor,
			LineStart:   &start,
			LineEnd:     &end,
			ContextHash: ContextHash(doc, start, end),
		},
	}
}

func TestSweepAdjustsAllFindingsAfterUniformShift(t *testing.T) {
	const shift = 3
	base := []string{
		"Title",
		"An opening paragraph.",
		"The second paragraph has a typo typo here.",
		"A middle section.",
		"The closing argument is weak.",
		"The end.",
	}
	original := docFromLines(base...)

	findings := []*entity.Finding{
		findingAt(1, 3, 3, "typo typo", original),
		findingAt(2, 5, 5, "The closing argument is weak.", original),
	}

	// Insert N new lines at the top; all anchors shift down by N.
	shifted := docFromLines(append([]string{"New intro A", "New intro B", "New intro C"}, base...)...)
	result := Sweep(findings, shifted)

	assert.Equal(t, len(findings), result.Adjusted)
	assert.Equal(t, 0, result.Stale)
	assert.Empty(t, result.ReEvaluate)
	assert.Equal(t, 3+shift, *findings[0].Anchor.LineStart)
	assert.Equal(t, 5+shift, *findings[1].Anchor.LineStart)
	assert.Equal(t, 1, findings[0].Number, "number is immutable across adjustments")
	assert.Equal(t, 2, findings[1].Number)
}

func TestSweepFlagsDeletedAnchorStale(t *testing.T) {
	original := docFromLines("one", "the broken sentence", "three")
	f := findingAt(1, 2, 2, "the broken sentence", original)

	edited := docFromLines("one", "a fully rewritten line", "three")
	result := Sweep([]*entity.Finding{f}, edited)

	assert.Equal(t, 0, result.Adjusted)
	assert.Equal(t, 1, result.Stale)
	assert.True(t, f.Stale)
	assert.Equal(t, constant.FindingStatusPending, f.Status, "stale must not touch status")
	assert.Equal(t, 1, f.Number)
	assert.Equal(t, 2, *f.Anchor.LineStart, "line numbers untouched for stale findings")
}

func TestSweepDetectsChangedContext(t *testing.T) {
	original := docFromLines(
		"alpha",
		"beta",
		"the anchored claim",
		"delta",
		"epsilon",
	)
	f := findingAt(1, 3, 3, "the anchored claim", original)

	// Anchor survives but a line inside the context window changed.
	edited := docFromLines(
		"alpha",
		"beta REWRITTEN",
		"the anchored claim",
		"delta",
		"epsilon",
	)
	result := Sweep([]*entity.Finding{f}, edited)

	assert.Equal(t, 0, result.Adjusted)
	assert.Equal(t, 0, result.Stale)
	require.Len(t, result.ReEvaluate, 1)
	assert.Same(t, f, result.ReEvaluate[0])
	assert.Equal(t, 3, *f.Anchor.LineStart)
}

func TestSweepChangeOutsideContextWindowIsPlainAdjustment(t *testing.T) {
	original := docFromLines(
		"line 1",
		"line 2",
		"line 3",
		"line 4",
		"the anchored claim",
		"line 6",
		"line 7",
		"line 8",
	)
	f := findingAt(1, 5, 5, "the anchored claim", original)

	edited := docFromLines(
		"line 1 CHANGED FAR AWAY",
		"line 2",
		"line 3",
		"line 4",
		"the anchored claim",
		"line 6",
		"line 7",
		"line 8",
	)
	result := Sweep([]*entity.Finding{f}, edited)

	assert.Equal(t, 1, result.Adjusted)
	assert.Empty(t, result.ReEvaluate)
}

func TestSweepReanchorsRecoveredFinding(t *testing.T) {
	original := docFromLines("one", "the missing span", "three")
	f := findingAt(1, 2, 2, "the missing span", original)
	f.Stale = true

	result := Sweep([]*entity.Finding{f}, original)
	assert.Equal(t, 1, result.Adjusted)
	assert.False(t, f.Stale, "a re-found anchor clears the stale flag")
}

func TestLocatePrefersOccurrenceNearestPreviousPosition(t *testing.T) {
	var lines []string
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf("filler %d", i))
	}
	lines[4] = "repeated phrase"
	lines[24] = "repeated phrase"
	doc := docFromLines(lines...)

	near := 23
	start, ok := locate(doc, "repeated phrase", &near)
	require.True(t, ok)
	assert.Equal(t, 25, start)

	near = 2
	start, ok = locate(doc, "repeated phrase", &near)
	require.True(t, ok)
	assert.Equal(t, 5, start)
}

func TestClassifyMultiLineAnchor(t *testing.T) {
	base := []string{"a", "b", "first half", "second half", "e", "f"}
	original := docFromLines(base...)
	f := findingAt(1, 3, 4, "first half\nsecond half", original)

	shifted := docFromLines(append([]string{"new top"}, base...)...)
	c := Classify(f, shifted)
	assert.Equal(t, constant.SceneChangeAdjusted, c.Kind)
	assert.Equal(t, 4, c.LineStart)
	assert.Equal(t, 5, c.LineEnd)
}

func TestClassifyEmptyAnchorIsStale(t *testing.T) {
	f := &entity.Finding{Anchor: entity.Anchor{AnchorText: "  "}}
	c := Classify(f, docFromLines("whatever"))
	assert.Equal(t, constant.SceneChangeStale, c.Kind)
}
