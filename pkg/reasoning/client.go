// Package reasoning wraps the stateless LLM backend with the typed
// calls the review workflow needs: lens analysis, finding discussion,
// re-evaluation after edits, and learning export. Every call carries a
// timeout and bounded retries; the backend itself holds no session
// state, so a retried call is always safe.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/constant"
	"ai-docreview-be/pkg/document"
	"ai-docreview-be/pkg/llm"
	"ai-docreview-be/pkg/retry"
)

// RawFinding is one issue as the model reports it, before numbering and
// persistence.
type RawFinding struct {
	Location         string   `json:"location"`
	AnchorText       string   `json:"anchor_text"`
	LineStart        *int     `json:"line_start"`
	LineEnd          *int     `json:"line_end"`
	Severity         string   `json:"severity"`
	Evidence         string   `json:"evidence"`
	Impact           string   `json:"impact"`
	SuggestedOptions []string `json:"suggested_options"`
	Ambiguous        bool     `json:"ambiguous"`
}

// ReEvaluation is the model's refreshed view of an existing finding.
type ReEvaluation struct {
	StillValid       bool     `json:"still_valid"`
	AnchorText       string   `json:"anchor_text"`
	LineStart        *int     `json:"line_start"`
	LineEnd          *int     `json:"line_end"`
	Severity         string   `json:"severity"`
	Evidence         string   `json:"evidence"`
	SuggestedOptions []string `json:"suggested_options"`
}

// LearningItem is one distilled calibration note from a finished review.
type LearningItem struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Decision is the structured verdict the model appends after a
// discussion answer. Empty fields mean "no change".
type Decision struct {
	Status         string `json:"status"`
	SeverityChange string `json:"severity_change"`
	NewEvidence    string `json:"new_evidence"`
}

// FindingContext is the slice of a finding the discussion and
// re-evaluation prompts need.
type FindingContext struct {
	Number     int
	Severity   string
	Status     string
	Location   string
	AnchorText string
	Evidence   string
	Impact     string
}

// DiscussionResult is a completed discussion turn: the conversational
// answer (decision line stripped) and the parsed decision, if any.
type DiscussionResult struct {
	Answer   string
	Decision *Decision
}

var errMalformed = errors.New("malformed model output")

type Config struct {
	Model       string
	CallTimeout time.Duration
	Retry       retry.Policy
}

type Client struct {
	provider llm.LLMProvider
	cfg      Config
}

func NewClient(provider llm.LLMProvider, cfg Config) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 120 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &Client{provider: provider, cfg: cfg}
}

func (c *Client) opts() []llm.Option {
	if c.cfg.Model != "" {
		return []llm.Option{llm.WithModel(c.cfg.Model)}
	}
	return nil
}

// retriable reports whether a fresh attempt can change the outcome.
// Transport failures, 5xx, rate limits, and malformed output are worth
// another ask; any other 4xx means the request itself is wrong.
func retriable(err error) bool {
	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.Retriable()
	}
	return true
}

// call runs fn with the configured timeout and retry policy. Malformed
// output is retried like a transient failure; the backend is stateless
// so a fresh ask costs nothing but time. Rejected requests are not.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context) error) error {
	err := c.cfg.Retry.Do(ctx, retriable, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
		return fn(callCtx)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, errMalformed) {
		return apperrors.Wrap(apperrors.KindAnalysisFailure, "reasoning backend returned unusable output", err)
	}
	var se *llm.StatusError
	if errors.As(err, &se) && !se.Retriable() {
		return apperrors.Wrap(apperrors.KindAnalysisFailure, "reasoning backend rejected the request", err)
	}
	return apperrors.Wrap(apperrors.KindTransientService, "reasoning backend unavailable", err)
}

// Analyze runs one lens pass over the document and returns the raw
// findings the lens surfaced. indexContext is an optional outline shown
// to the model for orientation.
func (c *Client) Analyze(ctx context.Context, lens, indexContext string, doc *document.Document) ([]RawFinding, error) {
	prompt := fmt.Sprintf(constant.AnalyzeLensPromptV1, lens, lens, indexContext, doc.NumberedContent())

	var findings []RawFinding
	err := c.call(ctx, func(ctx context.Context) error {
		raw, err := c.provider.Generate(ctx, prompt, c.opts()...)
		if err != nil {
			return err
		}
		parsed, err := decodeArray[RawFinding](raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		findings = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// DiscussFinding sends one author message about a finding and streams
// the model's conversational answer through onToken. The trailing
// decision line is stripped from the stream and returned parsed.
// Streamed calls are not retried: tokens already shown to the author
// cannot be unshown.
func (c *Client) DiscussFinding(ctx context.Context, f FindingContext, history []llm.Message, message string, onToken llm.TokenHandler) (*DiscussionResult, error) {
	system := fmt.Sprintf(constant.DiscussFindingPromptV1,
		f.Number, f.Severity, f.Status, f.Location, f.AnchorText, f.Evidence, f.Impact)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: message})

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	filter := newDecisionFilter(onToken)
	_, err := c.provider.ChatStream(callCtx, messages, filter.Write, c.opts()...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDiscussionFailure, "discussion turn failed", err)
	}
	if err := filter.Flush(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDiscussionFailure, "discussion turn failed", err)
	}

	return &DiscussionResult{
		Answer:   filter.Answer(),
		Decision: filter.Decision(),
	}, nil
}

// ReEvaluateFinding asks the model whether a finding still holds against
// the current document text.
func (c *Client) ReEvaluateFinding(ctx context.Context, f FindingContext, doc *document.Document) (*ReEvaluation, error) {
	prompt := fmt.Sprintf(constant.ReEvaluateFindingPromptV1,
		f.Severity, f.Location, f.AnchorText, f.Evidence, doc.NumberedContent())

	var result *ReEvaluation
	err := c.call(ctx, func(ctx context.Context) error {
		raw, err := c.provider.Generate(ctx, prompt, c.opts()...)
		if err != nil {
			return err
		}
		parsed, err := decodeObject[ReEvaluation](raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExportLearning distills a finished review's outcome log into durable
// calibration notes.
func (c *Client) ExportLearning(ctx context.Context, outcomeLog string) ([]LearningItem, error) {
	prompt := fmt.Sprintf(constant.ExportLearningPromptV1, outcomeLog)

	var items []LearningItem
	err := c.call(ctx, func(ctx context.Context) error {
		raw, err := c.provider.Generate(ctx, prompt, c.opts()...)
		if err != nil {
			return err
		}
		parsed, err := decodeArray[LearningItem](raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		items = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
