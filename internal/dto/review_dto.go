package dto

import (
	"time"

	"github.com/google/uuid"
)

// Requests

type StartAnalysisRequest struct {
	ProjectKey   string             `json:"project_key" validate:"required"`
	DocumentPath string             `json:"document_path" validate:"required"`
	Model        string             `json:"model,omitempty"`
	Lenses       []string           `json:"lenses,omitempty" validate:"omitempty,dive,oneof=structural stylistic consistency clarity"`
	LensWeights  map[string]float64 `json:"lens_weights,omitempty"`
}

// ResumeSessionRequest targets a session either directly by id or by
// document identity (project key + recorded path), in which case the
// most recent active session wins.
type ResumeSessionRequest struct {
	SessionId    uuid.UUID `json:"session_id,omitempty"`
	ProjectKey   string    `json:"project_key,omitempty"`
	DocumentPath string    `json:"document_path,omitempty"`
	PathOverride string    `json:"path_override,omitempty"`
}

type AcceptFindingRequest struct {
	Note string `json:"note,omitempty"`
}

type RejectFindingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type DiscussFindingRequest struct {
	Message string `json:"message" validate:"required"`
}

// SkipRemainingRequest filters which findings to skip past. Matching
// findings are passed over without any status change.
type SkipRemainingRequest struct {
	Severity string `json:"severity,omitempty" validate:"omitempty,oneof=critical major minor"`
	Lens     string `json:"lens,omitempty" validate:"omitempty,oneof=structural stylistic consistency clarity"`
	Stale    *bool  `json:"stale,omitempty"`
}

// Responses

type FindingResponse struct {
	Id               uuid.UUID `json:"id"`
	Number           int       `json:"number"`
	Severity         string    `json:"severity"`
	Lenses           []string  `json:"lenses"`
	Location         string    `json:"location"`
	AnchorText       string    `json:"anchor_text"`
	LineStart        *int      `json:"line_start,omitempty"`
	LineEnd          *int      `json:"line_end,omitempty"`
	Evidence         string    `json:"evidence"`
	Impact           string    `json:"impact"`
	SuggestedOptions []string  `json:"suggested_options"`
	Ambiguous        bool      `json:"ambiguous"`
	Stale            bool      `json:"stale"`
	Status           string    `json:"status"`
	AuthorResponse   string    `json:"author_response,omitempty"`
	OutcomeReason    string    `json:"outcome_reason,omitempty"`
}

type SeverityCounts struct {
	Critical int `json:"critical"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
}

type StartAnalysisResponse struct {
	SessionId     uuid.UUID           `json:"session_id"`
	TotalFindings int                 `json:"total_findings"`
	BySeverity    SeverityCounts      `json:"by_severity"`
	ByLens        map[string]int      `json:"by_lens"`
	FailedLenses  []string            `json:"failed_lenses,omitempty"`
	First         *NavigationResponse `json:"first,omitempty"`
}

type ResumeSessionResponse struct {
	SessionId     uuid.UUID           `json:"session_id"`
	TotalFindings int                 `json:"total_findings"`
	Remaining     int                 `json:"remaining"`
	AdjustedCount int                 `json:"adjusted_count"`
	StaleCount    int                 `json:"stale_count"`
	Current       *NavigationResponse `json:"current,omitempty"`
}

// NavigationResponse carries the finding currently in front of the
// author. Complete is set instead of Finding once every finding in the
// session has reached a terminal status.
type NavigationResponse struct {
	Finding   *FindingResponse `json:"finding,omitempty"`
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Remaining int              `json:"remaining"`
	Complete  bool             `json:"complete"`
}

type FindingOutcomeResponse struct {
	Finding       FindingResponse     `json:"finding"`
	SessionStatus string              `json:"session_status"`
	Next          *NavigationResponse `json:"next,omitempty"`
}

type SceneReviewResponse struct {
	AdjustedCount int               `json:"adjusted_count"`
	StaleCount    int               `json:"stale_count"`
	ReEvaluated   []FindingResponse `json:"re_evaluated,omitempty"`
	Withdrawn     []int             `json:"withdrawn,omitempty"`
}

type SessionSummaryResponse struct {
	Id            uuid.UUID  `json:"id"`
	ProjectKey    string     `json:"project_key"`
	DocumentPath  string     `json:"document_path"`
	Status        string     `json:"status"`
	TotalFindings int        `json:"total_findings"`
	Remaining     int        `json:"remaining"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type SessionDetailResponse struct {
	SessionSummaryResponse
	Model        string             `json:"model"`
	DocumentHash string             `json:"document_hash"`
	LensWeights  map[string]float64 `json:"lens_weights,omitempty"`
	CurrentIndex int                `json:"current_index"`
	Findings     []FindingResponse  `json:"findings"`
}

type DiscussionTurnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type DiscussionHistoryResponse struct {
	FindingId uuid.UUID                `json:"finding_id"`
	Turns     []DiscussionTurnResponse `json:"turns"`
}

// DiscussionDecision is the structured verdict the reasoning model
// appends after its conversational reply in a discussion turn.
type DiscussionDecision struct {
	Status         string `json:"status"`
	SeverityChange string `json:"severity_change,omitempty"`
	NewEvidence    string `json:"new_evidence,omitempty"`
	Note           string `json:"note,omitempty"`
}
