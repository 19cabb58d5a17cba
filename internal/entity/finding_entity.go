package entity

import (
	"time"

	"github.com/google/uuid"
)

// Anchor describes where a finding attaches to the live document.
// AnchorText is the verbatim span the reasoning provider quoted;
// ContextHash fingerprints the lines around it so scene-change sweeps can
// tell "moved" apart from "surroundings rewritten".
type Anchor struct {
	Location    string
	AnchorText  string
	ContextHash string
	LineStart   *int
	LineEnd     *int
}

type Finding struct {
	Id               uuid.UUID
	SessionId        uuid.UUID
	Number           int // unique and immutable within a session
	Severity         string
	Lenses           []string
	Anchor           Anchor
	Evidence         string
	Impact           string
	SuggestedOptions []string
	Ambiguous        bool
	Stale            bool
	Status           string
	AuthorResponse   string
	OutcomeReason    string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
