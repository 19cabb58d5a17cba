package entity

import (
	"time"

	"github.com/google/uuid"
)

type DiscussionTurn struct {
	Id        uuid.UUID
	FindingId uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// RevisionRecord captures one content change to a finding. Appended only
// when severity or evidence actually changed; pure status flips do not
// produce a record.
type RevisionRecord struct {
	Id             uuid.UUID
	FindingId      uuid.UUID
	Reason         string
	SeverityBefore string
	SeverityAfter  string
	EvidenceBefore string
	EvidenceAfter  string
	CreatedAt      time.Time
}

// DiscussionArchive is the snapshot written when a scene change forces a
// finding re-evaluation. The live discussion_turns list is never rewritten
// in place; the pre-edit finding and its turns are frozen here.
type DiscussionArchive struct {
	Id              uuid.UUID
	FindingId       uuid.UUID
	FindingSnapshot Finding
	ArchivedTurns   []DiscussionTurn
	TransitionNote  string
	CreatedAt       time.Time
}
