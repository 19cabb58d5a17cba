package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Review lifecycle event types.
const (
	TypeSessionStarted       = "SESSION_STARTED"
	TypeSessionCompleted     = "SESSION_COMPLETED"
	TypeSessionAbandoned     = "SESSION_ABANDONED"
	TypeFindingStatusChanged = "FINDING_STATUS_CHANGED"
	TypeSceneChangeDetected  = "SCENE_CHANGE_DETECTED"
	TypeLearningExported     = "LEARNING_EXPORTED"
)

func NewSessionStarted(sessionId, userId, projectKey string, totalFindings int) Event {
	return BaseEvent{
		Type: TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id":     sessionId,
			"user_id":        userId,
			"project_key":    projectKey,
			"total_findings": totalFindings,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionCompleted(sessionId, userId string) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionAbandoned(sessionId, userId string) Event {
	return BaseEvent{
		Type: TypeSessionAbandoned,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
		},
		OccurredAt: time.Now(),
	}
}

func NewFindingStatusChanged(sessionId, findingId, userId string, number int, from, to string) Event {
	return BaseEvent{
		Type: TypeFindingStatusChanged,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"finding_id": findingId,
			"user_id":    userId,
			"number":     number,
			"from":       from,
			"to":         to,
		},
		OccurredAt: time.Now(),
	}
}

func NewSceneChangeDetected(sessionId, userId string, adjusted, stale, reEvaluated int) Event {
	return BaseEvent{
		Type: TypeSceneChangeDetected,
		Data: map[string]interface{}{
			"session_id":   sessionId,
			"user_id":      userId,
			"adjusted":     adjusted,
			"stale":        stale,
			"re_evaluated": reEvaluated,
		},
		OccurredAt: time.Now(),
	}
}

func NewLearningExported(sessionId, userId string, entries int) Event {
	return BaseEvent{
		Type: TypeLearningExported,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
			"entries":    entries,
		},
		OccurredAt: time.Now(),
	}
}
