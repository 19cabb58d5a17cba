package constant

// Finding severities
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
)

// Finding statuses
const (
	FindingStatusPending   = "pending"
	FindingStatusAccepted  = "accepted"
	FindingStatusRejected  = "rejected"
	FindingStatusRevised   = "revised"
	FindingStatusWithdrawn = "withdrawn"
	FindingStatusEscalated = "escalated"
	FindingStatusDiscussed = "discussed"
	FindingStatusConceded  = "conceded"
)

// Session statuses
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// Discussion turn roles
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// Analysis lenses. Each lens is one analytical perspective that
// independently proposes findings against the document.
const (
	LensStructural  = "structural"
	LensStylistic   = "stylistic"
	LensConsistency = "consistency"
	LensClarity     = "clarity"
)

// DefaultLenses is the lens set used when the client does not send weights.
var DefaultLenses = []string{LensStructural, LensStylistic, LensConsistency, LensClarity}

// Learning entry categories
const (
	LearningCategoryPreference           = "preference"
	LearningCategoryBlindSpot            = "blind_spot"
	LearningCategoryResolution           = "resolution"
	LearningCategoryAmbiguityIntentional = "ambiguity_intentional"
	LearningCategoryAmbiguityAccidental  = "ambiguity_accidental"
)

// LearningCategories is the closed set of legal entry categories.
var LearningCategories = map[string]bool{
	LearningCategoryPreference:           true,
	LearningCategoryBlindSpot:            true,
	LearningCategoryResolution:           true,
	LearningCategoryAmbiguityIntentional: true,
	LearningCategoryAmbiguityAccidental:  true,
}

// Scene-change classifications
const (
	SceneChangeAdjusted   = "adjusted"
	SceneChangeStale      = "stale"
	SceneChangeReEvaluate = "re_evaluate"
)
