package domain

// ModerationStage identifies which step of the moderation pipeline produced a verdict.
type ModerationStage string

const (
	StageEmpty       ModerationStage = "empty"        // nothing to scan
	StageLocal       ModerationStage = "local"        // blocked by lexical or pattern filter
	StageCache       ModerationStage = "cache"        // served from the moderation cache
	StageRateLimited ModerationStage = "rate_limited" // remote skipped, local verdict used
	StageRemote      ModerationStage = "remote"       // remote classifier answered
	StageRemoteError ModerationStage = "remote_error" // remote classifier failed, blocked
)

// AllStages lists stages in pipeline order.
var AllStages = []ModerationStage{
	StageEmpty, StageLocal, StageCache, StageRateLimited, StageRemote, StageRemoteError,
}

// String returns the string representation of ModerationStage.
func (s ModerationStage) String() string {
	return string(s)
}

// IsValid checks if the stage is a known value.
func (s ModerationStage) IsValid() bool {
	for _, v := range AllStages {
		if s == v {
			return true
		}
	}
	return false
}

// ModerationDecision is an audit record of one moderation verdict.
// Corresponds to moderation_decisions table in PostgreSQL and ClickHouse.
type ModerationDecision struct {
	DecisionID string          // PK, see idhash.ComputeDecisionID
	Mint       string          // token mint address
	Safe       bool            // verdict
	Stage      ModerationStage // which step decided
	ScanKey    string          // normalized scan text
	DecidedAt  int64           // verdict time (ms)
	CreatedAt  int64           // record creation timestamp (ms)
}
