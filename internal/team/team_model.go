// team/model.go
package team

import (
	"time"

	"gorm.io/gorm"
)

// Team represents a campaign team. CurrentRoundID and CurrentScore are
// mutated only by the round tracker and the score engine, never from
// client-supplied values.
type Team struct {
	gorm.Model
	Name           string  `json:"team_name" gorm:"size:100;not null"`
	CreatorID      uint    `json:"creator_id" gorm:"index"`
	IsActive       bool    `json:"is_active" gorm:"default:true"`
	CurrentScore   float64 `json:"current_score" gorm:"default:0"`
	CurrentRoundID int     `json:"current_round_id" gorm:"default:0"`
}

// TeamMember represents a user's membership in a team. The composite unique
// index makes joins idempotent: a second insert for the same pair conflicts
// instead of duplicating.
type TeamMember struct {
	gorm.Model
	TeamID   uint      `json:"team_id" gorm:"uniqueIndex:idx_team_user"`
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_team_user"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamCheckinHistory is the append-only audit trail of completed rounds,
// one row per (team, round). A round with check-ins but no history row
// signals a missed score computation.
type TeamCheckinHistory struct {
	gorm.Model
	TeamID      uint      `json:"team_id" gorm:"index:idx_history_team_round"`
	CompletedAt time.Time `json:"completed_at"`
	MemberCount int       `json:"member_count"`
	RoundID     int       `json:"round_id" gorm:"index:idx_history_team_round"`
}
