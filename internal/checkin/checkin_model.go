// checkin/model.go
package checkin

import (
	"time"

	"gorm.io/gorm"
)

// Checkin is one user's timestamped check-in against a team within a round.
// Rows are append-only; RoundID is stamped from the team's current round at
// insert time and never rewritten.
type Checkin struct {
	gorm.Model
	TeamID      uint      `json:"team_id" gorm:"index:idx_checkin_team_round"`
	UserID      uint      `json:"user_id" gorm:"index"`
	PostURL     string    `json:"post_url" gorm:"size:255;not null"`
	CheckinTime time.Time `json:"checkin_time"`
	RoundID     int       `json:"round_id" gorm:"index:idx_checkin_team_round"`
}
