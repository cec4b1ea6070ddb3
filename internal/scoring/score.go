// Package scoring computes a team's score when a round of check-ins
// completes and pushes the result to the leaderboard cache.
package scoring

import (
	"time"
)

// Weighting constants of the score formula.
const (
	alpha = 1.0 // time decay
	beta  = 2.0 // new-member bonus
)

// RoundInput is everything the formula needs, already loaded from storage.
type RoundInput struct {
	// CheckinTimes holds every check-in timestamp of the completed round.
	CheckinTimes []time.Time
	// CurrentUsers is the distinct set of users who checked in this round.
	CurrentUsers map[uint]struct{}
	// PreviousUsers is the distinct user set of the team's previous
	// completed round; empty when the team has no prior round.
	PreviousUsers map[uint]struct{}
	// UserTeamCounts maps each current user to the number of teams they
	// belong to.
	UserTeamCounts map[uint]int64
}

// CalculateScore is the deterministic scoring formula:
//
//	score = total_weight / (alpha * (time_span_minutes + 1)) + beta * new_members
//
// where each user contributes weight 1/(number of teams they belong to), the
// time span is the spread between the round's first and last check-in in
// minutes, and new_members counts users absent from the previous round. The
// +1 keeps the denominator positive when all check-ins are simultaneous.
func CalculateScore(in RoundInput) float64 {
	if len(in.CheckinTimes) == 0 {
		return 0
	}

	earliest, latest := in.CheckinTimes[0], in.CheckinTimes[0]
	for _, t := range in.CheckinTimes[1:] {
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	timeSpanMinutes := latest.Sub(earliest).Minutes()

	newMembers := 0
	for userID := range in.CurrentUsers {
		if _, ok := in.PreviousUsers[userID]; !ok {
			newMembers++
		}
	}

	totalWeight := 0.0
	for userID := range in.CurrentUsers {
		teams := in.UserTeamCounts[userID]
		if teams <= 0 {
			// A checked-in user belongs to at least the team being
			// scored; guard against an inconsistent count.
			teams = 1
		}
		totalWeight += 1.0 / float64(teams)
	}

	return totalWeight/(alpha*(timeSpanMinutes+1)) + beta*float64(newMembers)
}
