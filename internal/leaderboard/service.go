package leaderboard

import (
	"context"
	"log"
	"sort"

	"github.com/poyingHAHA/distributed-sys-final/internal/team"
)

// RankedTeam is one row of the rankings response.
type RankedTeam struct {
	TeamID       uint    `json:"team_id"`
	TeamName     string  `json:"team_name"`
	CreatorID    uint    `json:"creator_id"`
	CurrentScore float64 `json:"current_score"`
	MemberCount  int64   `json:"member_count"`
	Rank         int     `json:"rank"`
}

// Service answers paginated rank queries from the cache, falling back to the
// repository to resolve missing entries and backfilling the cache with what
// it finds.
type Service struct {
	cache *Cache
	repo  team.TeamRepository
}

func NewService(cache *Cache, repo team.TeamRepository) *Service {
	return &Service{cache: cache, repo: repo}
}

// GetRankings serves the [page, size] window of the leaderboard. minScore,
// when non-nil, restricts rows to scores >= minScore. Returns the window rows
// (rank-ascending, at most size of them) and the total count under the filter.
//
// Any cache failure is treated as a cache miss and answered from the
// repository; a cache outage degrades latency, not correctness.
func (s *Service) GetRankings(ctx context.Context, page, size int, minScore *float64) ([]RankedTeam, int64, error) {
	start := int64((page - 1) * size)
	end := start + int64(size) - 1

	var window []ScoredTeam
	var err error
	if minScore == nil {
		window, err = s.cache.RangeByRank(ctx, start, end)
	} else {
		window, err = s.cache.RangeByMinScore(ctx, *minScore, start, end)
	}
	if err != nil {
		log.Printf("leaderboard: range read failed, falling back to repository: %v", err)
		window = nil
	}

	rankings := make([]RankedTeam, 0, size)
	resolved := make(map[uint]bool, size)
	missing := 0

	for offset, st := range window {
		entry, ok, err := s.cache.Details(ctx, st.TeamID)
		if err != nil {
			log.Printf("leaderboard: details read failed for team %d: %v", st.TeamID, err)
			ok = false
		}
		if !ok {
			missing++
			continue
		}
		rankings = append(rankings, RankedTeam{
			TeamID:       entry.TeamID,
			TeamName:     entry.TeamName,
			CreatorID:    entry.CreatorID,
			CurrentScore: entry.CurrentScore,
			MemberCount:  entry.MemberCount,
			Rank:         int(start) + offset + 1,
		})
		resolved[entry.TeamID] = true
	}

	// Backfill from the repository when the cache window was short or had
	// unresolved rows.
	backfilled := false
	if missing > 0 || len(rankings) < size {
		backfilled = true
		teams, err := s.repo.ListTeamsByScore(minScore, int(start), size)
		if err != nil {
			return nil, 0, err
		}

		entries := make([]Entry, 0, len(teams))
		for idx, t := range teams {
			entry := Entry{
				TeamID:       t.ID,
				TeamName:     t.Name,
				CreatorID:    t.CreatorID,
				CurrentScore: t.CurrentScore,
				MemberCount:  t.MemberCount,
			}
			entries = append(entries, entry)

			if resolved[t.ID] {
				continue
			}
			rankings = append(rankings, RankedTeam{
				TeamID:       entry.TeamID,
				TeamName:     entry.TeamName,
				CreatorID:    entry.CreatorID,
				CurrentScore: entry.CurrentScore,
				MemberCount:  entry.MemberCount,
				Rank:         int(start) + idx + 1,
			})
			resolved[t.ID] = true
		}

		if err := s.cache.UpsertAll(ctx, entries); err != nil {
			log.Printf("leaderboard: cache backfill failed: %v", err)
		}
	}

	// Cache-resolved and repository-resolved rows interleave by rank only.
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Rank < rankings[j].Rank
	})
	if len(rankings) > size {
		rankings = rankings[:size]
	}

	total, err := s.totalCount(ctx, minScore, backfilled)
	if err != nil {
		return nil, 0, err
	}
	return rankings, total, nil
}

// totalCount is the indexed size without a filter; a filtered count requires
// the repository since the sorted set cannot range-count cheaply by score.
// When the window needed backfilling the index is known to be incomplete, so
// the repository count is used instead.
func (s *Service) totalCount(ctx context.Context, minScore *float64, backfilled bool) (int64, error) {
	if minScore == nil && !backfilled {
		total, err := s.cache.Size(ctx)
		if err == nil {
			return total, nil
		}
		log.Printf("leaderboard: size read failed, counting from repository: %v", err)
	}
	return s.repo.CountTeams(team.ListFilter{MinScore: minScore})
}
