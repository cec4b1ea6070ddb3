package leaderboard

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scoresKey        = "team_scores"
	detailsKeyPrefix = "team:"

	// Cache calls are bounded so a slow Redis degrades to a cache miss
	// instead of failing the request.
	opTimeout = 500 * time.Millisecond
)

// Entry holds the per-team display attributes stored next to the ranked index.
type Entry struct {
	TeamID       uint
	TeamName     string
	CreatorID    uint
	CurrentScore float64
	MemberCount  int64
}

// ScoredTeam is one row of the ranked index.
type ScoredTeam struct {
	TeamID uint
	Score  float64
}

// Cache is the ranked, read-optimized view of team scores: a sorted set
// ordered by score plus one hash of display attributes per team. It is never
// authoritative; every entry must be reconcilable from the database.
type Cache struct {
	rdb *redis.Client
}

// NewCache wraps an injected Redis client. The client's lifecycle is owned by
// the caller.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func detailsKey(teamID uint) string {
	return detailsKeyPrefix + strconv.FormatUint(uint64(teamID), 10)
}

// Upsert overwrites the team's score in the ranked index and its attribute
// hash in one pipeline. Idempotent: re-upserting the same entry is a no-op.
func (c *Cache) Upsert(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := c.rdb.TxPipeline()
	pipe.ZAdd(ctx, scoresKey, redis.Z{
		Score:  e.CurrentScore,
		Member: strconv.FormatUint(uint64(e.TeamID), 10),
	})
	pipe.HSet(ctx, detailsKey(e.TeamID), map[string]interface{}{
		"team_id":       e.TeamID,
		"team_name":     e.TeamName,
		"creator_id":    e.CreatorID,
		"current_score": e.CurrentScore,
		"member_count":  e.MemberCount,
	})
	_, err := pipe.Exec(ctx)
	return err
}

// UpsertAll pushes a batch of entries in a single pipeline, used by the
// ranking backfill path.
func (c *Cache) UpsertAll(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := c.rdb.TxPipeline()
	for _, e := range entries {
		pipe.ZAdd(ctx, scoresKey, redis.Z{
			Score:  e.CurrentScore,
			Member: strconv.FormatUint(uint64(e.TeamID), 10),
		})
		pipe.HSet(ctx, detailsKey(e.TeamID), map[string]interface{}{
			"team_id":       e.TeamID,
			"team_name":     e.TeamName,
			"creator_id":    e.CreatorID,
			"current_score": e.CurrentScore,
			"member_count":  e.MemberCount,
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RangeByRank returns the [start, end] window (inclusive, rank space) in
// descending score order with ties broken by team id ascending.
func (c *Cache) RangeByRank(ctx context.Context, start, end int64) ([]ScoredTeam, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	zs, err := c.rdb.ZRevRangeWithScores(ctx, scoresKey, start, end).Result()
	if err != nil {
		return nil, err
	}
	return toScoredTeams(zs), nil
}

// RangeByMinScore returns the same window restricted to scores >= min.
func (c *Cache) RangeByMinScore(ctx context.Context, min float64, start, end int64) ([]ScoredTeam, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	zs, err := c.rdb.ZRevRangeByScoreWithScores(ctx, scoresKey, &redis.ZRangeBy{
		Min:    strconv.FormatFloat(min, 'f', -1, 64),
		Max:    "+inf",
		Offset: start,
		Count:  end - start + 1,
	}).Result()
	if err != nil {
		return nil, err
	}
	return toScoredTeams(zs), nil
}

// Size reports the number of indexed teams.
func (c *Cache) Size(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return c.rdb.ZCard(ctx, scoresKey).Result()
}

// Details looks up a team's attribute hash. A missing or unparsable hash is
// reported as a miss so the caller resolves the team from the database; a
// ranked row is never served with unresolved attributes.
func (c *Cache) Details(ctx context.Context, teamID uint) (*Entry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.rdb.HGetAll(ctx, detailsKey(teamID)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}

	id, err := strconv.ParseUint(data["team_id"], 10, 32)
	if err != nil {
		return nil, false, nil
	}
	creatorID, err := strconv.ParseUint(data["creator_id"], 10, 32)
	if err != nil {
		return nil, false, nil
	}
	score, err := strconv.ParseFloat(data["current_score"], 64)
	if err != nil {
		return nil, false, nil
	}
	memberCount, err := strconv.ParseInt(data["member_count"], 10, 64)
	if err != nil {
		return nil, false, nil
	}

	return &Entry{
		TeamID:       uint(id),
		TeamName:     data["team_name"],
		CreatorID:    uint(creatorID),
		CurrentScore: score,
		MemberCount:  memberCount,
	}, true, nil
}

// toScoredTeams converts sorted-set rows and applies the deterministic
// tie-break. Redis orders equal scores lexicographically by member, which is
// neither numeric nor ascending under ZREVRANGE, so equal-score runs are
// re-sorted by team id here.
func toScoredTeams(zs []redis.Z) []ScoredTeam {
	teams := make([]ScoredTeam, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 32)
		if err != nil {
			continue
		}
		teams = append(teams, ScoredTeam{TeamID: uint(id), Score: z.Score})
	}
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Score != teams[j].Score {
			return teams[i].Score > teams[j].Score
		}
		return teams[i].TeamID < teams[j].TeamID
	})
	return teams
}
