package team

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamWithMemberCount is a read-model row for listings and ranking backfill.
type TeamWithMemberCount struct {
	Team
	MemberCount int64 `json:"member_count"`
}

// MemberDetail carries the member fields exposed on the team detail view.
type MemberDetail struct {
	UserID          uint       `json:"user_id"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	LastCheckinTime *time.Time `json:"last_checkin_time"`
}

// ListFilter narrows team listings. Zero values mean "no filter".
type ListFilter struct {
	NameSearch string
	MinScore   *float64
}

// TeamRepository defines the interface for team data operations.
type TeamRepository interface {
	// Team operations
	CreateTeamWithCreator(team *Team, creatorID uint) error
	GetTeamByID(id uint) (*Team, error)
	GetAllTeamNames() ([]Team, error)
	ListTeams(filter ListFilter, sortBy string, sortDesc bool, offset, limit int) ([]TeamWithMemberCount, error)
	CountTeams(filter ListFilter) (int64, error)
	ListTeamsByScore(minScore *float64, offset, limit int) ([]TeamWithMemberCount, error)

	// TeamMember operations
	AddTeamMember(member *TeamMember) (created bool, err error)
	IsUserTeamMember(teamID, userID uint) (bool, error)
	GetMemberCount(teamID uint) (int64, error)
	GetMembers(teamID uint) ([]TeamMember, error)
	GetMemberDetails(teamID uint) ([]MemberDetail, error)
	GetUserTeamCount(userID uint) (int64, error)

	// Round / scoring operations
	AdvanceRound(teamID uint, fromRoundID int) (advanced bool, err error)
	UpdateScore(teamID uint, score float64) error
	InsertHistory(history *TeamCheckinHistory) error
	GetLastHistoryBefore(teamID uint, roundID int) (*TeamCheckinHistory, error)

	WithTransaction(txFunc func(TeamRepository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new instance of TeamRepository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// --- Team Operations ---

// CreateTeamWithCreator inserts the team and the creator's membership in one
// transaction so a team never exists without its first member.
func (r *teamRepository) CreateTeamWithCreator(team *Team, creatorID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		member := &TeamMember{
			TeamID:   team.ID,
			UserID:   creatorID,
			JoinedAt: time.Now().UTC(),
		}
		return tx.Create(member).Error
	})
}

func (r *teamRepository) GetTeamByID(id uint) (*Team, error) {
	var team Team
	if err := r.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetAllTeamNames() ([]Team, error) {
	var teams []Team
	if err := r.db.Select("id", "name").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.NameSearch != "" {
		query = query.Where("teams.name ILIKE ?", "%"+filter.NameSearch+"%")
	}
	if filter.MinScore != nil {
		query = query.Where("teams.current_score >= ?", *filter.MinScore)
	}
	return query
}

func (r *teamRepository) listQuery(filter ListFilter) *gorm.DB {
	query := r.db.Model(&Team{}).
		Select("teams.*, count(team_members.id) as member_count").
		Joins("LEFT JOIN team_members ON team_members.team_id = teams.id AND team_members.deleted_at IS NULL").
		Group("teams.id")
	return r.applyFilter(query, filter)
}

func (r *teamRepository) ListTeams(filter ListFilter, sortBy string, sortDesc bool, offset, limit int) ([]TeamWithMemberCount, error) {
	query := r.listQuery(filter)

	dir := "asc"
	if sortDesc {
		dir = "desc"
	}
	switch sortBy {
	case "name":
		query = query.Order("teams.name " + dir)
	case "score":
		query = query.Order("teams.current_score " + dir).Order("teams.id asc")
	case "members":
		query = query.Order("count(team_members.id) " + dir)
	default:
		query = query.Order("teams.created_at " + dir)
	}

	var teams []TeamWithMemberCount
	if err := query.Offset(offset).Limit(limit).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) CountTeams(filter ListFilter) (int64, error) {
	var total int64
	query := r.applyFilter(r.db.Model(&Team{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListTeamsByScore returns teams ordered by score descending with a
// deterministic id-ascending tie-break, used by the ranking backfill path.
func (r *teamRepository) ListTeamsByScore(minScore *float64, offset, limit int) ([]TeamWithMemberCount, error) {
	query := r.listQuery(ListFilter{MinScore: minScore}).
		Order("teams.current_score desc").
		Order("teams.id asc")

	var teams []TeamWithMemberCount
	if err := query.Offset(offset).Limit(limit).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// --- TeamMember Operations ---

// AddTeamMember inserts the membership, ignoring the insert when the
// (team, user) pair already exists. The returned flag reports whether a new
// row was created.
func (r *teamRepository) AddTeamMember(member *TeamMember) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *teamRepository) IsUserTeamMember(teamID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&TeamMember{}).Where("team_id = ? AND user_id = ?", teamID, userID).Count(&count).Error
	return count > 0, err
}

func (r *teamRepository) GetMemberCount(teamID uint) (int64, error) {
	var count int64
	err := r.db.Model(&TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, err
}

func (r *teamRepository) GetMembers(teamID uint) ([]TeamMember, error) {
	var members []TeamMember
	if err := r.db.Where("team_id = ?", teamID).Order("joined_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *teamRepository) GetMemberDetails(teamID uint) ([]MemberDetail, error) {
	var details []MemberDetail
	err := r.db.Table("team_members").
		Select("users.id as user_id, users.username, users.name, users.last_checkin_time").
		Joins("JOIN users ON users.id = team_members.user_id AND users.deleted_at IS NULL").
		Where("team_members.team_id = ? AND team_members.deleted_at IS NULL", teamID).
		Order("team_members.joined_at asc").
		Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

// GetUserTeamCount reports how many teams the user belongs to; the score
// engine uses it as the per-user weight denominator.
func (r *teamRepository) GetUserTeamCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&TeamMember{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// --- Round / scoring Operations ---

// AdvanceRound performs the conditional round advance. The WHERE clause on
// the expected round id makes the advance single-winner: of N concurrent
// callers observing the same completed round, exactly one sees advanced=true.
func (r *teamRepository) AdvanceRound(teamID uint, fromRoundID int) (bool, error) {
	result := r.db.Model(&Team{}).
		Where("id = ? AND current_round_id = ?", teamID, fromRoundID).
		Update("current_round_id", gorm.Expr("current_round_id + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *teamRepository) UpdateScore(teamID uint, score float64) error {
	return r.db.Model(&Team{}).Where("id = ?", teamID).Update("current_score", score).Error
}

func (r *teamRepository) InsertHistory(history *TeamCheckinHistory) error {
	return r.db.Create(history).Error
}

// GetLastHistoryBefore returns the most recent completed round strictly
// before roundID, or nil when the team has no earlier history.
func (r *teamRepository) GetLastHistoryBefore(teamID uint, roundID int) (*TeamCheckinHistory, error) {
	var history TeamCheckinHistory
	err := r.db.Where("team_id = ? AND round_id < ?", teamID, roundID).
		Order("round_id desc").
		First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

func (r *teamRepository) WithTransaction(txFunc func(TeamRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &teamRepository{db: tx}
		return txFunc(txRepo)
	})
}
