package checkin

import (
	"time"

	"gorm.io/gorm"
)

// CheckinRepository defines the interface for check-in data operations.
type CheckinRepository interface {
	InsertCheckin(checkin *Checkin) error
	GetCheckins(teamID uint, roundID int) ([]Checkin, error)
	// CountDistinctUsers counts the distinct users with a check-in for the
	// round. Distinct, because a user may check in more than once within a
	// round and must still count once against the member total.
	CountDistinctUsers(teamID uint, roundID int) (int64, error)
	CountDistinctUsersSince(teamID uint, since time.Time) (int64, error)
}

type checkinRepository struct {
	db *gorm.DB
}

// NewCheckinRepository creates a new instance of CheckinRepository.
func NewCheckinRepository(db *gorm.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

func (r *checkinRepository) InsertCheckin(checkin *Checkin) error {
	return r.db.Create(checkin).Error
}

func (r *checkinRepository) GetCheckins(teamID uint, roundID int) ([]Checkin, error) {
	var checkins []Checkin
	err := r.db.Where("team_id = ? AND round_id = ?", teamID, roundID).
		Order("checkin_time asc").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}
	return checkins, nil
}

func (r *checkinRepository) CountDistinctUsers(teamID uint, roundID int) (int64, error) {
	var count int64
	err := r.db.Model(&Checkin{}).
		Where("team_id = ? AND round_id = ?", teamID, roundID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

func (r *checkinRepository) CountDistinctUsersSince(teamID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&Checkin{}).
		Where("team_id = ? AND checkin_time >= ?", teamID, since).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
