package user

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username        string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	LastCheckinTime *time.Time `json:"last_checkin_time"`
}
