package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'MatchResult' is the durable record written when a match ends.
 * Winner is "group1", "group2" or "tie".
 */
type MatchResult struct {
	ID       string    `gorm:"primaryKey;size:36;not null"`
	RoomCode string    `gorm:"size:10;not null;index"`
	Winner   string    `gorm:"size:10;not null"`
	Turns    int       `gorm:"default:0"`
	EndedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (m *MatchResult) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
