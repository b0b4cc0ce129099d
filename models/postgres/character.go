package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'Character' is a user-created fighter. Abilities is a JSON array of
 * ability names from the catalog. Names are unique per owner.
 */
type Character struct {
	ID          string         `gorm:"primaryKey;size:36;not null"`
	Username    string         `gorm:"size:50;not null;index;uniqueIndex:idx_characters_owner_name"`
	Name        string         `gorm:"size:100;not null;uniqueIndex:idx_characters_owner_name"`
	Description string         `gorm:"type:text"`
	Abilities   datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	User User `gorm:"foreignKey:Username"`
}

func (c *Character) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
