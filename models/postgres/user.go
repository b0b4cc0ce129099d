package postgres

import (
	"time"
)

/*
 * 'User' is an account record. PublicKey holds the RSA public key the
 * client registered for encrypted responses (base64 DER, may be empty).
 */
type User struct {
	Username     string    `gorm:"primaryKey;size:50;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	PublicKey    string    `gorm:"type:text"`
	Wins         int       `gorm:"default:0"`
	GamesPlayed  int       `gorm:"default:0"`
	MemberSince  time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the user's characters
	Characters []*Character `gorm:"foreignKey:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
