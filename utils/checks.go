package utils

import (
	"errors"

	models "forestfight/models/postgres"

	"gorm.io/gorm"
)

// UserExists reports whether an account with this username is on
// record.
func UserExists(db *gorm.DB, username string) (bool, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
