package postgres

/*
 * 'Ability' is a catalog entry for a combat action. Type is "a" (attack)
 * or "h" (heal); Num d Dice is the roll the client performs. Chat is the
 * flavor template; [player1] is replaced with the target's character name
 * and [player2] with the actor's.
 */
type Ability struct {
	Name        string `gorm:"primaryKey;size:100;not null"`
	Type        string `gorm:"size:1;not null"`
	Description string `gorm:"type:text"`
	Num         int    `gorm:"not null"`
	Dice        int    `gorm:"not null"`
	Chat        string `gorm:"type:text"`
}

// TableName keeps the legacy singular collection name.
func (Ability) TableName() string {
	return "ability"
}
