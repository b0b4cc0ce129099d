package abilities

import (
	"log"

	postgres_models "forestfight/models/postgres"

	"gorm.io/gorm"
)

// Catalog resolves ability names against the ability table.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// GetAbility looks one ability up by name. A miss surfaces as
// gorm.ErrRecordNotFound.
func (c *Catalog) GetAbility(name string) (*postgres_models.Ability, error) {
	var ability postgres_models.Ability
	if err := c.db.Where("name = ?", name).First(&ability).Error; err != nil {
		return nil, err
	}
	return &ability, nil
}

// Defaults is the built-in ability set. Chat templates speak about
// [player1] (the target's character) and [player2] (the acting
// character).
func Defaults() []postgres_models.Ability {
	return []postgres_models.Ability{
		{Name: "Slash", Type: "a", Description: "A quick strike with the blade", Num: 1, Dice: 6, Chat: "[player2] slashes at [player1]!"},
		{Name: "Heavy Blow", Type: "a", Description: "A slow, crushing two-handed hit", Num: 2, Dice: 6, Chat: "[player2] lands a heavy blow on [player1]!"},
		{Name: "Fireball", Type: "a", Description: "A burst of forest-fire hurled at the enemy", Num: 2, Dice: 8, Chat: "[player2] hurls a fireball at [player1]!"},
		{Name: "Poison Dart", Type: "a", Description: "A dart dipped in nightshade", Num: 1, Dice: 4, Chat: "[player2] hits [player1] with a poison dart!"},
		{Name: "Mend Wounds", Type: "h", Description: "Bandages and a steady hand", Num: 1, Dice: 6, Chat: "[player2] mends the wounds of [player1]."},
		{Name: "Healing Light", Type: "h", Description: "A warm glow that knits flesh", Num: 2, Dice: 6, Chat: "[player2] bathes [player1] in healing light."},
		{Name: "Forest Remedy", Type: "h", Description: "Herbs gathered from the deep woods", Num: 1, Dice: 8, Chat: "[player2] treats [player1] with a forest remedy."},
	}
}

// Seed inserts the default abilities, skipping names that exist. Runs
// at startup after the migration.
func Seed(db *gorm.DB) error {
	for _, ability := range Defaults() {
		result := db.Where("name = ?", ability.Name).FirstOrCreate(&ability)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("[DB] Seeded ability %s", ability.Name)
		}
	}
	return nil
}
