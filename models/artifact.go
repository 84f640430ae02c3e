package models

// ArtifactRarity mirrors the usual collectible tiers.
type ArtifactRarity string

const (
	RarityCommon    ArtifactRarity = "common"
	RarityRare      ArtifactRarity = "rare"
	RarityEpic      ArtifactRarity = "epic"
	RarityLegendary ArtifactRarity = "legendary"
)

// Artifact is a collectible granted for missions. Profile modifiers carry
// cosmetic effect metadata the frontend renders on the pilot's profile.
type Artifact struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:160;uniqueIndex;not null" json:"name"`
	Slug        string         `gorm:"size:180;index" json:"slug"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Rarity      ArtifactRarity `gorm:"size:16;not null" json:"rarity"`
	ImageURL    *string        `gorm:"size:512" json:"image_url,omitempty"`

	IsProfileModifier   bool    `gorm:"default:false;not null" json:"is_profile_modifier"`
	BackgroundEffect    *string `gorm:"size:255" json:"background_effect,omitempty"`
	ProfileEffect       *string `gorm:"size:255" json:"profile_effect,omitempty"`
	ModifierDescription *string `gorm:"type:text" json:"modifier_description,omitempty"`

	Timestamps
}
