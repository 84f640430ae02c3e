package models

// Rank is a tier pilots unlock with XP plus mission and competency
// requirements. Ranks are totally ordered by RequiredXP.
type Rank struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:120;uniqueIndex;not null" json:"title"`
	Description string `gorm:"size:512;not null" json:"description"`
	RequiredXP  int    `gorm:"default:0;not null" json:"required_xp"`

	MissionRequirements    []RankMissionRequirement    `gorm:"foreignKey:RankID" json:"mission_requirements,omitempty"`
	CompetencyRequirements []RankCompetencyRequirement `gorm:"foreignKey:RankID" json:"competency_requirements,omitempty"`

	Timestamps
}

// RankMissionRequirement names a mission that must be approved for the rank.
type RankMissionRequirement struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	RankID    uint `gorm:"not null;uniqueIndex:uq_rank_mission" json:"rank_id"`
	MissionID uint `gorm:"not null;uniqueIndex:uq_rank_mission" json:"mission_id"`

	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`

	Timestamps
}

// RankCompetencyRequirement names a minimum competency level for the rank.
type RankCompetencyRequirement struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	RankID        uint `gorm:"not null;uniqueIndex:uq_rank_competency" json:"rank_id"`
	CompetencyID  uint `gorm:"not null;uniqueIndex:uq_rank_competency" json:"competency_id"`
	RequiredLevel int  `gorm:"default:0;not null" json:"required_level"`

	Competency *Competency `gorm:"foreignKey:CompetencyID" json:"competency,omitempty"`

	Timestamps
}
