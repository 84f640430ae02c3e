package models

// Branch groups missions into an ordered storyline. Position in the branch
// is an implicit prerequisite chain on top of explicit prerequisites.
type Branch struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:120;uniqueIndex;not null" json:"title"`
	Slug        string `gorm:"size:140;index" json:"slug"`
	Description string `gorm:"size:512;not null" json:"description"`
	Category    string `gorm:"size:64;default:'quest';not null" json:"category"`

	Missions []BranchMission `gorm:"foreignKey:BranchID" json:"missions,omitempty"`

	Timestamps
}

// BranchMission links a mission into a branch at a position.
type BranchMission struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BranchID  uint `gorm:"not null;uniqueIndex:uq_branch_mission_order" json:"branch_id"`
	MissionID uint `gorm:"not null;index" json:"mission_id"`
	Order     int  `gorm:"default:1;not null;uniqueIndex:uq_branch_mission_order" json:"order"`

	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`

	Timestamps
}
