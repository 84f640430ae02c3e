package models

// UserRole separates pilots from the HR crew reviewing them.
type UserRole string

const (
	RolePilot UserRole = "pilot"
	RoleHR    UserRole = "hr"
	RoleAdmin UserRole = "admin"
)

// User is a pilot (or HR/admin) progressing through the program.
// XP and mana are only ever mutated by the mission and rank services.
type User struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	Email         string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName      string   `gorm:"size:255;not null" json:"full_name"`
	Role          UserRole `gorm:"size:16;default:'pilot';index" json:"role"`
	XP            int      `gorm:"default:0;not null" json:"xp"`
	Mana          int      `gorm:"default:0;not null" json:"mana"`
	CurrentRankID *uint    `json:"current_rank_id,omitempty"`
	IsActive      bool     `gorm:"default:true;not null" json:"is_active"`

	// Candidate wishes recorded at registration; help HR on first contact.
	PreferredBranch *string `gorm:"size:160" json:"preferred_branch,omitempty"`
	Motivation      *string `gorm:"type:text" json:"motivation,omitempty"`

	CurrentRank  *Rank            `gorm:"foreignKey:CurrentRankID" json:"current_rank,omitempty"`
	Competencies []UserCompetency `gorm:"foreignKey:UserID" json:"competencies,omitempty"`
	Artifacts    []UserArtifact   `gorm:"foreignKey:UserID" json:"artifacts,omitempty"`

	Timestamps
}

// CompetencyCategory groups skill dimensions for display.
type CompetencyCategory string

const (
	CategoryCommunication CompetencyCategory = "communication"
	CategoryAnalytics     CompetencyCategory = "analytics"
	CategoryTeamwork      CompetencyCategory = "teamwork"
	CategoryLeadership    CompetencyCategory = "leadership"
	CategoryTech          CompetencyCategory = "technology"
	CategoryCulture       CompetencyCategory = "culture"
)

// Competency is a skill dimension pilots level up through missions.
type Competency struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	Name        string             `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description string             `gorm:"size:512;not null" json:"description"`
	Category    CompetencyCategory `gorm:"size:32;not null;index" json:"category"`

	Timestamps
}

// UserCompetency holds the pilot's level on one competency.
type UserCompetency struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	UserID       uint `gorm:"not null;uniqueIndex:uq_user_competency" json:"user_id"`
	CompetencyID uint `gorm:"not null;uniqueIndex:uq_user_competency" json:"competency_id"`
	Level        int  `gorm:"default:0;not null" json:"level"`

	Competency *Competency `gorm:"foreignKey:CompetencyID" json:"competency,omitempty"`

	Timestamps
}

// UserArtifact is a pilot's owned artifact. The unique index is what makes
// artifact grants idempotent.
type UserArtifact struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;uniqueIndex:uq_user_artifact" json:"user_id"`
	ArtifactID uint `gorm:"not null;uniqueIndex:uq_user_artifact" json:"artifact_id"`

	Artifact *Artifact `gorm:"foreignKey:ArtifactID" json:"artifact,omitempty"`

	Timestamps
}

// UserAppliedArtifact marks an owned profile-modifier artifact as currently
// applied to the pilot's profile.
type UserAppliedArtifact struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;uniqueIndex:uq_user_applied_artifact" json:"user_id"`
	ArtifactID uint `gorm:"not null;uniqueIndex:uq_user_applied_artifact" json:"artifact_id"`

	Artifact *Artifact `gorm:"foreignKey:ArtifactID" json:"artifact,omitempty"`

	Timestamps
}
