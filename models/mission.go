package models

import (
	"time"
)

// MissionDifficulty is a rough effort tier shown on mission cards.
type MissionDifficulty string

const (
	DifficultyEasy   MissionDifficulty = "easy"
	DifficultyMedium MissionDifficulty = "medium"
	DifficultyHard   MissionDifficulty = "hard"
)

// MissionFormat tells online (digital submission) from offline (scheduled event).
type MissionFormat string

const (
	FormatOnline  MissionFormat = "online"
	FormatOffline MissionFormat = "offline"
)

// Mission is a single unit of work a pilot can complete for rewards.
// Offline missions additionally carry event fields (location, capacity,
// registration window).
type Mission struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Title       string            `gorm:"size:160;not null" json:"title"`
	Slug        string            `gorm:"size:180;index" json:"slug"`
	Description string            `gorm:"type:text;not null" json:"description"`
	XPReward    int               `gorm:"default:0;not null" json:"xp_reward"`
	ManaReward  int               `gorm:"default:0;not null" json:"mana_reward"`
	Difficulty  MissionDifficulty `gorm:"size:16;default:'medium';not null" json:"difficulty"`
	Format      MissionFormat     `gorm:"size:16;default:'online';not null" json:"format"`
	IsActive    bool              `gorm:"default:true;not null" json:"is_active"`

	MinimumRankID *uint `json:"minimum_rank_id,omitempty"`
	ArtifactID    *uint `json:"artifact_id,omitempty"`

	// Offline event fields, nil for online missions.
	EventLocation        *string    `gorm:"size:160" json:"event_location,omitempty"`
	EventAddress         *string    `gorm:"size:255" json:"event_address,omitempty"`
	EventStartsAt        *time.Time `json:"event_starts_at,omitempty"`
	EventEndsAt          *time.Time `json:"event_ends_at,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	RegistrationNotes    *string    `gorm:"type:text" json:"registration_notes,omitempty"`
	Capacity             *int       `json:"capacity,omitempty"`
	ContactPerson        *string    `gorm:"size:120" json:"contact_person,omitempty"`
	ContactPhone         *string    `gorm:"size:64" json:"contact_phone,omitempty"`

	MinimumRank       *Rank                     `gorm:"foreignKey:MinimumRankID" json:"minimum_rank,omitempty"`
	Artifact          *Artifact                 `gorm:"foreignKey:ArtifactID" json:"artifact,omitempty"`
	Prerequisites     []MissionPrerequisite     `gorm:"foreignKey:MissionID" json:"prerequisites,omitempty"`
	CompetencyRewards []MissionCompetencyReward `gorm:"foreignKey:MissionID" json:"competency_rewards,omitempty"`
	CodingChallenges  []CodingChallenge         `gorm:"foreignKey:MissionID" json:"coding_challenges,omitempty"`

	Timestamps
}

// MissionCompetencyReward says which competency levels a mission raises.
type MissionCompetencyReward struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	MissionID    uint `gorm:"not null;uniqueIndex:uq_mission_competency" json:"mission_id"`
	CompetencyID uint `gorm:"not null;uniqueIndex:uq_mission_competency" json:"competency_id"`
	LevelDelta   int  `gorm:"default:1;not null" json:"level_delta"`

	Competency *Competency `gorm:"foreignKey:CompetencyID" json:"competency,omitempty"`

	Timestamps
}

// MissionPrerequisite is an explicit "finish that before this" edge.
type MissionPrerequisite struct {
	ID                uint `gorm:"primaryKey" json:"id"`
	MissionID         uint `gorm:"not null;uniqueIndex:uq_mission_prerequisite" json:"mission_id"`
	RequiredMissionID uint `gorm:"not null;uniqueIndex:uq_mission_prerequisite" json:"required_mission_id"`

	Timestamps
}

// SubmissionStatus is the review state of a pilot's mission report.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// MissionSubmission is the single report a pilot files per mission.
// Awarded XP/mana are frozen at approval time; zero until then.
type MissionSubmission struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;uniqueIndex:uq_user_mission_submission" json:"user_id"`
	MissionID uint             `gorm:"not null;uniqueIndex:uq_user_mission_submission" json:"mission_id"`
	Status    SubmissionStatus `gorm:"size:16;default:'pending';not null" json:"status"`

	Comment  *string `gorm:"type:text" json:"comment,omitempty"`
	ProofURL *string `gorm:"size:512" json:"proof_url,omitempty"`

	// Relative paths inside the document store.
	PassportPath *string `gorm:"size:512" json:"passport_path,omitempty"`
	PhotoPath    *string `gorm:"size:512" json:"photo_path,omitempty"`
	ResumePath   *string `gorm:"size:512" json:"resume_path,omitempty"`
	ResumeLink   *string `gorm:"size:512" json:"resume_link,omitempty"`

	AwardedXP   int `gorm:"default:0;not null" json:"awarded_xp"`
	AwardedMana int `gorm:"default:0;not null" json:"awarded_mana"`

	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Timestamps
}

// MissionRegistration books a seat at an offline event.
type MissionRegistration struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	MissionID uint `gorm:"not null;uniqueIndex:uq_mission_registration" json:"mission_id"`
	UserID    uint `gorm:"not null;uniqueIndex:uq_mission_registration" json:"user_id"`

	Timestamps
}
