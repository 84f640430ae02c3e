package models

import (
	"time"
)

// CodingChallenge is one step of a coding mission. Order is unique within
// the mission so the sequential-unlock check stays simple.
type CodingChallenge struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	MissionID      uint    `gorm:"not null;index;uniqueIndex:uq_coding_challenge_order" json:"mission_id"`
	Order          int     `gorm:"not null;uniqueIndex:uq_coding_challenge_order" json:"order"`
	Title          string  `gorm:"size:160;not null" json:"title"`
	Prompt         string  `gorm:"type:text;not null" json:"prompt"`
	StarterCode    *string `gorm:"type:text" json:"starter_code,omitempty"`
	InputData      *string `gorm:"type:text" json:"input_data,omitempty"`
	ExpectedOutput string  `gorm:"type:text;not null" json:"-"`

	Timestamps
}

// CodingProgress tracks how far a pilot got in one coding mission.
// CurrentOrder only ever increases.
type CodingProgress struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:uq_coding_progress" json:"user_id"`
	MissionID    uint       `gorm:"not null;uniqueIndex:uq_coding_progress" json:"mission_id"`
	CurrentOrder int        `gorm:"default:0;not null" json:"current_order"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// CodingAttempt is one sandbox run. Append-only audit trail, never mutated.
type CodingAttempt struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ChallengeID uint   `gorm:"not null;index" json:"challenge_id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Code        string `gorm:"type:text;not null" json:"code"`
	Stdout      string `gorm:"type:text;not null;default:''" json:"stdout"`
	Stderr      string `gorm:"type:text;not null;default:''" json:"stderr"`
	ExitCode    int    `gorm:"not null;default:0" json:"exit_code"`
	TimedOut    bool   `gorm:"not null;default:false" json:"timed_out"`
	IsPassed    bool   `gorm:"not null;default:false" json:"is_passed"`

	Timestamps
}
