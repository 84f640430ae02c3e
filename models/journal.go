package models

// JournalEventType classifies journal entries.
type JournalEventType string

const (
	EventRankUp           JournalEventType = "rank_up"
	EventMissionCompleted JournalEventType = "mission_completed"
	EventOrderCreated     JournalEventType = "order_created"
	EventOrderApproved    JournalEventType = "order_approved"
	EventSkillUp          JournalEventType = "skill_up"
)

// JournalEntry is one append-only record in the pilot's flight log.
// Entries are never updated or deleted; the leaderboard sums their deltas.
type JournalEntry struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	EventType   JournalEventType `gorm:"size:32;not null" json:"event_type"`
	Title       string           `gorm:"size:160;not null" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Payload     map[string]any   `gorm:"serializer:json" json:"payload,omitempty"`
	XPDelta     int              `gorm:"default:0;not null" json:"xp_delta"`
	ManaDelta   int              `gorm:"default:0;not null" json:"mana_delta"`

	Timestamps
}
