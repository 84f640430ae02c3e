package services

import (
	"fmt"
	"time"

	"pilot-onboarding-system/models"

	"gorm.io/gorm"
)

type JournalService struct {
	DB *gorm.DB
}

func NewJournalService(db *gorm.DB) *JournalService {
	return &JournalService{DB: db}
}

// LogEvent appends one journal entry. Callers inside a transaction pass
// their tx so the entry commits or rolls back with the rest of the work.
func (s *JournalService) LogEvent(
	tx *gorm.DB,
	userID uint,
	eventType models.JournalEventType,
	title, description string,
	payload map[string]any,
	xpDelta, manaDelta int,
) error {
	entry := models.JournalEntry{
		UserID:      userID,
		EventType:   eventType,
		Title:       title,
		Description: description,
		Payload:     payload,
		XPDelta:     xpDelta,
		ManaDelta:   manaDelta,
	}
	if tx == nil {
		tx = s.DB
	}
	return tx.Create(&entry).Error
}

// ListForUser returns the pilot's entries, newest first.
func (s *JournalService) ListForUser(userID uint) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// LeaderboardEntry is one row of the XP/mana top list.
type LeaderboardEntry struct {
	UserID    uint   `json:"user_id"`
	FullName  string `json:"full_name"`
	XPDelta   int    `json:"xp_delta"`
	ManaDelta int    `json:"mana_delta"`
}

var leaderboardPeriods = map[string]int{"week": 7, "month": 30, "year": 365}

// Leaderboard sums journal deltas per pilot over the period and returns the
// top five by XP gained.
func (s *JournalService) Leaderboard(period string) ([]LeaderboardEntry, error) {
	days, ok := leaderboardPeriods[period]
	if !ok {
		return nil, fmt.Errorf("Неизвестный период %q", period)
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var entries []LeaderboardEntry
	err := s.DB.Model(&models.JournalEntry{}).
		Select("journal_entries.user_id",
			"users.full_name",
			"COALESCE(SUM(journal_entries.xp_delta), 0) AS xp_delta",
			"COALESCE(SUM(journal_entries.mana_delta), 0) AS mana_delta").
		Joins("INNER JOIN users ON users.id = journal_entries.user_id").
		Where("journal_entries.created_at >= ?", since).
		Group("journal_entries.user_id, users.full_name").
		Order("xp_delta DESC").
		Limit(5).
		Scan(&entries).Error
	return entries, err
}
