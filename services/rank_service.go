package services

import (
	"errors"
	"fmt"

	"pilot-onboarding-system/models"

	"gorm.io/gorm"
)

type RankService struct {
	DB      *gorm.DB
	Journal *JournalService
}

func NewRankService(db *gorm.DB, journal *JournalService) *RankService {
	return &RankService{DB: db, Journal: journal}
}

// EligibleRank finds the best rank the pilot currently qualifies for.
//
// The scan goes by ascending required XP and stops at the first rank whose
// XP threshold the pilot misses; the last rank before that point with all
// mission and competency requirements met wins. A rank may therefore be
// skipped over and still not block a later one, as long as the pilot's XP
// covers both. This matches the observed production behavior and is kept
// as-is rather than turned into a strict staircase.
func (s *RankService) EligibleRank(tx *gorm.DB, user *models.User) (*models.Rank, error) {
	var ranks []models.Rank
	if err := tx.Preload("MissionRequirements").Preload("CompetencyRequirements").
		Order("required_xp").Find(&ranks).Error; err != nil {
		return nil, err
	}

	var approvedIDs []uint
	if err := tx.Model(&models.MissionSubmission{}).
		Where("user_id = ? AND status = ?", user.ID, models.SubmissionApproved).
		Pluck("mission_id", &approvedIDs).Error; err != nil {
		return nil, err
	}
	approved := make(map[uint]bool, len(approvedIDs))
	for _, id := range approvedIDs {
		approved[id] = true
	}

	var userCompetencies []models.UserCompetency
	if err := tx.Where("user_id = ?", user.ID).Find(&userCompetencies).Error; err != nil {
		return nil, err
	}
	levels := make(map[uint]int, len(userCompetencies))
	for _, uc := range userCompetencies {
		levels[uc.CompetencyID] = uc.Level
	}

	var candidate *models.Rank
	for i := range ranks {
		rank := &ranks[i]
		if user.XP < rank.RequiredXP {
			break
		}
		satisfied := true
		for _, req := range rank.MissionRequirements {
			if !approved[req.MissionID] {
				satisfied = false
				break
			}
		}
		if satisfied {
			for _, req := range rank.CompetencyRequirements {
				if levels[req.CompetencyID] < req.RequiredLevel {
					satisfied = false
					break
				}
			}
		}
		if satisfied {
			candidate = rank
		}
	}
	return candidate, nil
}

// ApplyRankUpgrade recomputes the pilot's rank and commits the change with
// a journal entry. Returns nil when nothing changed.
func (s *RankService) ApplyRankUpgrade(tx *gorm.DB, user *models.User) (*models.Rank, error) {
	newRank, err := s.EligibleRank(tx, user)
	if err != nil {
		return nil, err
	}
	if newRank == nil || (user.CurrentRankID != nil && *user.CurrentRankID == newRank.ID) {
		return nil, nil
	}

	var previousRankID *uint
	if user.CurrentRankID != nil {
		prev := *user.CurrentRankID
		previousRankID = &prev
	}

	user.CurrentRankID = &newRank.ID
	if err := tx.Model(user).Update("current_rank_id", newRank.ID).Error; err != nil {
		return nil, err
	}

	payload := map[string]any{"new_rank_id": newRank.ID}
	if previousRankID != nil {
		payload["previous_rank_id"] = *previousRankID
	}
	if err := s.Journal.LogEvent(tx, user.ID, models.EventRankUp,
		"Повышение ранга",
		fmt.Sprintf("Пилот достиг ранга «%s».", newRank.Title),
		payload, 0, 0,
	); err != nil {
		return nil, err
	}
	return newRank, nil
}

// ProgressRank is the compact rank view used on the dashboard.
type ProgressRank struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RequiredXP  int    `json:"required_xp"`
}

// ProgressXPMetrics describes the XP stretch between the current and next rank.
type ProgressXPMetrics struct {
	Baseline        int     `json:"baseline"`
	Current         int     `json:"current"`
	Target          int     `json:"target"`
	Remaining       int     `json:"remaining"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ProgressMissionRequirement is the status of one required mission.
type ProgressMissionRequirement struct {
	MissionID    uint   `json:"mission_id"`
	MissionTitle string `json:"mission_title"`
	IsCompleted  bool   `json:"is_completed"`
}

// ProgressCompetencyRequirement is the status of one competency threshold.
type ProgressCompetencyRequirement struct {
	CompetencyID   uint   `json:"competency_id"`
	CompetencyName string `json:"competency_name"`
	RequiredLevel  int    `json:"required_level"`
	CurrentLevel   int    `json:"current_level"`
	IsMet          bool   `json:"is_met"`
}

// ProgressSnapshot aggregates everything still standing between the pilot
// and the next rank.
type ProgressSnapshot struct {
	CurrentRank            *ProgressRank                   `json:"current_rank"`
	NextRank               *ProgressRank                   `json:"next_rank"`
	XP                     ProgressXPMetrics               `json:"xp"`
	MissionRequirements    []ProgressMissionRequirement    `json:"mission_requirements"`
	CompetencyRequirements []ProgressCompetencyRequirement `json:"competency_requirements"`
	CompletedMissions      int                             `json:"completed_missions"`
	TotalMissions          int                             `json:"total_missions"`
	MetCompetencies        int                             `json:"met_competencies"`
	TotalCompetencies      int                             `json:"total_competencies"`
}

// BuildProgressSnapshot computes the dashboard view of the pilot's way to
// the next rank.
func (s *RankService) BuildProgressSnapshot(user *models.User) (*ProgressSnapshot, error) {
	snapshot := &ProgressSnapshot{
		MissionRequirements:    []ProgressMissionRequirement{},
		CompetencyRequirements: []ProgressCompetencyRequirement{},
	}

	var current *models.Rank
	if user.CurrentRankID != nil {
		var rank models.Rank
		if err := s.DB.First(&rank, *user.CurrentRankID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else {
			current = &rank
			snapshot.CurrentRank = toProgressRank(&rank)
		}
	}

	baseline := 0
	if current != nil {
		baseline = current.RequiredXP
	}

	var next models.Rank
	nextQuery := s.DB.Preload("MissionRequirements.Mission").
		Preload("CompetencyRequirements.Competency").
		Order("required_xp")
	if current != nil {
		nextQuery = nextQuery.Where("required_xp > ?", current.RequiredXP)
	}
	hasNext := true
	if err := nextQuery.First(&next).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		hasNext = false
	}

	target := user.XP
	if hasNext {
		snapshot.NextRank = toProgressRank(&next)
		target = next.RequiredXP
	}

	remaining := target - user.XP
	if remaining < 0 {
		remaining = 0
	}
	percent := 1.0
	if span := target - baseline; span > 0 {
		percent = float64(user.XP-baseline) / float64(span)
		if percent < 0 {
			percent = 0
		} else if percent > 1 {
			percent = 1
		}
	}
	snapshot.XP = ProgressXPMetrics{
		Baseline:        baseline,
		Current:         user.XP,
		Target:          target,
		Remaining:       remaining,
		ProgressPercent: percent,
	}

	if !hasNext {
		return snapshot, nil
	}

	var approvedIDs []uint
	if err := s.DB.Model(&models.MissionSubmission{}).
		Where("user_id = ? AND status = ?", user.ID, models.SubmissionApproved).
		Pluck("mission_id", &approvedIDs).Error; err != nil {
		return nil, err
	}
	approved := make(map[uint]bool, len(approvedIDs))
	for _, id := range approvedIDs {
		approved[id] = true
	}

	var userCompetencies []models.UserCompetency
	if err := s.DB.Where("user_id = ?", user.ID).Find(&userCompetencies).Error; err != nil {
		return nil, err
	}
	levels := make(map[uint]int, len(userCompetencies))
	for _, uc := range userCompetencies {
		levels[uc.CompetencyID] = uc.Level
	}

	for _, req := range next.MissionRequirements {
		title := ""
		if req.Mission != nil {
			title = req.Mission.Title
		}
		done := approved[req.MissionID]
		snapshot.MissionRequirements = append(snapshot.MissionRequirements, ProgressMissionRequirement{
			MissionID:    req.MissionID,
			MissionTitle: title,
			IsCompleted:  done,
		})
		snapshot.TotalMissions++
		if done {
			snapshot.CompletedMissions++
		}
	}

	for _, req := range next.CompetencyRequirements {
		name := ""
		if req.Competency != nil {
			name = req.Competency.Name
		}
		level := levels[req.CompetencyID]
		met := level >= req.RequiredLevel
		snapshot.CompetencyRequirements = append(snapshot.CompetencyRequirements, ProgressCompetencyRequirement{
			CompetencyID:   req.CompetencyID,
			CompetencyName: name,
			RequiredLevel:  req.RequiredLevel,
			CurrentLevel:   level,
			IsMet:          met,
		})
		snapshot.TotalCompetencies++
		if met {
			snapshot.MetCompetencies++
		}
	}

	return snapshot, nil
}

func toProgressRank(rank *models.Rank) *ProgressRank {
	return &ProgressRank{
		ID:          rank.ID,
		Title:       rank.Title,
		Description: rank.Description,
		RequiredXP:  rank.RequiredXP,
	}
}
