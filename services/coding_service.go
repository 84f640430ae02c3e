package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"gorm.io/gorm"
)

type CodingService struct {
	DB       *gorm.DB
	Runner   utils.CodeRunner
	Missions *MissionService
	Timeout  time.Duration
}

func NewCodingService(db *gorm.DB, runner utils.CodeRunner, missions *MissionService, timeout time.Duration) *CodingService {
	return &CodingService{DB: db, Runner: runner, Missions: missions, Timeout: timeout}
}

// AttemptEvaluation is the outcome of one graded run.
type AttemptEvaluation struct {
	Attempt          *models.CodingAttempt `json:"attempt"`
	MissionCompleted bool                  `json:"mission_completed"`
}

// normalizeOutput unifies line endings and strips trailing newlines so
// expected and actual output compare byte-for-byte.
func normalizeOutput(raw string) string {
	return strings.TrimRight(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

// getProgress loads or creates the pilot's progress row for the mission.
func (s *CodingService) getProgress(db *gorm.DB, userID, missionID uint) (*models.CodingProgress, error) {
	var progress models.CodingProgress
	err := db.Where("user_id = ? AND mission_id = ?", userID, missionID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.CodingProgress{UserID: userID, MissionID: missionID, CurrentOrder: 0}
		if err := db.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Evaluate runs the pilot's code against one challenge.
//
// Sequential unlock: a challenge past CurrentOrder+1 errors without
// recording anything; any already-reached challenge may be rerun and the
// run is recorded, but only a pass of the challenge at CurrentOrder+1
// advances progress. When the last challenge passes, the mission is
// auto-credited through the regular approve path.
func (s *CodingService) Evaluate(user *models.User, missionID, challengeID uint, code string) (*AttemptEvaluation, error) {
	var mission models.Mission
	if err := s.DB.Where("id = ? AND is_active = ?", missionID, true).First(&mission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}

	var challenge models.CodingChallenge
	if err := s.DB.Where("id = ? AND mission_id = ?", challengeID, mission.ID).
		First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Задание не найдено", ErrNotFound)
		}
		return nil, err
	}

	progress, err := s.getProgress(s.DB, user.ID, mission.ID)
	if err != nil {
		return nil, err
	}
	if challenge.Order > progress.CurrentOrder+1 {
		return nil, ErrOutOfSequence
	}

	stdin := ""
	if challenge.InputData != nil {
		stdin = *challenge.InputData
	}
	// Blocks the request until the sandbox finishes or kills the run.
	runResult, err := s.Runner.Run(code, stdin, s.Timeout)
	if err != nil {
		return nil, err
	}

	expected := normalizeOutput(challenge.ExpectedOutput)
	actual := normalizeOutput(runResult.Stdout)
	isPassed := runResult.ExitCode == 0 && actual == expected

	attempt := models.CodingAttempt{
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		Code:        code,
		Stdout:      runResult.Stdout,
		Stderr:      runResult.Stderr,
		ExitCode:    runResult.ExitCode,
		TimedOut:    runResult.TimedOut,
		IsPassed:    isPassed,
	}

	missionCompleted := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		if !isPassed || challenge.Order != progress.CurrentOrder+1 {
			return nil
		}

		progress.CurrentOrder = challenge.Order
		if err := tx.Model(progress).Update("current_order", progress.CurrentOrder).Error; err != nil {
			return err
		}

		var total int64
		if err := tx.Model(&models.CodingChallenge{}).
			Where("mission_id = ?", mission.ID).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || int64(progress.CurrentOrder) < total {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Model(progress).Update("completed_at", now).Error; err != nil {
			return err
		}
		completed, err := s.finalizeMission(tx, user, &mission)
		if err != nil {
			return err
		}
		missionCompleted = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AttemptEvaluation{Attempt: &attempt, MissionCompleted: missionCompleted}, nil
}

// finalizeMission credits the mission once all challenges are solved.
// Idempotent: an already-approved submission is left alone.
func (s *CodingService) finalizeMission(tx *gorm.DB, user *models.User, mission *models.Mission) (bool, error) {
	var submission models.MissionSubmission
	err := lockForUpdate(tx).
		Where("user_id = ? AND mission_id = ?", user.ID, mission.ID).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		comment := "Автоматическая проверка: все задания решены."
		submission = models.MissionSubmission{
			UserID:    user.ID,
			MissionID: mission.ID,
			Comment:   &comment,
		}
		if err := tx.Create(&submission).Error; err != nil {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	if submission.Status == models.SubmissionApproved {
		return true, nil
	}
	if err := s.Missions.ApproveTx(tx, &submission); err != nil {
		return false, err
	}
	return true, nil
}

// MissionState is the grader view the frontend polls.
type MissionState struct {
	MissionID           uint                    `json:"mission_id"`
	TotalChallenges     int                     `json:"total_challenges"`
	CompletedChallenges int                     `json:"completed_challenges"`
	IsCompleted         bool                    `json:"is_completed"`
	NextChallenge       *models.CodingChallenge `json:"next_challenge,omitempty"`
	LastAttempts        []models.CodingAttempt  `json:"last_attempts"`
	LastCode            *string                 `json:"last_code,omitempty"`
}

// BuildState reports the pilot's position in the coding mission.
func (s *CodingService) BuildState(user *models.User, missionID uint) (*MissionState, error) {
	var mission models.Mission
	if err := s.DB.Where("id = ? AND is_active = ?", missionID, true).First(&mission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}

	progress, err := s.getProgress(s.DB, user.ID, mission.ID)
	if err != nil {
		return nil, err
	}

	var challenges []models.CodingChallenge
	if err := s.DB.Where("mission_id = ?", mission.ID).
		Order("\"order\"").Find(&challenges).Error; err != nil {
		return nil, err
	}

	state := &MissionState{
		MissionID:           mission.ID,
		TotalChallenges:     len(challenges),
		CompletedChallenges: progress.CurrentOrder,
		IsCompleted:         len(challenges) > 0 && progress.CurrentOrder >= len(challenges),
		LastAttempts:        []models.CodingAttempt{},
	}

	challengeIDs := make([]uint, 0, len(challenges))
	for _, challenge := range challenges {
		challengeIDs = append(challengeIDs, challenge.ID)
	}

	if progress.CurrentOrder < len(challenges) {
		next := challenges[progress.CurrentOrder]
		state.NextChallenge = &next
	}

	if len(challengeIDs) > 0 {
		if err := s.DB.Where("user_id = ? AND challenge_id IN ?", user.ID, challengeIDs).
			Order("created_at DESC").
			Limit(5).
			Find(&state.LastAttempts).Error; err != nil {
			return nil, err
		}
		if len(state.LastAttempts) > 0 {
			state.LastCode = &state.LastAttempts[0].Code
		}
	}

	return state, nil
}
