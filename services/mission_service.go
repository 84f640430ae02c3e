package services

import (
	"errors"
	"fmt"
	"log"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MissionService struct {
	DB      *gorm.DB
	Journal *JournalService
	Ranks   *RankService
	Docs    utils.DocumentStore
}

func NewMissionService(db *gorm.DB, journal *JournalService, ranks *RankService, docs utils.DocumentStore) *MissionService {
	return &MissionService{DB: db, Journal: journal, Ranks: ranks, Docs: docs}
}

// MissionSummary is one row of the mission list, with availability already
// computed for the requesting pilot.
type MissionSummary struct {
	Mission          *models.Mission          `json:"mission"`
	IsAvailable      bool                     `json:"is_available"`
	IsCompleted      bool                     `json:"is_completed"`
	LockedReasons    []string                 `json:"locked_reasons"`
	RegistrationOpen bool                     `json:"registration_open"`
	SubmissionStatus *models.SubmissionStatus `json:"submission_status,omitempty"`
}

// ListMissions returns all active missions with per-pilot availability.
func (s *MissionService) ListMissions(user *models.User) ([]MissionSummary, error) {
	ctx, err := BuildAvailabilityContext(s.DB, user.ID)
	if err != nil {
		return nil, err
	}

	var missions []models.Mission
	if err := s.DB.Preload("Prerequisites").Preload("MinimumRank").
		Where("is_active = ?", true).
		Order("id").
		Find(&missions).Error; err != nil {
		return nil, err
	}

	var submissions []models.MissionSubmission
	if err := s.DB.Where("user_id = ?", user.ID).Find(&submissions).Error; err != nil {
		return nil, err
	}
	statusByMission := make(map[uint]models.SubmissionStatus, len(submissions))
	for _, sub := range submissions {
		statusByMission[sub.MissionID] = sub.Status
	}

	summaries := make([]MissionSummary, 0, len(missions))
	for i := range missions {
		mission := &missions[i]
		available, reasons := MissionAvailability(mission, user, ctx)
		completed := ctx.CompletedMissions[mission.ID]
		summary := MissionSummary{
			Mission:          mission,
			IsAvailable:      available && !completed,
			IsCompleted:      completed,
			LockedReasons:    reasons,
			RegistrationOpen: RegistrationIsOpen(mission, ctx),
		}
		if status, ok := statusByMission[mission.ID]; ok {
			summary.SubmissionStatus = &status
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// BranchMissionView is one mission slot inside a branch listing.
type BranchMissionView struct {
	MissionID    uint   `json:"mission_id"`
	MissionTitle string `json:"mission_title"`
	Order        int    `json:"order"`
	IsCompleted  bool   `json:"is_completed"`
	IsAvailable  bool   `json:"is_available"`
}

// BranchView is a branch with per-pilot completion counters.
type BranchView struct {
	ID                uint                `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Category          string              `json:"category"`
	Missions          []BranchMissionView `json:"missions"`
	TotalMissions     int                 `json:"total_missions"`
	CompletedMissions int                 `json:"completed_missions"`
}

// ListBranches returns every branch with its ordered missions and the
// pilot's progress through each.
func (s *MissionService) ListBranches(user *models.User) ([]BranchView, error) {
	ctx, err := BuildAvailabilityContext(s.DB, user.ID)
	if err != nil {
		return nil, err
	}

	var branches []models.Branch
	if err := s.DB.Preload("Missions", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"order\"")
	}).Preload("Missions.Mission.Prerequisites").
		Preload("Missions.Mission.MinimumRank").
		Order("title").
		Find(&branches).Error; err != nil {
		return nil, err
	}

	views := make([]BranchView, 0, len(branches))
	for _, branch := range branches {
		view := BranchView{
			ID:          branch.ID,
			Title:       branch.Title,
			Description: branch.Description,
			Category:    branch.Category,
			Missions:    []BranchMissionView{},
		}
		for _, link := range branch.Missions {
			completed := ctx.CompletedMissions[link.MissionID]
			available := false
			title := ""
			if link.Mission != nil {
				title = link.Mission.Title
				available, _ = MissionAvailability(link.Mission, user, ctx)
			}
			view.Missions = append(view.Missions, BranchMissionView{
				MissionID:    link.MissionID,
				MissionTitle: title,
				Order:        link.Order,
				IsCompleted:  completed,
				IsAvailable:  available && !completed,
			})
			view.TotalMissions++
			if completed {
				view.CompletedMissions++
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// GetMissionDetail loads one active mission with availability for the pilot.
func (s *MissionService) GetMissionDetail(user *models.User, missionID uint) (*MissionSummary, error) {
	var mission models.Mission
	err := s.DB.Preload("Prerequisites").Preload("MinimumRank").
		Preload("CompetencyRewards.Competency").
		Preload("Artifact").
		Preload("CodingChallenges", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\"")
		}).
		Where("id = ? AND is_active = ?", missionID, true).
		First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}

	ctx, err := BuildAvailabilityContext(s.DB, user.ID)
	if err != nil {
		return nil, err
	}
	available, reasons := MissionAvailability(&mission, user, ctx)
	completed := ctx.CompletedMissions[mission.ID]

	summary := &MissionSummary{
		Mission:          &mission,
		IsAvailable:      available && !completed,
		IsCompleted:      completed,
		LockedReasons:    reasons,
		RegistrationOpen: RegistrationIsOpen(&mission, ctx),
	}
	var submission models.MissionSubmission
	if err := s.DB.Where("user_id = ? AND mission_id = ?", user.ID, mission.ID).
		First(&submission).Error; err == nil {
		summary.SubmissionStatus = &submission.Status
	}
	return summary, nil
}

// SubmissionInput carries the pilot's report. Document fields are tagged
// updates: an absent field keeps the stored file, an explicit null clears
// it, a path replaces it.
type SubmissionInput struct {
	Comment  *string
	ProofURL *string

	PassportPath utils.Field[string]
	PhotoPath    utils.Field[string]
	ResumePath   utils.Field[string]
	ResumeLink   utils.Field[string]
}

// Submit upserts the pilot's submission for the mission and resets it to
// pending. Resubmission of an approved mission fails; resubmission after a
// rejection replaces the previous report. Availability is enforced for the
// first submit only — a rejected submission may always be retried.
func (s *MissionService) Submit(user *models.User, missionID uint, input SubmissionInput) (*models.MissionSubmission, error) {
	var mission models.Mission
	err := s.DB.Preload("Prerequisites").Preload("MinimumRank").
		Where("id = ? AND is_active = ?", missionID, true).
		First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}

	var submission models.MissionSubmission
	found := true
	if err := s.DB.Where("user_id = ? AND mission_id = ?", user.ID, mission.ID).
		First(&submission).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		found = false
	}

	if found && submission.Status == models.SubmissionApproved {
		return nil, ErrAlreadyCredited
	}

	if !found {
		ctx, err := BuildAvailabilityContext(s.DB, user.ID)
		if err != nil {
			return nil, err
		}
		if available, reasons := MissionAvailability(&mission, user, ctx); !available {
			if len(reasons) == 0 {
				reasons = []string{"Миссия недоступна"}
			}
			return nil, &UnavailableError{Reasons: reasons}
		}
		submission = models.MissionSubmission{UserID: user.ID, MissionID: mission.ID}
	}

	submission.Comment = input.Comment
	submission.ProofURL = input.ProofURL
	s.replaceDocument(&submission.PassportPath, input.PassportPath)
	s.replaceDocument(&submission.PhotoPath, input.PhotoPath)
	s.replaceDocument(&submission.ResumePath, input.ResumePath)
	input.ResumeLink.Apply(&submission.ResumeLink)
	submission.Status = models.SubmissionPending

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if submission.ID == 0 {
			// The unique (user, mission) index serializes concurrent
			// submits; the later writer converges on the same row.
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
				UpdateAll: true,
			}).Create(&submission).Error; err != nil {
				return err
			}
		} else if err := tx.Save(&submission).Error; err != nil {
			return err
		}
		return s.Journal.LogEvent(tx, user.ID, models.EventMissionCompleted,
			fmt.Sprintf("Отправка миссии «%s»", mission.Title),
			"Отчёт отправлен и ожидает проверки.",
			map[string]any{"mission_id": mission.ID}, 0, 0)
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// replaceDocument applies a tagged document update, deleting the superseded
// file from the store.
func (s *MissionService) replaceDocument(current **string, update utils.Field[string]) {
	if !update.Set {
		return
	}
	old := *current
	if old != nil && (update.Value == nil || *update.Value != *old) {
		if err := s.Docs.Delete(*old); err != nil {
			log.Printf("⚠️  Failed to delete superseded document %s: %v", *old, err)
		}
	}
	*current = update.Value
}

// Approve credits the submission. Idempotent: an already-approved
// submission is returned unchanged. All reward steps and the rank
// recomputation commit in one transaction.
func (s *MissionService) Approve(submissionID uint) (*models.MissionSubmission, error) {
	var result models.MissionSubmission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var submission models.MissionSubmission
		if err := lockForUpdate(tx).
			First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Отправка не найдена", ErrNotFound)
			}
			return err
		}
		if err := s.ApproveTx(tx, &submission); err != nil {
			return err
		}
		result = submission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveTx runs the approve path inside the caller's transaction. The
// grader uses it to auto-credit a finished coding mission.
func (s *MissionService) ApproveTx(tx *gorm.DB, submission *models.MissionSubmission) error {
	if submission.Status == models.SubmissionApproved {
		return nil
	}

	var mission models.Mission
	if err := tx.Preload("CompetencyRewards").First(&mission, submission.MissionID).Error; err != nil {
		return err
	}
	var user models.User
	if err := lockForUpdate(tx).First(&user, submission.UserID).Error; err != nil {
		return err
	}

	submission.Status = models.SubmissionApproved
	submission.AwardedXP = mission.XPReward
	submission.AwardedMana = mission.ManaReward
	if err := tx.Save(submission).Error; err != nil {
		return err
	}

	user.XP += submission.AwardedXP
	user.Mana += submission.AwardedMana
	if err := tx.Model(&user).Updates(map[string]any{
		"xp":   user.XP,
		"mana": user.Mana,
	}).Error; err != nil {
		return err
	}

	for _, reward := range mission.CompetencyRewards {
		var uc models.UserCompetency
		err := tx.Where("user_id = ? AND competency_id = ?", user.ID, reward.CompetencyID).
			First(&uc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			uc = models.UserCompetency{UserID: user.ID, CompetencyID: reward.CompetencyID, Level: 0}
			if err := tx.Create(&uc).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		uc.Level += reward.LevelDelta
		if err := tx.Model(&uc).Update("level", uc.Level).Error; err != nil {
			return err
		}
	}

	if mission.ArtifactID != nil {
		var owned int64
		if err := tx.Model(&models.UserArtifact{}).
			Where("user_id = ? AND artifact_id = ?", user.ID, *mission.ArtifactID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			grant := models.UserArtifact{UserID: user.ID, ArtifactID: *mission.ArtifactID}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
			if err := s.Journal.LogEvent(tx, user.ID, models.EventMissionCompleted,
				fmt.Sprintf("Получен артефакт за миссию «%s»", mission.Title),
				"Новый артефакт добавлен в коллекцию.",
				map[string]any{"artifact_id": *mission.ArtifactID}, 0, 0,
			); err != nil {
				return err
			}
		}
	}

	if err := s.Journal.LogEvent(tx, user.ID, models.EventMissionCompleted,
		fmt.Sprintf("Миссия «%s» подтверждена", mission.Title),
		"HR одобрил выполнение миссии.",
		map[string]any{"mission_id": mission.ID},
		submission.AwardedXP, submission.AwardedMana,
	); err != nil {
		return err
	}

	_, err := s.Ranks.ApplyRankUpgrade(tx, &user)
	return err
}

// Reject sends the submission back with an HR comment. Rewards are never
// touched here; an approved submission cannot reach this path.
func (s *MissionService) Reject(submissionID uint, comment string) (*models.MissionSubmission, error) {
	var result models.MissionSubmission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var submission models.MissionSubmission
		if err := tx.Preload("Mission").First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Отправка не найдена", ErrNotFound)
			}
			return err
		}
		if submission.Status == models.SubmissionApproved {
			return ErrAlreadyCredited
		}

		submission.Status = models.SubmissionRejected
		if comment != "" {
			submission.Comment = &comment
		}
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		title := ""
		if submission.Mission != nil {
			title = submission.Mission.Title
		}
		description := comment
		if description == "" {
			description = "Проверьте отчёт и отправьте снова."
		}
		if err := s.Journal.LogEvent(tx, submission.UserID, models.EventMissionCompleted,
			fmt.Sprintf("Миссия «%s» отклонена", title),
			description,
			map[string]any{"mission_id": submission.MissionID}, 0, 0,
		); err != nil {
			return err
		}
		result = submission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSubmission returns the pilot's submission for a mission, or ErrNotFound.
func (s *MissionService) GetSubmission(user *models.User, missionID uint) (*models.MissionSubmission, error) {
	var submission models.MissionSubmission
	err := s.DB.Where("user_id = ? AND mission_id = ?", user.ID, missionID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Отправка не найдена", ErrNotFound)
		}
		return nil, err
	}
	return &submission, nil
}

// Register books the pilot onto an offline event. Idempotent for a pilot
// already registered.
func (s *MissionService) Register(user *models.User, missionID uint) (*models.MissionRegistration, error) {
	var mission models.Mission
	err := s.DB.Where("id = ? AND is_active = ?", missionID, true).First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}
	if mission.Format != models.FormatOffline {
		return nil, ErrOnlineMission
	}

	var registration models.MissionRegistration
	err = s.DB.Where("mission_id = ? AND user_id = ?", mission.ID, user.ID).
		First(&registration).Error
	if err == nil {
		return &registration, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ctx, err := BuildAvailabilityContext(s.DB, user.ID)
	if err != nil {
		return nil, err
	}
	if mission.Capacity != nil && ctx.RegistrationCounts[mission.ID] >= *mission.Capacity {
		return nil, ErrNoSeatsLeft
	}
	if mission.RegistrationDeadline != nil && mission.RegistrationDeadline.Before(ctx.Now) {
		return nil, ErrRegistrationClosed
	}
	if mission.EventStartsAt != nil && mission.EventStartsAt.Before(ctx.Now) {
		return nil, ErrEventStarted
	}

	registration = models.MissionRegistration{MissionID: mission.ID, UserID: user.ID}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&registration).Error; err != nil {
			return err
		}
		return s.Journal.LogEvent(tx, user.ID, models.EventMissionCompleted,
			fmt.Sprintf("Заявка на мероприятие «%s» отправлена", mission.Title),
			"Вы записались на офлайн-мероприятие. Напоминание придёт ближе к дате.",
			map[string]any{"mission_id": mission.ID}, 0, 0)
	})
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// ModerationQueue lists pending submissions for HR review, oldest first.
func (s *MissionService) ModerationQueue() ([]models.MissionSubmission, error) {
	var pending []models.MissionSubmission
	err := s.DB.Preload("Mission").Preload("User").
		Where("status = ?", models.SubmissionPending).
		Order("created_at").
		Find(&pending).Error
	return pending, err
}
