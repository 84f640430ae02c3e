package services

import (
	"errors"
	"fmt"
	"time"

	"pilot-onboarding-system/models"
	"pilot-onboarding-system/utils"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ContentService is the HR/admin side: mission, rank, branch, artifact and
// challenge management.
type ContentService struct {
	DB *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{DB: db}
}

// MissionInput covers create and partial update. Plain pointers mean
// "set when present"; Field values distinguish clearing from keeping for
// the nullable columns.
type MissionInput struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	XPReward    *int                      `json:"xp_reward"`
	ManaReward  *int                      `json:"mana_reward"`
	Difficulty  *models.MissionDifficulty `json:"difficulty"`
	Format      *models.MissionFormat     `json:"format"`
	IsActive    *bool                     `json:"is_active"`

	MinimumRankID utils.Field[uint] `json:"minimum_rank_id"`
	ArtifactID    utils.Field[uint] `json:"artifact_id"`

	EventLocation        utils.Field[string]    `json:"event_location"`
	EventAddress         utils.Field[string]    `json:"event_address"`
	EventStartsAt        utils.Field[time.Time] `json:"event_starts_at"`
	EventEndsAt          utils.Field[time.Time] `json:"event_ends_at"`
	RegistrationDeadline utils.Field[time.Time] `json:"registration_deadline"`
	RegistrationNotes    utils.Field[string]    `json:"registration_notes"`
	Capacity             utils.Field[int]       `json:"capacity"`
	ContactPerson        utils.Field[string]    `json:"contact_person"`
	ContactPhone         utils.Field[string]    `json:"contact_phone"`

	// Full replacement lists; nil keeps the current set.
	PrerequisiteIDs   []uint                  `json:"prerequisite_ids"`
	CompetencyRewards []CompetencyRewardInput `json:"competency_rewards"`
}

// CompetencyRewardInput is one (competency, delta) pair on a mission.
type CompetencyRewardInput struct {
	CompetencyID uint `json:"competency_id"`
	LevelDelta   int  `json:"level_delta"`
}

// CreateMission inserts the mission with its prerequisite and reward lists.
func (s *ContentService) CreateMission(input MissionInput) (*models.Mission, error) {
	mission := models.Mission{IsActive: true}
	applyMissionInput(&mission, input)
	if mission.Title == "" {
		return nil, fmt.Errorf("mission title is required")
	}
	mission.Slug = slug.Make(mission.Title)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&mission).Error; err != nil {
			return err
		}
		if err := s.replacePrerequisites(tx, &mission, input.PrerequisiteIDs); err != nil {
			return err
		}
		return s.replaceCompetencyRewards(tx, &mission, input.CompetencyRewards)
	})
	if err != nil {
		return nil, err
	}
	return s.loadMission(mission.ID)
}

// UpdateMission applies a partial edit, only touching fields the caller
// actually sent.
func (s *ContentService) UpdateMission(missionID uint, input MissionInput) (*models.Mission, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}

	applyMissionInput(&mission, input)
	if input.Title != nil {
		mission.Slug = slug.Make(mission.Title)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&mission).Error; err != nil {
			return err
		}
		if input.PrerequisiteIDs != nil {
			if err := s.replacePrerequisites(tx, &mission, input.PrerequisiteIDs); err != nil {
				return err
			}
		}
		if input.CompetencyRewards != nil {
			if err := s.replaceCompetencyRewards(tx, &mission, input.CompetencyRewards); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadMission(mission.ID)
}

func applyMissionInput(mission *models.Mission, input MissionInput) {
	if input.Title != nil {
		mission.Title = *input.Title
	}
	if input.Description != nil {
		mission.Description = *input.Description
	}
	if input.XPReward != nil {
		mission.XPReward = *input.XPReward
	}
	if input.ManaReward != nil {
		mission.ManaReward = *input.ManaReward
	}
	if input.Difficulty != nil {
		mission.Difficulty = *input.Difficulty
	}
	if input.Format != nil {
		mission.Format = *input.Format
	}
	if input.IsActive != nil {
		mission.IsActive = *input.IsActive
	}

	input.MinimumRankID.Apply(&mission.MinimumRankID)
	input.ArtifactID.Apply(&mission.ArtifactID)
	input.EventLocation.Apply(&mission.EventLocation)
	input.EventAddress.Apply(&mission.EventAddress)
	input.EventStartsAt.Apply(&mission.EventStartsAt)
	input.EventEndsAt.Apply(&mission.EventEndsAt)
	input.RegistrationDeadline.Apply(&mission.RegistrationDeadline)
	input.RegistrationNotes.Apply(&mission.RegistrationNotes)
	input.Capacity.Apply(&mission.Capacity)
	input.ContactPerson.Apply(&mission.ContactPerson)
	input.ContactPhone.Apply(&mission.ContactPhone)
}

func (s *ContentService) replacePrerequisites(tx *gorm.DB, mission *models.Mission, ids []uint) error {
	if ids == nil {
		return nil
	}
	if err := tx.Where("mission_id = ?", mission.ID).
		Delete(&models.MissionPrerequisite{}).Error; err != nil {
		return err
	}
	for _, requiredID := range ids {
		if requiredID == mission.ID {
			return fmt.Errorf("mission %d cannot require itself", mission.ID)
		}
		link := models.MissionPrerequisite{MissionID: mission.ID, RequiredMissionID: requiredID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ContentService) replaceCompetencyRewards(tx *gorm.DB, mission *models.Mission, rewards []CompetencyRewardInput) error {
	if rewards == nil {
		return nil
	}
	if err := tx.Where("mission_id = ?", mission.ID).
		Delete(&models.MissionCompetencyReward{}).Error; err != nil {
		return err
	}
	for _, reward := range rewards {
		row := models.MissionCompetencyReward{
			MissionID:    mission.ID,
			CompetencyID: reward.CompetencyID,
			LevelDelta:   reward.LevelDelta,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ContentService) loadMission(missionID uint) (*models.Mission, error) {
	var mission models.Mission
	err := s.DB.Preload("Prerequisites").Preload("CompetencyRewards.Competency").
		Preload("MinimumRank").Preload("Artifact").
		First(&mission, missionID).Error
	if err != nil {
		return nil, err
	}
	return &mission, nil
}

// ListMissions returns every mission, inactive ones included.
func (s *ContentService) ListMissions() ([]models.Mission, error) {
	var missions []models.Mission
	err := s.DB.Preload("Prerequisites").Preload("MinimumRank").
		Order("id").Find(&missions).Error
	return missions, err
}

// RankInput covers create and update of a rank with its requirement lists.
type RankInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	RequiredXP  *int    `json:"required_xp"`

	// Full replacement lists; nil keeps the current set.
	MissionIDs             []uint                `json:"mission_ids"`
	CompetencyRequirements []RankCompetencyInput `json:"competency_requirements"`
}

// RankCompetencyInput is one (competency, minimum level) pair on a rank.
type RankCompetencyInput struct {
	CompetencyID  uint `json:"competency_id"`
	RequiredLevel int  `json:"required_level"`
}

// CreateRank inserts a rank with its requirements.
func (s *ContentService) CreateRank(input RankInput) (*models.Rank, error) {
	rank := models.Rank{}
	if input.Title != nil {
		rank.Title = *input.Title
	}
	if input.Description != nil {
		rank.Description = *input.Description
	}
	if input.RequiredXP != nil {
		rank.RequiredXP = *input.RequiredXP
	}
	if rank.Title == "" {
		return nil, fmt.Errorf("rank title is required")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rank).Error; err != nil {
			return err
		}
		return s.replaceRankRequirements(tx, &rank, input)
	})
	if err != nil {
		return nil, err
	}
	return s.loadRank(rank.ID)
}

// UpdateRank edits a rank and optionally replaces its requirement lists.
func (s *ContentService) UpdateRank(rankID uint, input RankInput) (*models.Rank, error) {
	var rank models.Rank
	if err := s.DB.First(&rank, rankID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Ранг не найден", ErrNotFound)
		}
		return nil, err
	}
	if input.Title != nil {
		rank.Title = *input.Title
	}
	if input.Description != nil {
		rank.Description = *input.Description
	}
	if input.RequiredXP != nil {
		rank.RequiredXP = *input.RequiredXP
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rank).Error; err != nil {
			return err
		}
		return s.replaceRankRequirements(tx, &rank, input)
	})
	if err != nil {
		return nil, err
	}
	return s.loadRank(rank.ID)
}

func (s *ContentService) replaceRankRequirements(tx *gorm.DB, rank *models.Rank, input RankInput) error {
	if input.MissionIDs != nil {
		if err := tx.Where("rank_id = ?", rank.ID).
			Delete(&models.RankMissionRequirement{}).Error; err != nil {
			return err
		}
		for _, missionID := range input.MissionIDs {
			req := models.RankMissionRequirement{RankID: rank.ID, MissionID: missionID}
			if err := tx.Create(&req).Error; err != nil {
				return err
			}
		}
	}
	if input.CompetencyRequirements != nil {
		if err := tx.Where("rank_id = ?", rank.ID).
			Delete(&models.RankCompetencyRequirement{}).Error; err != nil {
			return err
		}
		for _, item := range input.CompetencyRequirements {
			req := models.RankCompetencyRequirement{
				RankID:        rank.ID,
				CompetencyID:  item.CompetencyID,
				RequiredLevel: item.RequiredLevel,
			}
			if err := tx.Create(&req).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ContentService) loadRank(rankID uint) (*models.Rank, error) {
	var rank models.Rank
	err := s.DB.Preload("MissionRequirements.Mission").
		Preload("CompetencyRequirements.Competency").
		First(&rank, rankID).Error
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

// ListRanks returns ranks by ascending XP requirement.
func (s *ContentService) ListRanks() ([]models.Rank, error) {
	var ranks []models.Rank
	err := s.DB.Order("required_xp").Find(&ranks).Error
	return ranks, err
}

// BranchInput carries a branch edit with its ordered mission list.
type BranchInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	// Ordered mission ids; position in the slice becomes the order.
	MissionIDs []uint `json:"mission_ids"`
}

// CreateBranch inserts a branch with its ordered missions.
func (s *ContentService) CreateBranch(input BranchInput) (*models.Branch, error) {
	branch := models.Branch{Category: "quest"}
	if input.Title != nil {
		branch.Title = *input.Title
	}
	if input.Description != nil {
		branch.Description = *input.Description
	}
	if input.Category != nil {
		branch.Category = *input.Category
	}
	if branch.Title == "" {
		return nil, fmt.Errorf("branch title is required")
	}
	branch.Slug = slug.Make(branch.Title)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}
		return s.replaceBranchMissions(tx, &branch, input.MissionIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.loadBranch(branch.ID)
}

// UpdateBranch edits a branch and optionally replaces its mission order.
func (s *ContentService) UpdateBranch(branchID uint, input BranchInput) (*models.Branch, error) {
	var branch models.Branch
	if err := s.DB.First(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Ветка не найдена", ErrNotFound)
		}
		return nil, err
	}
	if input.Title != nil {
		branch.Title = *input.Title
		branch.Slug = slug.Make(branch.Title)
	}
	if input.Description != nil {
		branch.Description = *input.Description
	}
	if input.Category != nil {
		branch.Category = *input.Category
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&branch).Error; err != nil {
			return err
		}
		if input.MissionIDs != nil {
			return s.replaceBranchMissions(tx, &branch, input.MissionIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadBranch(branch.ID)
}

func (s *ContentService) replaceBranchMissions(tx *gorm.DB, branch *models.Branch, missionIDs []uint) error {
	if missionIDs == nil {
		return nil
	}
	if err := tx.Where("branch_id = ?", branch.ID).
		Delete(&models.BranchMission{}).Error; err != nil {
		return err
	}
	for position, missionID := range missionIDs {
		link := models.BranchMission{
			BranchID:  branch.ID,
			MissionID: missionID,
			Order:     position + 1,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ContentService) loadBranch(branchID uint) (*models.Branch, error) {
	var branch models.Branch
	err := s.DB.Preload("Missions", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"order\"")
	}).Preload("Missions.Mission").First(&branch, branchID).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// ArtifactInput covers artifact create/update.
type ArtifactInput struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Rarity      *models.ArtifactRarity `json:"rarity"`

	ImageURL            utils.Field[string] `json:"image_url"`
	IsProfileModifier   *bool               `json:"is_profile_modifier"`
	BackgroundEffect    utils.Field[string] `json:"background_effect"`
	ProfileEffect       utils.Field[string] `json:"profile_effect"`
	ModifierDescription utils.Field[string] `json:"modifier_description"`
}

// CreateArtifact adds a collectible to the catalog.
func (s *ContentService) CreateArtifact(input ArtifactInput) (*models.Artifact, error) {
	artifact := models.Artifact{Rarity: models.RarityCommon}
	applyArtifactInput(&artifact, input)
	if artifact.Name == "" {
		return nil, fmt.Errorf("artifact name is required")
	}
	artifact.Slug = slug.Make(artifact.Name)
	if err := s.DB.Create(&artifact).Error; err != nil {
		return nil, err
	}
	return &artifact, nil
}

// UpdateArtifact applies a partial edit.
func (s *ContentService) UpdateArtifact(artifactID uint, input ArtifactInput) (*models.Artifact, error) {
	var artifact models.Artifact
	if err := s.DB.First(&artifact, artifactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Артефакт не найден", ErrNotFound)
		}
		return nil, err
	}
	applyArtifactInput(&artifact, input)
	if input.Name != nil {
		artifact.Slug = slug.Make(artifact.Name)
	}
	if err := s.DB.Save(&artifact).Error; err != nil {
		return nil, err
	}
	return &artifact, nil
}

// DeleteArtifact removes an artifact that no mission references.
func (s *ContentService) DeleteArtifact(artifactID uint) error {
	var referencing int64
	if err := s.DB.Model(&models.Mission{}).
		Where("artifact_id = ?", artifactID).Count(&referencing).Error; err != nil {
		return err
	}
	if referencing > 0 {
		return fmt.Errorf("Артефакт привязан к миссиям и не может быть удалён")
	}
	result := s.DB.Delete(&models.Artifact{}, artifactID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: Артефакт не найден", ErrNotFound)
	}
	return nil
}

func applyArtifactInput(artifact *models.Artifact, input ArtifactInput) {
	if input.Name != nil {
		artifact.Name = *input.Name
	}
	if input.Description != nil {
		artifact.Description = *input.Description
	}
	if input.Rarity != nil {
		artifact.Rarity = *input.Rarity
	}
	if input.IsProfileModifier != nil {
		artifact.IsProfileModifier = *input.IsProfileModifier
	}
	input.ImageURL.Apply(&artifact.ImageURL)
	input.BackgroundEffect.Apply(&artifact.BackgroundEffect)
	input.ProfileEffect.Apply(&artifact.ProfileEffect)
	input.ModifierDescription.Apply(&artifact.ModifierDescription)
}

// ListArtifacts returns the full catalog.
func (s *ContentService) ListArtifacts() ([]models.Artifact, error) {
	var artifacts []models.Artifact
	err := s.DB.Order("name").Find(&artifacts).Error
	return artifacts, err
}

// ListCompetencies returns the competency dictionary.
func (s *ContentService) ListCompetencies() ([]models.Competency, error) {
	var competencies []models.Competency
	err := s.DB.Order("name").Find(&competencies).Error
	return competencies, err
}

// ChallengeInput creates one coding challenge on a mission.
type ChallengeInput struct {
	Order          int     `json:"order"`
	Title          string  `json:"title"`
	Prompt         string  `json:"prompt"`
	StarterCode    *string `json:"starter_code"`
	InputData      *string `json:"input_data"`
	ExpectedOutput string  `json:"expected_output"`
}

// CreateChallenge appends a challenge to a mission. Orders must stay
// contiguous from 1 or the sequential unlock never reaches the end, so
// the new order has to be the current count plus one.
func (s *ContentService) CreateChallenge(missionID uint, input ChallengeInput) (*models.CodingChallenge, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Миссия не найдена", ErrNotFound)
		}
		return nil, err
	}
	var count int64
	if err := s.DB.Model(&models.CodingChallenge{}).
		Where("mission_id = ?", mission.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if input.Order != int(count)+1 {
		return nil, fmt.Errorf("порядок задания должен быть %d", count+1)
	}
	challenge := models.CodingChallenge{
		MissionID:      mission.ID,
		Order:          input.Order,
		Title:          input.Title,
		Prompt:         input.Prompt,
		StarterCode:    input.StarterCode,
		InputData:      input.InputData,
		ExpectedOutput: input.ExpectedOutput,
	}
	if err := s.DB.Create(&challenge).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

// DashboardStats is the HR analytics summary.
type DashboardStats struct {
	TotalPilots        int64 `json:"total_pilots"`
	ActiveMissions     int64 `json:"active_missions"`
	PendingSubmissions int64 `json:"pending_submissions"`
	ApprovedToday      int64 `json:"approved_today"`
	OrdersPending      int64 `json:"orders_pending"`
}

// Stats aggregates dashboard counters.
func (s *ContentService) Stats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	if err := s.DB.Model(&models.User{}).
		Where("role = ?", models.RolePilot).Count(&stats.TotalPilots).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Mission{}).
		Where("is_active = ?", true).Count(&stats.ActiveMissions).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.MissionSubmission{}).
		Where("status = ?", models.SubmissionPending).Count(&stats.PendingSubmissions).Error; err != nil {
		return nil, err
	}
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.DB.Model(&models.MissionSubmission{}).
		Where("status = ? AND updated_at >= ?", models.SubmissionApproved, todayStart).
		Count(&stats.ApprovedToday).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Order{}).
		Where("status = ?", models.OrderPending).Count(&stats.OrdersPending).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
