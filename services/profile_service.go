package services

import (
	"errors"
	"fmt"

	"pilot-onboarding-system/models"

	"gorm.io/gorm"
)

// ProfileService reads pilot profiles and manages applied artifacts.
type ProfileService struct {
	DB    *gorm.DB
	Ranks *RankService
}

func NewProfileService(db *gorm.DB, ranks *RankService) *ProfileService {
	return &ProfileService{DB: db, Ranks: ranks}
}

// Profile is the full profile payload for the pilot page.
type Profile struct {
	User             models.User                  `json:"user"`
	AppliedArtifacts []models.UserAppliedArtifact `json:"applied_artifacts"`
	Progress         *ProgressSnapshot            `json:"progress"`
}

// GetProfile loads the user with rank, competencies, artifacts and the
// applied-artifact set, plus the rank progress snapshot.
func (s *ProfileService) GetProfile(userID uint) (*Profile, error) {
	var user models.User
	err := s.DB.Preload("CurrentRank").
		Preload("Competencies.Competency").
		Preload("Artifacts.Artifact").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Пользователь не найден", ErrNotFound)
		}
		return nil, err
	}

	applied, err := s.ListAppliedArtifacts(userID)
	if err != nil {
		return nil, err
	}
	progress, err := s.Ranks.BuildProgressSnapshot(&user)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, AppliedArtifacts: applied, Progress: progress}, nil
}

// ListAppliedArtifacts returns the artifacts currently shown on the profile.
func (s *ProfileService) ListAppliedArtifacts(userID uint) ([]models.UserAppliedArtifact, error) {
	var applied []models.UserAppliedArtifact
	err := s.DB.Preload("Artifact").
		Where("user_id = ?", userID).Order("id").Find(&applied).Error
	return applied, err
}

// ApplyArtifact pins an owned profile-modifier artifact to the profile.
// Applying an already-applied artifact is a no-op.
func (s *ProfileService) ApplyArtifact(userID, artifactID uint) error {
	var owned int64
	err := s.DB.Model(&models.UserArtifact{}).
		Where("user_id = ? AND artifact_id = ?", userID, artifactID).
		Count(&owned).Error
	if err != nil {
		return err
	}
	if owned == 0 {
		return ErrArtifactNotOwned
	}

	var artifact models.Artifact
	if err := s.DB.First(&artifact, artifactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: Артефакт не найден", ErrNotFound)
		}
		return err
	}
	if !artifact.IsProfileModifier {
		return fmt.Errorf("Артефакт нельзя применить к профилю")
	}

	var existing int64
	err = s.DB.Model(&models.UserAppliedArtifact{}).
		Where("user_id = ? AND artifact_id = ?", userID, artifactID).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	return s.DB.Create(&models.UserAppliedArtifact{UserID: userID, ArtifactID: artifactID}).Error
}

// RemoveAppliedArtifact takes the artifact off the profile.
func (s *ProfileService) RemoveAppliedArtifact(userID, artifactID uint) error {
	result := s.DB.Where("user_id = ? AND artifact_id = ?", userID, artifactID).
		Delete(&models.UserAppliedArtifact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: Артефакт не применён", ErrNotFound)
	}
	return nil
}

// ProfileInput is the self-service part of the profile pilots may edit.
type ProfileInput struct {
	FullName        *string `json:"full_name"`
	PreferredBranch *string `json:"preferred_branch"`
	Motivation      *string `json:"motivation"`
}

// UpdateProfile applies the pilot's own edits. XP, mana, rank and role are
// deliberately not reachable from here.
func (s *ProfileService) UpdateProfile(userID uint, input ProfileInput) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Пользователь не найден", ErrNotFound)
		}
		return nil, err
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.PreferredBranch != nil {
		user.PreferredBranch = input.PreferredBranch
	}
	if input.Motivation != nil {
		user.Motivation = input.Motivation
	}
	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
