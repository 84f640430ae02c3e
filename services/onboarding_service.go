package services

import (
	"errors"
	"fmt"

	"pilot-onboarding-system/models"

	"gorm.io/gorm"
)

// OnboardingService drives the welcome carousel shown on first login.
type OnboardingService struct {
	DB *gorm.DB
}

func NewOnboardingService(db *gorm.DB) *OnboardingService {
	return &OnboardingService{DB: db}
}

// OnboardingOverview is the carousel plus the pilot's position in it.
type OnboardingOverview struct {
	Slides      []models.OnboardingSlide `json:"slides"`
	State       models.OnboardingState   `json:"state"`
	NextOrder   *int                     `json:"next_order,omitempty"`
	TotalSlides int                      `json:"total_slides"`
}

// Overview returns all slides and where the pilot left off. A state row is
// created on first call.
func (s *OnboardingService) Overview(userID uint) (*OnboardingOverview, error) {
	var slides []models.OnboardingSlide
	if err := s.DB.Order("\"order\"").Find(&slides).Error; err != nil {
		return nil, err
	}

	state, err := s.getState(userID)
	if err != nil {
		return nil, err
	}

	overview := &OnboardingOverview{
		Slides:      slides,
		State:       *state,
		TotalSlides: len(slides),
	}
	if !state.IsCompleted && len(slides) > 0 {
		next := state.LastCompletedOrder + 1
		overview.NextOrder = &next
	}
	return overview, nil
}

// CompleteSlide records that the pilot finished a slide. Slides complete in
// order; re-completing an earlier slide is a no-op.
func (s *OnboardingService) CompleteSlide(userID uint, order int) (*models.OnboardingState, error) {
	var slide models.OnboardingSlide
	if err := s.DB.Where("\"order\" = ?", order).First(&slide).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Слайд не найден", ErrNotFound)
		}
		return nil, err
	}

	state, err := s.getState(userID)
	if err != nil {
		return nil, err
	}
	if order <= state.LastCompletedOrder {
		return state, nil
	}
	if order != state.LastCompletedOrder+1 {
		return nil, ErrOutOfSequence
	}

	state.LastCompletedOrder = order

	var remaining int64
	err = s.DB.Model(&models.OnboardingSlide{}).
		Where("\"order\" > ?", order).Count(&remaining).Error
	if err != nil {
		return nil, err
	}
	state.IsCompleted = remaining == 0

	if err := s.DB.Save(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (s *OnboardingService) getState(userID uint) (*models.OnboardingState, error) {
	var state models.OnboardingState
	err := s.DB.Where("user_id = ?", userID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.OnboardingState{UserID: userID}
		if err := s.DB.Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}
