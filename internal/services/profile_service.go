package services

import (
	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
)

var behavioralTypes = map[string]bool{
	"planner":   true,
	"spender":   true,
	"avoider":   true,
	"optimizer": true,
}

// profileService manages financial profile preferences. Health scores on the
// profile are owned by the health scorer and cannot be written through here.
type profileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB) ProfileServicer {
	return &profileService{db: db}
}

// GetOrCreateProfile returns the user's profile, creating an empty one on
// first access.
func (s *profileService) GetOrCreateProfile(userID string) (*models.FinancialProfile, error) {
	return getOrCreateProfile(s.db, userID)
}

// UpdatePreferences merges a partial update into the profile, field by
// field. Only the preference fields are writable; anything else in the
// payload is ignored rather than assigned.
func (s *profileService) UpdatePreferences(userID string, update ProfileUpdate) (*models.FinancialProfile, error) {
	profile, err := getOrCreateProfile(s.db, userID)
	if err != nil {
		return nil, err
	}

	if update.MonthlyIncome != nil {
		if *update.MonthlyIncome < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly income cannot be negative")
		}
		profile.MonthlyIncome = update.MonthlyIncome
	}
	if update.RiskTolerance != nil {
		if *update.RiskTolerance < 0 || *update.RiskTolerance > 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "risk tolerance must be between 0 and 1")
		}
		profile.RiskTolerance = *update.RiskTolerance
	}
	if update.BehavioralType != nil {
		if !behavioralTypes[*update.BehavioralType] {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "behavioral type must be planner, spender, avoider, or optimizer")
		}
		profile.BehavioralType = update.BehavioralType
	}
	if update.PreferredCategories != nil {
		profile.PreferredCategories = update.PreferredCategories
	}

	if err := s.db.Save(profile).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return profile, nil
}
