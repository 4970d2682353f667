package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
)

// goalService manages financial goals and goal acceleration suggestions.
type goalService struct {
	db              *gorm.DB
	cfg             InsightConfig
	recommendations RecommendationServicer
}

// NewGoalService creates a new GoalServicer. The recommendation service
// supplies the savings opportunities the accelerator draws from.
func NewGoalService(db *gorm.DB, cfg InsightConfig, recommendations RecommendationServicer) GoalServicer {
	return &goalService{db: db, cfg: cfg, recommendations: recommendations}
}

// CreateGoal creates an active goal for the user.
func (s *goalService) CreateGoal(userID, name string, targetAmount float64, deadline *time.Time, category string) (*models.FinancialGoal, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if targetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
	}

	goal := &models.FinancialGoal{
		UserID:       userID,
		Name:         name,
		TargetAmount: targetAmount,
		Deadline:     deadline,
		Category:     category,
		IsActive:     true,
	}
	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return goal, nil
}

// GetGoalByID retrieves a goal owned by the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.FinancialGoal, error) {
	var goal models.FinancialGoal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// ListGoals lists a user's goals oldest first, optionally only active ones.
func (s *goalService) ListGoals(userID string, page pagination.PageRequest, activeOnly bool) (*pagination.PageResponse[models.FinancialGoal], error) {
	page.Defaults()

	query := s.db.Model(&models.FinancialGoal{}).Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.FinancialGoal
	err := query.Order("created_at ASC").Scopes(pagination.Paginate(page)).
		Find(&goals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(goals, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateGoal applies a partial update to a goal the user owns.
func (s *goalService) UpdateGoal(userID, goalID string, update GoalUpdate) (*models.FinancialGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name cannot be empty")
		}
		goal.Name = *update.Name
	}
	if update.TargetAmount != nil {
		if *update.TargetAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
		}
		goal.TargetAmount = *update.TargetAmount
	}
	if update.CurrentAmount != nil {
		if *update.CurrentAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
		}
		goal.CurrentAmount = *update.CurrentAmount
	}
	if update.Deadline != nil {
		goal.Deadline = update.Deadline
	}
	if update.Category != nil {
		goal.Category = *update.Category
	}
	if update.IsActive != nil {
		goal.IsActive = *update.IsActive
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return goal, nil
}

// DeleteGoal soft-deletes a goal the user owns.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	result := s.db.Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.FinancialGoal{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGoalNotFound
	}
	return nil
}

// AccelerateGoal suggests recommendations whose combined savings close the
// gap between the user's current savings rate and the rate the goal's
// deadline demands. A goal without a deadline, past its deadline, or with a
// non-positive target yields no suggestions rather than an error. When the
// user is already on track the top 3 opportunities are returned as
// informational suggestions.
func (s *goalService) AccelerateGoal(userID, goalID string) ([]models.Recommendation, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Deadline == nil || goal.TargetAmount <= 0 {
		return nil, nil
	}
	monthsRemaining := time.Until(*goal.Deadline).Hours() / 24 / 30
	if monthsRemaining <= 0 {
		return nil, nil
	}

	requiredMonthly := (goal.TargetAmount - goal.CurrentAmount) / monthsRemaining
	currentRate, err := s.estimateSavingsRate(userID)
	if err != nil {
		return nil, err
	}
	shortfall := requiredMonthly - currentRate

	opportunities, err := s.gatherOpportunities(userID)
	if err != nil {
		return nil, err
	}

	var selected []models.Recommendation
	if shortfall <= 0 {
		// Already on track; surface the best few anyway.
		selected = opportunities
		if len(selected) > 3 {
			selected = selected[:3]
		}
	} else {
		var cumulative float64
		for _, opp := range opportunities {
			if cumulative >= shortfall {
				break
			}
			selected = append(selected, opp)
			cumulative += opp.MonthlySavings
		}
	}

	now := time.Now().UTC()
	for i := range selected {
		if selected[i].ShownAt != nil {
			continue
		}
		selected[i].ShownAt = &now
		err := s.db.Model(&models.Recommendation{}).
			Where("id = ?", selected[i].ID).
			Update("shown_at", now).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
		}
	}
	return selected, nil
}

// gatherOpportunities regenerates spending and subscription recommendations
// and merges them into one priority-ranked list.
func (s *goalService) gatherOpportunities(userID string) ([]models.Recommendation, error) {
	spending, err := s.recommendations.GenerateSpendingRecommendations(userID)
	if err != nil {
		return nil, err
	}
	subscriptions, err := s.recommendations.GenerateSubscriptionRecommendations(userID)
	if err != nil {
		return nil, err
	}

	merged := append(spending, subscriptions...)
	rankByPriority(merged)
	return merged, nil
}

// estimateSavingsRate is the user's trailing 30-day net savings, floored
// at 0.
func (s *goalService) estimateSavingsRate(userID string) (float64, error) {
	txns, err := transactionsSince(s.db, userID, 30)
	if err != nil {
		return 0, err
	}
	income, expense := incomeAndExpense(txns)
	return max(0, income-expense), nil
}
