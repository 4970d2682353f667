package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/parser"
)

// Health score component weights. Fixed by design, not fitted.
const (
	healthWeightSavings   = 0.30
	healthWeightSpending  = 0.30
	healthWeightStability = 0.25
	healthWeightProgress  = 0.15

	// targetSavingsRate is the recommended share of income saved.
	targetSavingsRate = 0.20
	// targetDiscretionaryRatio is the recommended ceiling on the share of
	// spend going to discretionary categories.
	targetDiscretionaryRatio = 0.30

	healthLookbackDays = 90
)

// healthService computes multi-dimensional financial health scores.
type healthService struct {
	db  *gorm.DB
	cfg InsightConfig
}

// NewHealthService creates a new HealthServicer.
func NewHealthService(db *gorm.DB, cfg InsightConfig) HealthServicer {
	return &healthService{db: db, cfg: cfg}
}

// CalculateHealthScore scores the trailing 90 days of a user's transactions
// on four dimensions, combines them into a weighted overall score, and
// upserts the result into the user's financial profile. An empty window
// yields all-zero scores.
func (s *healthService) CalculateHealthScore(userID string) (*HealthScores, error) {
	txns, err := transactionsSince(s.db, userID, healthLookbackDays)
	if err != nil {
		return nil, err
	}

	scores := &HealthScores{}
	if len(txns) > 0 {
		goals, err := activeGoals(s.db, userID)
		if err != nil {
			return nil, err
		}

		savings := savingsScore(txns)
		spending := spendingScore(txns)
		stability := stabilityScore(txns)
		progress := progressScore(goals, time.Now().UTC())

		overall := healthWeightSavings*savings +
			healthWeightSpending*spending +
			healthWeightStability*stability +
			healthWeightProgress*progress

		scores = &HealthScores{
			Overall:   round2(overall),
			Savings:   round2(savings),
			Spending:  round2(spending),
			Stability: round2(stability),
			Progress:  round2(progress),
		}
	}

	if err := s.upsertProfile(userID, scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// savingsScore rewards hitting the target savings rate: 100 at or above a
// 20% rate, scaled linearly below, 0 when there is no income.
func savingsScore(txns []models.Message) float64 {
	income, expense := incomeAndExpense(txns)
	if income == 0 {
		return 0
	}
	rate := (income - expense) / income
	score := 100 * min(1, rate/targetSavingsRate)
	if score < 0 {
		return 0
	}
	return score
}

// spendingScore penalizes discretionary spend above 30% of total spend.
// No spend at all scores 100.
func spendingScore(txns []models.Message) float64 {
	byCategory := categorySpending(txns)

	var total, discretionary float64
	for category, amount := range byCategory {
		total += amount
		if parser.IsDiscretionary(category) {
			discretionary += amount
		}
	}
	if total == 0 {
		return 100
	}

	ratio := discretionary / total
	score := 100 * (1 - ratio/targetDiscretionaryRatio)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// stabilityScore measures balance volatility via the coefficient of
// variation of observed balance samples. Fewer than 2 samples is neutral.
func stabilityScore(txns []models.Message) float64 {
	var balances []float64
	for _, t := range txns {
		if t.Balance != nil {
			balances = append(balances, *t.Balance)
		}
	}
	if len(balances) < 2 {
		return 50
	}

	mean, std := meanStd(balances)
	if mean == 0 {
		return 0
	}

	score := 100 * (1 - min(1, std/mean))
	if score < 0 {
		return 0
	}
	return score
}

// progressScore is the share of active goals judged on track. No goals is
// neutral. A goal with a deadline is on track when its progress ratio meets
// a buffer that shrinks as the deadline approaches; note the buffer goes
// negative beyond 12 months out, so any progress counts as on track there.
// A goal without a deadline is on track above 10% progress.
func progressScore(goals []models.FinancialGoal, now time.Time) float64 {
	if len(goals) == 0 {
		return 50
	}

	onTrack := 0
	for _, goal := range goals {
		if goal.TargetAmount <= 0 {
			continue
		}
		progress := goal.CurrentAmount / goal.TargetAmount

		if goal.Deadline != nil {
			daysRemaining := goal.Deadline.Sub(now).Hours() / 24
			monthsRemaining := max(1, daysRemaining/30)
			if progress >= 0.9*(1-monthsRemaining/12) {
				onTrack++
			}
		} else if progress > 0.1 {
			onTrack++
		}
	}

	return 100 * float64(onTrack) / float64(len(goals))
}

// upsertProfile writes the computed scores onto the user's profile, creating
// it on first use.
func (s *healthService) upsertProfile(userID string, scores *HealthScores) error {
	profile, err := getOrCreateProfile(s.db, userID)
	if err != nil {
		return err
	}

	profile.HealthScore = scores.Overall
	profile.SavingsScore = scores.Savings
	profile.SpendingScore = scores.Spending
	profile.StabilityScore = scores.Stability
	profile.ProgressScore = scores.Progress

	if err := s.db.Save(profile).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return nil
}

// getOrCreateProfile fetches a user's financial profile, creating an empty
// one when missing. Shared with the profile service.
func getOrCreateProfile(db *gorm.DB, userID string) (*models.FinancialProfile, error) {
	var profile models.FinancialProfile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	profile = models.FinancialProfile{UserID: userID, RiskTolerance: 0.5}
	if err := db.Create(&profile).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return &profile, nil
}
