package services

import (
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
)

// Shared aggregation helpers for the analytics engines. All of them operate
// on amount-bearing messages only; unparsed or amount-less records never
// reach a computation.

// transactionsSince returns a user's amount-bearing messages received within
// the trailing window, oldest first.
func transactionsSince(db *gorm.DB, userID string, days int) ([]models.Message, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var txns []models.Message
	err := db.Where("user_id = ? AND received_at >= ? AND amount IS NOT NULL", userID, cutoff).
		Order("received_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}

// activeGoals returns a user's active goals, oldest first so the first entry
// is the primary goal.
func activeGoals(db *gorm.DB, userID string) ([]models.FinancialGoal, error) {
	var goals []models.FinancialGoal
	err := db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&goals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goals, nil
}

func isDebit(t models.Message) bool {
	return t.Direction != nil && *t.Direction == models.DirectionDebit && t.Amount != nil
}

func isCredit(t models.Message) bool {
	return t.Direction != nil && *t.Direction == models.DirectionCredit && t.Amount != nil
}

// incomeAndExpense sums credit and debit amounts over a transaction set.
func incomeAndExpense(txns []models.Message) (income, expense float64) {
	for _, t := range txns {
		switch {
		case isCredit(t):
			income += *t.Amount
		case isDebit(t):
			expense += *t.Amount
		}
	}
	return income, expense
}

// categorySpending aggregates debit amounts by category, skipping the income
// pseudo-category.
func categorySpending(txns []models.Message) map[string]float64 {
	totals := make(map[string]float64)
	for _, t := range txns {
		if !isDebit(t) || t.Category == nil || *t.Category == "income" {
			continue
		}
		totals[*t.Category] += *t.Amount
	}
	return totals
}

// meanStd returns the mean and population standard deviation of xs.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std
}

// weeklyAverageSpend estimates the average weekly debit spend of a window.
// The week count is derived from the observation density of the window, not
// calendar weeks.
func weeklyAverageSpend(txns []models.Message) float64 {
	var spend float64
	var any bool
	for _, t := range txns {
		if isDebit(t) {
			spend += *t.Amount
			any = true
		}
	}
	if !any {
		return 0
	}
	weeks := float64(len(txns)) / 7
	if weeks < 1 {
		weeks = 1
	}
	return spend / weeks
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
