package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finwise/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a parsed transaction with the given
// direction, amount, and category, received the given number of days ago.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, direction models.TransactionDirection, amount float64, category string, daysAgo int) *models.Message {
	t.Helper()

	receivedAt := time.Now().UTC().AddDate(0, 0, -daysAgo)
	parsedAt := receivedAt
	counterparty := fmt.Sprintf("MERCHANT%d", nextID())

	msg := &models.Message{
		UserID:        userID,
		PhoneNumber:   "BANKSMS",
		ReceivedAt:    receivedAt,
		ParsedAt:      &parsedAt,
		ParsingStatus: models.ParsingStatusParsed,
		Amount:        &amount,
		Direction:     &direction,
		Counterparty:  &counterparty,
		Confidence:    0.9,
	}
	if category != "" {
		msg.Category = &category
	}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return msg
}

// CreateTestTransactionAt is like CreateTestTransaction but with an explicit
// counterparty and balance.
func CreateTestTransactionAt(t *testing.T, db *gorm.DB, userID string, direction models.TransactionDirection, amount float64, category, counterparty string, balance *float64, daysAgo int) *models.Message {
	t.Helper()

	msg := CreateTestTransaction(t, db, userID, direction, amount, category, daysAgo)
	msg.Counterparty = &counterparty
	msg.Balance = balance
	if err := db.Save(msg).Error; err != nil {
		t.Fatalf("failed to update test transaction: %v", err)
	}
	return msg
}

// CreateTestGoal creates an active goal with the given target and progress.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, target, current float64, deadline *time.Time) *models.FinancialGoal {
	t.Helper()

	goal := &models.FinancialGoal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
		Category:      "savings",
		IsActive:      true,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestRecommendation creates a pending recommendation with the given
// savings and priority.
func CreateTestRecommendation(t *testing.T, db *gorm.DB, userID string, monthlySavings, priority float64) *models.Recommendation {
	t.Helper()

	rec := &models.Recommendation{
		UserID:          userID,
		Type:            models.RecommendationSpendingOptimization,
		Category:        "food",
		Title:           fmt.Sprintf("Test Recommendation %d", nextID()),
		Description:     "test",
		MonthlySavings:  monthlySavings,
		AnnualSavings:   monthlySavings * 12,
		ConfidenceScore: 0.8,
		PriorityScore:   priority,
		Status:          models.RecommendationPending,
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("failed to create test recommendation: %v", err)
	}
	return rec
}
