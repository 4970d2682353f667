package testutil_test

import (
	"testing"

	"finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "messages", "financial_goals", "recommendations", "financial_profiles", "challenges", "nudges", "streaks"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a generated ID")
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 1250, "food", 3)
	if tx.Amount == nil || *tx.Amount != 1250 {
		t.Errorf("expected amount 1250, got %v", tx.Amount)
	}
	if tx.ParsingStatus != models.ParsingStatusParsed {
		t.Errorf("expected parsed status, got %s", tx.ParsingStatus)
	}

	goal := testutil.CreateTestGoal(t, db, user.ID, 50000, 10000, nil)
	if !goal.IsActive {
		t.Error("goal should be active")
	}

	rec := testutil.CreateTestRecommendation(t, db, user.ID, 1500, 0.7)
	if rec.Status != models.RecommendationPending {
		t.Errorf("expected pending status, got %s", rec.Status)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrMessageNotFound, "custom message")
	testutil.AssertAppError(t, err, "MESSAGE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
