package services

import (
	"testing"

	"finwise/internal/models"
	"finwise/internal/testutil"
)

func TestGenerateSpendingRecommendations(t *testing.T) {
	t.Run("emits_for_overspent_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		// Food at 6000 vs a 4500 peer median is 33% over. Identical
		// amounts keep the pattern consistency term at 1, and the filler
		// utility charges raise the data-volume term past the confidence
		// minimum without tripping their own category.
		for i := 0; i < 3; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 2000, "food", i+1)
		}
		for i := 0; i < 100; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 20, "utilities", (i%28)+1)
		}

		recs, err := svc.GenerateSpendingRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 1 {
			t.Fatalf("expected 1 recommendation, got %d", len(recs))
		}
		rec := recs[0]
		if rec.Category != "food" {
			t.Errorf("expected food category, got %s", rec.Category)
		}
		if rec.Type != models.RecommendationSpendingOptimization {
			t.Errorf("expected spending optimization type, got %s", rec.Type)
		}
		if rec.MonthlySavings != 1500 {
			t.Errorf("expected monthly savings 1500, got %f", rec.MonthlySavings)
		}
		if rec.AnnualSavings != 18000 {
			t.Errorf("expected annual savings 18000, got %f", rec.AnnualSavings)
		}
		if rec.ConfidenceScore <= 0.7 {
			t.Errorf("emitted recommendation must clear the confidence minimum, got %f", rec.ConfidenceScore)
		}
		if rec.Status != models.RecommendationPending {
			t.Errorf("expected pending status, got %s", rec.Status)
		}
		if rec.CalculationData["peer_median"] != 4500.0 {
			t.Errorf("expected peer median 4500 in calculation data, got %v", rec.CalculationData["peer_median"])
		}

		// Persisted, not just returned.
		var count int64
		db.Model(&models.Recommendation{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 persisted recommendation, got %d", count)
		}
	})

	t.Run("zero_peer_baseline_excluded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cfg := DefaultInsightConfig()
		cfg.PeerMedians["food"] = 0
		svc := NewRecommendationService(db, cfg)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < 3; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 2000, "food", i+1)
		}
		for i := 0; i < 100; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 20, "utilities", (i%28)+1)
		}

		recs, err := svc.GenerateSpendingRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 0 {
			t.Errorf("expected no recommendations with zero baseline, got %d", len(recs))
		}
	})

	t.Run("below_minimum_savings_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cfg := DefaultInsightConfig()
		cfg.PeerMedians["food"] = 1000
		svc := NewRecommendationService(db, cfg)
		user := testutil.CreateTestUser(t, db)

		// 40% over the baseline but only 400 in potential savings.
		for i := 0; i < 2; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 700, "food", i+1)
		}
		for i := 0; i < 100; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 20, "utilities", (i%28)+1)
		}

		recs, err := svc.GenerateSpendingRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		for _, rec := range recs {
			if rec.Category == "food" {
				t.Errorf("food savings below the minimum must not be recommended")
			}
		}
	})

	t.Run("records_goal_impact_against_primary_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestGoal(t, db, user.ID, 36000, 0, nil)
		for i := 0; i < 3; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 2000, "food", i+1)
		}
		for i := 0; i < 100; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, models.DirectionDebit, 20, "utilities", (i%28)+1)
		}

		recs, err := svc.GenerateSpendingRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 1 {
			t.Fatalf("expected 1 recommendation, got %d", len(recs))
		}
		if recs[0].GoalImpactPercentage == nil {
			t.Fatal("expected goal impact to be set")
		}
		// 18000 annual savings against a 36000 target.
		if *recs[0].GoalImpactPercentage != 50 {
			t.Errorf("expected goal impact 50%%, got %f", *recs[0].GoalImpactPercentage)
		}
	})
}

func TestGenerateSubscriptionRecommendations(t *testing.T) {
	t.Run("flags_unused_recurring_charge", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		// Two identical charges, the latest 35 days old.
		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 499, "entertainment", "NETFLIX", nil, 55)
		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 499, "entertainment", "NETFLIX", nil, 35)

		recs, err := svc.GenerateSubscriptionRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 1 {
			t.Fatalf("expected 1 subscription recommendation, got %d", len(recs))
		}
		rec := recs[0]
		if rec.Type != models.RecommendationSubscriptionOptimization {
			t.Errorf("expected subscription optimization type, got %s", rec.Type)
		}
		if rec.MonthlySavings != 499 {
			t.Errorf("expected monthly savings 499, got %f", rec.MonthlySavings)
		}
		if rec.ConfidenceScore != 0.9 {
			t.Errorf("expected fixed confidence 0.9, got %f", rec.ConfidenceScore)
		}
		if rec.CalculationData["counterparty"] != "NETFLIX" {
			t.Errorf("expected counterparty NETFLIX in calculation data, got %v", rec.CalculationData["counterparty"])
		}
	})

	t.Run("recently_used_subscription_not_flagged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 499, "entertainment", "SPOTIFY", nil, 50)
		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 499, "entertainment", "SPOTIFY", nil, 20)

		recs, err := svc.GenerateSubscriptionRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 0 {
			t.Errorf("expected no recommendations for an active subscription, got %d", len(recs))
		}
	})

	t.Run("variable_amounts_not_a_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 300, "food", "SWIGGY", nil, 55)
		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 900, "food", "SWIGGY", nil, 40)

		recs, err := svc.GenerateSubscriptionRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 0 {
			t.Errorf("expected no recommendations for variable charges, got %d", len(recs))
		}
	})

	t.Run("single_charge_ignored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransactionAt(t, db, user.ID, models.DirectionDebit, 499, "entertainment", "HOTSTAR", nil, 40)

		recs, err := svc.GenerateSubscriptionRecommendations(user.ID)
		testutil.AssertNoError(t, err)

		if len(recs) != 0 {
			t.Errorf("expected no recommendations for a single charge, got %d", len(recs))
		}
	})
}

func TestRespondToRecommendation(t *testing.T) {
	t.Run("accept_updates_status_and_streak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)
		rec := testutil.CreateTestRecommendation(t, db, user.ID, 1500, 0.7)

		updated, err := svc.RespondToRecommendation(user.ID, rec.ID, models.RecommendationAccepted)
		testutil.AssertNoError(t, err)

		if updated.Status != models.RecommendationAccepted {
			t.Errorf("expected accepted status, got %s", updated.Status)
		}
		if updated.RespondedAt == nil {
			t.Error("expected responded timestamp to be set")
		}

		var streak models.Streak
		if err := db.Where("user_id = ?", user.ID).First(&streak).Error; err != nil {
			t.Fatalf("expected streak record: %v", err)
		}
		if streak.RecommendationsAccepted != 1 {
			t.Errorf("expected 1 accepted recommendation on streak, got %d", streak.RecommendationsAccepted)
		}
	})

	t.Run("reject_does_not_touch_streak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)
		rec := testutil.CreateTestRecommendation(t, db, user.ID, 1500, 0.7)

		_, err := svc.RespondToRecommendation(user.ID, rec.ID, models.RecommendationRejected)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Streak{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no streak record after rejection, got %d", count)
		}
	})

	t.Run("invalid_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		user := testutil.CreateTestUser(t, db)
		rec := testutil.CreateTestRecommendation(t, db, user.ID, 1500, 0.7)

		_, err := svc.RespondToRecommendation(user.ID, rec.ID, models.RecommendationPending)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecommendationService(db, DefaultInsightConfig())
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		rec := testutil.CreateTestRecommendation(t, db, owner.ID, 1500, 0.7)

		_, err := svc.RespondToRecommendation(other.ID, rec.ID, models.RecommendationAccepted)
		testutil.AssertAppError(t, err, "RECOMMENDATION_NOT_FOUND")
	})
}
