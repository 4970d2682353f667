package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
)

// Priority ranking weights and normalization anchors.
const (
	priorityWeightSavings    = 0.4
	priorityWeightConfidence = 0.3
	priorityWeightGoal       = 0.3

	// savingsNormalizer is the monthly savings amount that saturates the
	// savings component of the priority score.
	savingsNormalizer = 5000
	// goalImpactNormalizer is the goal-impact percentage that saturates
	// the goal component.
	goalImpactNormalizer = 50
)

// Subscription detection parameters.
const (
	subscriptionWindowDays = 60
	subscriptionMinCharges = 2
	// subscriptionMaxCV is the amount coefficient of variation below which
	// a recurring charge looks like a fixed subscription.
	subscriptionMaxCV = 0.10
	// subscriptionStaleDays is how long a subscription must sit unused
	// before a cancellation suggestion.
	subscriptionStaleDays = 30
	subscriptionConfidence = 0.9
)

// Fixed components of the recommendation confidence blend. Peer and history
// confidence are constants until real acceptance data feeds them.
const (
	confidenceWeightData    = 0.3
	confidenceWeightPattern = 0.3
	confidenceWeightPeer    = 0.2
	confidenceWeightHistory = 0.2

	peerConfidence    = 0.8
	historyConfidence = 0.7
)

// recommendationService generates and tracks savings recommendations.
type recommendationService struct {
	db  *gorm.DB
	cfg InsightConfig
}

// NewRecommendationService creates a new RecommendationServicer.
func NewRecommendationService(db *gorm.DB, cfg InsightConfig) RecommendationServicer {
	return &recommendationService{db: db, cfg: cfg}
}

// GenerateSpendingRecommendations compares the user's 30-day category spend
// against peer medians and emits one recommendation per overspent category.
// Categories without a positive peer baseline are excluded from comparison.
// Results are persisted and returned ranked by priority, highest first.
func (s *recommendationService) GenerateSpendingRecommendations(userID string) ([]models.Recommendation, error) {
	txns, err := transactionsSince(s.db, userID, 30)
	if err != nil {
		return nil, err
	}

	goals, err := activeGoals(s.db, userID)
	if err != nil {
		return nil, err
	}

	byCategory := categorySpending(txns)

	// Map iteration order is random; fix it so ranking ties stay stable.
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var recs []models.Recommendation
	for _, category := range categories {
		userSpend := byCategory[category]
		peerMedian := s.cfg.PeerMedians[category]
		if peerMedian <= 0 {
			continue
		}

		excessRatio := userSpend/peerMedian - 1
		if excessRatio <= s.cfg.ExcessSpendingThreshold {
			continue
		}

		savings := userSpend - peerMedian
		confidence := categoryConfidence(category, txns)
		if savings <= s.cfg.MinSavingsThreshold || confidence <= s.cfg.MinConfidence {
			continue
		}

		recs = append(recs, s.buildSpendingRecommendation(
			userID, category, userSpend, peerMedian, savings, excessRatio, confidence, goals,
		))
	}

	rankByPriority(recs)

	for i := range recs {
		if err := s.db.Create(&recs[i]).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
		}
	}
	return recs, nil
}

func (s *recommendationService) buildSpendingRecommendation(
	userID, category string,
	userSpend, peerMedian, savings, excessRatio, confidence float64,
	goals []models.FinancialGoal,
) models.Recommendation {
	annual := savings * 12

	// Goal impact is measured against the primary (oldest active) goal.
	var goalImpact float64
	if len(goals) > 0 && goals[0].TargetAmount > 0 {
		goalImpact = annual / goals[0].TargetAmount * 100
	}

	description := fmt.Sprintf(
		"You're spending %.0f%% more than similar users on %s. Reducing to the peer median could save ₹%.0f monthly (₹%.0f annually)",
		excessRatio*100, category, savings, annual,
	)
	if goalImpact > 0 {
		description += fmt.Sprintf(", accelerating your goal by %.0f%%.", goalImpact)
	}

	rec := models.Recommendation{
		UserID:          userID,
		Type:            models.RecommendationSpendingOptimization,
		Category:        category,
		Title:           fmt.Sprintf("Reduce %s Spending", titleWord(category)),
		Description:     description,
		MonthlySavings:  savings,
		AnnualSavings:   annual,
		ConfidenceScore: confidence,
		PriorityScore:   priorityScore(savings, confidence, goalImpact),
		Status:          models.RecommendationPending,
		CalculationData: map[string]interface{}{
			"excess_ratio":  excessRatio,
			"user_spending": userSpend,
			"peer_median":   peerMedian,
		},
	}
	if goalImpact > 0 {
		rec.GoalImpactPercentage = &goalImpact
	}
	return rec
}

// GenerateSubscriptionRecommendations detects recurring fixed charges that
// have gone unused and suggests cancelling them. A counterparty with at
// least 2 near-identical debits in 60 days is a subscription; one whose
// latest charge is over 30 days old is flagged unused.
func (s *recommendationService) GenerateSubscriptionRecommendations(userID string) ([]models.Recommendation, error) {
	txns, err := transactionsSince(s.db, userID, subscriptionWindowDays)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.Message)
	for _, t := range txns {
		if !isDebit(t) || t.Counterparty == nil {
			continue
		}
		if t.Category != nil && *t.Category == "income" {
			continue
		}
		groups[*t.Counterparty] = append(groups[*t.Counterparty], t)
	}

	counterparties := make([]string, 0, len(groups))
	for name := range groups {
		counterparties = append(counterparties, name)
	}
	sort.Strings(counterparties)

	now := time.Now().UTC()
	var recs []models.Recommendation
	for _, name := range counterparties {
		charges := groups[name]
		if len(charges) < subscriptionMinCharges {
			continue
		}

		amounts := make([]float64, len(charges))
		lastCharge := charges[0].ReceivedAt
		for i, c := range charges {
			amounts[i] = *c.Amount
			if c.ReceivedAt.After(lastCharge) {
				lastCharge = c.ReceivedAt
			}
		}

		mean, std := meanStd(amounts)
		if mean == 0 || std/mean >= subscriptionMaxCV {
			continue
		}

		daysUnused := int(now.Sub(lastCharge).Hours() / 24)
		if daysUnused <= subscriptionStaleDays {
			continue
		}

		annual := mean * 12
		recs = append(recs, models.Recommendation{
			UserID:   userID,
			Type:     models.RecommendationSubscriptionOptimization,
			Category: "subscriptions",
			Title:    fmt.Sprintf("Cancel Unused %s Subscription", name),
			Description: fmt.Sprintf(
				"Your %s subscription (₹%.0f/month) hasn't been used in %d days. Canceling could save ₹%.0f annually.",
				name, mean, daysUnused, annual,
			),
			MonthlySavings:  mean,
			AnnualSavings:   annual,
			ConfidenceScore: subscriptionConfidence,
			PriorityScore:   priorityScore(mean, subscriptionConfidence, 0),
			Status:          models.RecommendationPending,
			CalculationData: map[string]interface{}{
				"counterparty": name,
				"days_unused":  daysUnused,
			},
		})
	}

	rankByPriority(recs)

	for i := range recs {
		if err := s.db.Create(&recs[i]).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
		}
	}
	return recs, nil
}

// ListRecommendations lists a user's recommendations newest first, optionally
// filtered by status.
func (s *recommendationService) ListRecommendations(userID string, page pagination.PageRequest, status *models.RecommendationStatus) (*pagination.PageResponse[models.Recommendation], error) {
	page.Defaults()

	query := s.db.Model(&models.Recommendation{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recs []models.Recommendation
	err := query.Scopes(pagination.NewestFirst("created_at"), pagination.Paginate(page)).
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(recs, page.Page, page.PageSize, total)
	return &resp, nil
}

// RespondToRecommendation records user feedback. Accepting a recommendation
// also bumps the acceptance counter on the user's streak.
func (s *recommendationService) RespondToRecommendation(userID, recommendationID string, status models.RecommendationStatus) (*models.Recommendation, error) {
	switch status {
	case models.RecommendationAccepted, models.RecommendationRejected, models.RecommendationDismissed:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be accepted, rejected, or dismissed")
	}

	var rec models.Recommendation
	if err := s.db.Where("id = ? AND user_id = ?", recommendationID, userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecommendationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now().UTC()
	rec.Status = status
	rec.RespondedAt = &now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if status == models.RecommendationAccepted {
			streak, err := getOrCreateStreak(tx, userID)
			if err != nil {
				return err
			}
			streak.RecommendationsAccepted++
			streak.LastActivityAt = now
			if err := tx.Save(streak).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return &rec, nil
}

// categoryConfidence blends data volume, pattern consistency, and fixed
// peer/history terms into one confidence score.
func categoryConfidence(category string, txns []models.Message) float64 {
	var amounts []float64
	for _, t := range txns {
		if t.Category != nil && *t.Category == category && t.Amount != nil {
			amounts = append(amounts, *t.Amount)
		}
	}
	if len(amounts) == 0 {
		return 0
	}

	// More observed history raises confidence, saturating at 6 months.
	monthsOfData := float64(len(txns)) / 30
	cData := min(1, monthsOfData/6)

	cPattern := 0.5
	if len(amounts) > 1 {
		mean, std := meanStd(amounts)
		if mean > 0 {
			cPattern = 1 - min(1, std/mean)
		}
	}

	return confidenceWeightData*cData +
		confidenceWeightPattern*cPattern +
		confidenceWeightPeer*peerConfidence +
		confidenceWeightHistory*historyConfidence
}

// priorityScore ranks a suggestion by blending normalized savings,
// confidence, and normalized goal impact.
func priorityScore(monthlySavings, confidence, goalImpact float64) float64 {
	return priorityWeightSavings*min(1, monthlySavings/savingsNormalizer) +
		priorityWeightConfidence*confidence +
		priorityWeightGoal*min(1, goalImpact/goalImpactNormalizer)
}

// rankByPriority sorts recommendations descending by priority, keeping input
// order on ties.
func rankByPriority(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PriorityScore > recs[j].PriorityScore
	})
}

// titleWord upcases the first letter of a category for display.
func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// getOrCreateStreak fetches the user's streak record, creating it on first
// use. Shared with the coaching service.
func getOrCreateStreak(db *gorm.DB, userID string) (*models.Streak, error) {
	var streak models.Streak
	err := db.Where("user_id = ?", userID).First(&streak).Error
	if err == nil {
		return &streak, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	streak = models.Streak{UserID: userID}
	if err := db.Create(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}
