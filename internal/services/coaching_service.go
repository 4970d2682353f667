package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
)

// challengeTemplate is the fixed text and reward for one challenge type.
type challengeTemplate struct {
	title       string
	description string
	points      int
}

var challengeTemplates = map[models.ChallengeType]challengeTemplate{
	models.ChallengeSpendingLimit: {
		title:       "Weekly Spending Challenge",
		description: "Keep your total spending under ₹%.0f this week",
		points:      150,
	},
	models.ChallengeCategoryLimit: {
		title:       "%s Limit Challenge",
		description: "Keep %s spending under ₹%.0f this week",
		points:      120,
	},
	models.ChallengeNoSpendDay: {
		title:       "No-Spend Day Challenge",
		description: "Go 24 hours without any discretionary spending",
		points:      100,
	},
	models.ChallengeSavingGoal: {
		title:       "Savings Booster",
		description: "Save at least ₹%.0f this week",
		points:      200,
	},
}

var nudgeTemplates = map[models.NudgeType][]string{
	models.NudgeSpendingWarning: {
		"You've spent ₹%.0f on %s this week - that's %d%% over your usual budget!",
		"Heads up! %s spending is trending high this month.",
	},
	models.NudgeGoalReminder: {
		"You're ₹%.0f away from your %s goal. Keep going!",
		"Just ₹%.0f more to hit your %s target!",
	},
	models.NudgeEncouragement: {
		"Great job! You're %d%% under budget this week!",
		"You've saved ₹%.0f compared to last month. Keep it up!",
	},
	models.NudgeStreak: {
		"%d day streak! Don't break it now!",
		"Amazing! %d days of smart spending!",
	},
}

// Spending-warning trigger: more than this share of the usual weekly spend
// after mid-month.
const (
	warningDayOfMonth  = 15
	warningSpendRatio  = 1.2
	encouragementScore = 75
)

// coachingService runs challenges, nudges and streak tracking. The random
// source picking nudge templates and the clock are injected so selection is
// testable.
type coachingService struct {
	db     *gorm.DB
	cfg    InsightConfig
	health HealthServicer
	rng    *rand.Rand
	now    func() time.Time
}

// NewCoachingService creates a new CoachingServicer. A nil rng falls back to
// a time-seeded source.
func NewCoachingService(db *gorm.DB, cfg InsightConfig, health HealthServicer, rng *rand.Rand) CoachingServicer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &coachingService{
		db:     db,
		cfg:    cfg,
		health: health,
		rng:    rng,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GenerateWeeklyChallenges builds this week's challenge set from the user's
// trailing 30-day spending: an overall limit at 85% of the weekly average, a
// category limit at 75% of the worst category's average charge when a problem
// category exists, and a 1-day no-spend challenge.
func (s *coachingService) GenerateWeeklyChallenges(userID string) ([]models.Challenge, error) {
	txns, err := transactionsSince(s.db, userID, 30)
	if err != nil {
		return nil, err
	}

	weeklyAvg := weeklyAverageSpend(txns)
	challenges := []models.Challenge{
		s.buildChallenge(userID, models.ChallengeSpendingLimit, weeklyAvg*0.85, 7, nil),
	}

	if problem := topSpendCategories(txns, 2); len(problem) > 0 {
		category := problem[0]
		avg := categoryAverageCharge(txns, category)
		challenges = append(challenges,
			s.buildChallenge(userID, models.ChallengeCategoryLimit, avg*0.75, 7, &category))
	}

	challenges = append(challenges,
		s.buildChallenge(userID, models.ChallengeNoSpendDay, 0, 1, nil))

	for i := range challenges {
		if err := s.db.Create(&challenges[i]).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
		}
	}
	return challenges, nil
}

func (s *coachingService) buildChallenge(userID string, challengeType models.ChallengeType, target float64, durationDays int, category *string) models.Challenge {
	template := challengeTemplates[challengeType]

	title := template.title
	var description string
	switch challengeType {
	case models.ChallengeCategoryLimit:
		title = fmt.Sprintf(template.title, titleWord(*category))
		description = fmt.Sprintf(template.description, titleWord(*category), target)
	case models.ChallengeNoSpendDay:
		description = template.description
	default:
		description = fmt.Sprintf(template.description, target)
	}

	start := s.now()
	return models.Challenge{
		UserID:       userID,
		Type:         challengeType,
		Title:        title,
		Description:  description,
		Category:     category,
		TargetValue:  target,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, durationDays),
		PointsReward: template.points,
		Status:       models.ChallengeActive,
	}
}

// UpdateChallengeProgress recomputes every active, unexpired challenge from
// the debits since its start and completes those that met their target.
// Limit-type challenges complete at or under target; saving-type at or over.
func (s *coachingService) UpdateChallengeProgress(userID string) error {
	now := s.now()

	var challenges []models.Challenge
	err := s.db.Where("user_id = ? AND status = ? AND end_date >= ?",
		userID, models.ChallengeActive, now).
		Find(&challenges).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range challenges {
		challenge := &challenges[i]

		query := s.db.Model(&models.Message{}).
			Where("user_id = ? AND received_at >= ? AND amount IS NOT NULL AND direction = ?",
				userID, challenge.StartDate, models.DirectionDebit)
		if challenge.Category != nil {
			query = query.Where("category = ?", *challenge.Category)
		}

		var current float64
		if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&current).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		challenge.CurrentValue = current

		completed := false
		switch challenge.Type {
		case models.ChallengeSavingGoal:
			completed = challenge.CurrentValue >= challenge.TargetValue
		default:
			completed = challenge.CurrentValue <= challenge.TargetValue
		}

		if completed {
			if err := s.completeChallenge(challenge); err != nil {
				return err
			}
			continue
		}
		if err := s.db.Save(challenge).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStoreWrite, err)
		}
	}
	return nil
}

// completeChallenge marks a challenge done, awards its points, advances the
// streak, and sends a congratulatory nudge.
func (s *coachingService) completeChallenge(challenge *models.Challenge) error {
	now := s.now()
	challenge.Status = models.ChallengeCompleted
	challenge.CompletedAt = &now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(challenge).Error; err != nil {
			return err
		}

		streak, err := getOrCreateStreak(tx, challenge.UserID)
		if err != nil {
			return err
		}
		streak.ChallengesCompleted++
		streak.TotalPoints += challenge.PointsReward
		streak.CurrentStreak++
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
		streak.LastActivityAt = now
		return tx.Save(streak).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}

	nudge := &models.Nudge{
		UserID:      challenge.UserID,
		Type:        models.NudgeEncouragement,
		Message:     fmt.Sprintf("Challenge completed! You earned %d points!", challenge.PointsReward),
		SentAt:      now,
		OptimalTime: sendWindow(now),
	}
	if err := s.db.Create(nudge).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return nil
}

// ListChallenges lists a user's challenges newest first, optionally filtered
// by status.
func (s *coachingService) ListChallenges(userID string, page pagination.PageRequest, status *models.ChallengeStatus) (*pagination.PageResponse[models.Challenge], error) {
	page.Defaults()

	query := s.db.Model(&models.Challenge{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var challenges []models.Challenge
	err := query.Scopes(pagination.NewestFirst("created_at"), pagination.Paginate(page)).
		Find(&challenges).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(challenges, page.Page, page.PageSize, total)
	return &resp, nil
}

// userState is the financial snapshot the nudge rules evaluate.
type userState struct {
	healthScore      float64
	dayOfMonth       int
	spendRatio       float64
	topCategory      string
	topCategorySpend float64
	weeklySavings    float64
	primaryGoal      *models.FinancialGoal
}

func (u userState) toMap() map[string]interface{} {
	state := map[string]interface{}{
		"health_score":     u.healthScore,
		"day_of_month":     u.dayOfMonth,
		"spend_ratio":      u.spendRatio,
		"top_category":     u.topCategory,
		"category_spending": u.topCategorySpend,
		"has_active_goals": u.primaryGoal != nil,
	}
	if u.primaryGoal != nil {
		state["primary_goal"] = u.primaryGoal.Name
	}
	return state
}

// SendSmartNudge evaluates the nudge rules in fixed priority order against a
// snapshot of the user's state and persists at most one nudge. A nil nudge
// with nil error means no rule fired.
func (s *coachingService) SendSmartNudge(userID string) (*models.Nudge, error) {
	state, err := s.snapshotState(userID)
	if err != nil {
		return nil, err
	}

	nudgeType, message := s.selectNudge(state)
	if message == "" {
		return nil, nil
	}

	now := s.now()
	nudge := &models.Nudge{
		UserID:      userID,
		Type:        nudgeType,
		Message:     message,
		SentAt:      now,
		OptimalTime: sendWindow(now),
		UserState:   state.toMap(),
	}
	if err := s.db.Create(nudge).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return nudge, nil
}

// selectNudge applies the rules in priority order: spending warning past
// mid-month, encouragement for a high health score, then a goal reminder.
// Template choice within a type is random.
func (s *coachingService) selectNudge(state userState) (models.NudgeType, string) {
	if state.dayOfMonth > warningDayOfMonth && state.spendRatio > warningSpendRatio {
		category := state.topCategory
		if category == "" {
			category = "food"
		}
		overPct := int((state.spendRatio - 1) * 100)
		templates := nudgeTemplates[models.NudgeSpendingWarning]
		if s.rng.Intn(len(templates)) == 0 {
			return models.NudgeSpendingWarning,
				fmt.Sprintf(templates[0], state.topCategorySpend, category, overPct)
		}
		return models.NudgeSpendingWarning, fmt.Sprintf(templates[1], category)
	}

	if state.healthScore > encouragementScore {
		templates := nudgeTemplates[models.NudgeEncouragement]
		if s.rng.Intn(len(templates)) == 0 {
			underPct := int((1 - state.spendRatio) * 100)
			return models.NudgeEncouragement, fmt.Sprintf(templates[0], underPct)
		}
		return models.NudgeEncouragement, fmt.Sprintf(templates[1], state.weeklySavings)
	}

	if state.primaryGoal != nil {
		goal := state.primaryGoal
		remaining := max(0, goal.TargetAmount-goal.CurrentAmount)
		template := s.pick(models.NudgeGoalReminder)
		return models.NudgeGoalReminder, fmt.Sprintf(template, remaining, goal.Name)
	}

	return "", ""
}

func (s *coachingService) pick(nudgeType models.NudgeType) string {
	templates := nudgeTemplates[nudgeType]
	return templates[s.rng.Intn(len(templates))]
}

// snapshotState gathers the inputs the nudge rules need.
func (s *coachingService) snapshotState(userID string) (userState, error) {
	scores, err := s.health.CalculateHealthScore(userID)
	if err != nil {
		return userState{}, err
	}

	week, err := transactionsSince(s.db, userID, 7)
	if err != nil {
		return userState{}, err
	}
	month, err := transactionsSince(s.db, userID, 30)
	if err != nil {
		return userState{}, err
	}

	var weekSpend, weekIncome float64
	for _, t := range week {
		switch {
		case isDebit(t):
			weekSpend += *t.Amount
		case isCredit(t):
			weekIncome += *t.Amount
		}
	}

	spendRatio := 1.0
	if avg := weeklyAverageSpend(month); avg > 0 {
		spendRatio = weekSpend / avg
	}

	var topCategory string
	var topSpend float64
	for category, amount := range categorySpending(week) {
		if amount > topSpend || (amount == topSpend && category < topCategory) {
			topCategory = category
			topSpend = amount
		}
	}

	goals, err := activeGoals(s.db, userID)
	if err != nil {
		return userState{}, err
	}
	var primary *models.FinancialGoal
	if len(goals) > 0 {
		primary = &goals[0]
	}

	return userState{
		healthScore:      scores.Overall,
		dayOfMonth:       s.now().Day(),
		spendRatio:       spendRatio,
		topCategory:      topCategory,
		topCategorySpend: topSpend,
		weeklySavings:    max(0, weekIncome-weekSpend),
		primaryGoal:      primary,
	}, nil
}

// TrackNudgeResponse marks a nudge viewed and, when the user acted on it,
// scores engagement by how quickly they responded.
func (s *coachingService) TrackNudgeResponse(userID, nudgeID string, actionTaken bool) (*models.Nudge, error) {
	var nudge models.Nudge
	if err := s.db.Where("id = ? AND user_id = ?", nudgeID, userID).First(&nudge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNudgeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	nudge.Viewed = true
	if nudge.ViewedAt == nil {
		nudge.ViewedAt = &now
	}

	if actionTaken && !nudge.ActionTaken {
		nudge.ActionTaken = true
		nudge.ActionTakenAt = &now

		hoursToAction := now.Sub(nudge.SentAt).Hours()
		if hoursToAction < 0 {
			hoursToAction = 0
		}
		nudge.EngagementScore = 1.0 / (1 + hoursToAction)
	}

	if err := s.db.Save(&nudge).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return &nudge, nil
}

// GetStreak returns the user's streak record, creating it on first use.
func (s *coachingService) GetStreak(userID string) (*models.Streak, error) {
	streak, err := getOrCreateStreak(s.db, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return streak, nil
}

// sendWindow buckets a timestamp into the coarse send window used for
// nudge timing.
func sendWindow(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// topSpendCategories returns the n highest-spend debit categories in a
// window, highest first.
func topSpendCategories(txns []models.Message, n int) []string {
	totals := categorySpending(txns)

	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if totals[categories[i]] != totals[categories[j]] {
			return totals[categories[i]] > totals[categories[j]]
		}
		return categories[i] < categories[j]
	})

	if len(categories) > n {
		categories = categories[:n]
	}
	return categories
}

// categoryAverageCharge is the mean debit amount for one category.
func categoryAverageCharge(txns []models.Message, category string) float64 {
	var sum float64
	var count int
	for _, t := range txns {
		if isDebit(t) && t.Category != nil && *t.Category == category {
			sum += *t.Amount
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
