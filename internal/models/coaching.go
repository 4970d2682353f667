package models

import "time"

// ChallengeType names a kind of weekly gamified challenge.
type ChallengeType string

const (
	ChallengeSpendingLimit ChallengeType = "spending_limit"
	ChallengeCategoryLimit ChallengeType = "category_limit"
	ChallengeNoSpendDay    ChallengeType = "no_spend_day"
	ChallengeSavingGoal    ChallengeType = "saving_goal"
)

// ChallengeStatus tracks a challenge through its window.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeFailed    ChallengeStatus = "failed"
	ChallengeAbandoned ChallengeStatus = "abandoned"
)

// Challenge is a time-boxed spending or saving target with a points reward.
type Challenge struct {
	Base
	UserID string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type   ChallengeType `gorm:"not null" json:"type"`

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text;not null" json:"description"`
	Category    *string `json:"category,omitempty"`

	TargetValue  float64 `gorm:"not null" json:"target_value"`
	CurrentValue float64 `gorm:"default:0" json:"current_value"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`

	PointsReward int             `gorm:"default:100" json:"points_reward"`
	Status       ChallengeStatus `gorm:"default:active" json:"status"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// NudgeType names the behavioral trigger a nudge was selected for.
type NudgeType string

const (
	NudgeSpendingWarning NudgeType = "spending_warning"
	NudgeGoalReminder    NudgeType = "goal_reminder"
	NudgeEncouragement   NudgeType = "encouragement"
	NudgeStreak          NudgeType = "streak"
)

// Nudge is a behavioral message sent to the user, with enough state captured
// at send time to score how well the selection rule worked.
type Nudge struct {
	Base
	UserID  string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    NudgeType `gorm:"not null" json:"type"`
	Message string    `gorm:"type:text;not null" json:"message"`

	SentAt      time.Time `gorm:"not null" json:"sent_at"`
	OptimalTime string    `json:"optimal_time"` // morning, afternoon, evening

	// UserState snapshots the financial state the selection rule saw.
	UserState map[string]interface{} `gorm:"serializer:json" json:"user_state,omitempty"`

	// Response tracking
	Viewed        bool       `gorm:"default:false" json:"viewed"`
	ViewedAt      *time.Time `json:"viewed_at,omitempty"`
	ActionTaken   bool       `gorm:"default:false" json:"action_taken"`
	ActionTakenAt *time.Time `json:"action_taken_at,omitempty"`

	// EngagementScore is 1/(1+hours-to-action); a feedback signal for
	// future tuning, not an online learning input.
	EngagementScore float64 `gorm:"default:0" json:"engagement_score"`
}

// Streak aggregates a user's challenge points and consecutive completions.
type Streak struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	CurrentStreak int `gorm:"default:0" json:"current_streak"`
	LongestStreak int `gorm:"default:0" json:"longest_streak"`
	TotalPoints   int `gorm:"default:0" json:"total_points"`

	ChallengesCompleted     int `gorm:"default:0" json:"challenges_completed"`
	RecommendationsAccepted int `gorm:"default:0" json:"recommendations_accepted"`

	LastActivityAt time.Time `json:"last_activity_at"`
}
