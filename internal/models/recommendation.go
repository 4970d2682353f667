package models

import "time"

// RecommendationType classifies how a recommendation was produced.
type RecommendationType string

const (
	RecommendationSpendingOptimization     RecommendationType = "spending_optimization"
	RecommendationSubscriptionOptimization RecommendationType = "subscription_optimization"
	RecommendationGoalAcceleration         RecommendationType = "goal_acceleration"
)

// RecommendationStatus is the user-feedback state of a recommendation.
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationAccepted  RecommendationStatus = "accepted"
	RecommendationRejected  RecommendationStatus = "rejected"
	RecommendationDismissed RecommendationStatus = "dismissed"
)

// Recommendation is a generated savings suggestion. The engines create them;
// status is mutated only by user feedback.
type Recommendation struct {
	Base
	UserID   string             `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     RecommendationType `gorm:"not null" json:"type"`
	Category string             `json:"category"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	MonthlySavings       float64  `gorm:"not null" json:"monthly_savings"`
	AnnualSavings        float64  `gorm:"not null" json:"annual_savings"`
	GoalImpactPercentage *float64 `json:"goal_impact_percentage,omitempty"`

	ConfidenceScore float64 `gorm:"not null" json:"confidence_score"`
	PriorityScore   float64 `gorm:"not null" json:"priority_score"`

	Status      RecommendationStatus `gorm:"default:pending" json:"status"`
	ShownAt     *time.Time           `json:"shown_at,omitempty"`
	RespondedAt *time.Time           `json:"responded_at,omitempty"`

	// CalculationData records the inputs behind the numbers for auditability.
	CalculationData map[string]interface{} `gorm:"serializer:json" json:"calculation_data,omitempty"`
}
