package models

// FinancialProfile holds a user's rolling health scores and coaching
// preferences. One row per user, upserted by the health scorer.
type FinancialProfile struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	// Health scores, 0-100
	HealthScore    float64 `gorm:"default:0" json:"health_score"`
	SavingsScore   float64 `gorm:"default:0" json:"savings_score"`
	SpendingScore  float64 `gorm:"default:0" json:"spending_score"`
	StabilityScore float64 `gorm:"default:0" json:"stability_score"`
	ProgressScore  float64 `gorm:"default:0" json:"progress_score"`

	// Profile characteristics
	MonthlyIncome  *float64 `json:"monthly_income,omitempty"`
	RiskTolerance  float64  `gorm:"default:0.5" json:"risk_tolerance"` // 0 to 1
	BehavioralType *string  `json:"behavioral_type,omitempty"`         // planner, spender, avoider, optimizer

	PreferredCategories []string `gorm:"serializer:json" json:"preferred_categories,omitempty"`
}
