package models

import "time"

// FinancialGoal represents a savings target the user is working toward.
// Contributions accrue through goal updates, not through the analytics
// engines, which only read goals.
type FinancialGoal struct {
	Base
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	TargetAmount  float64    `gorm:"not null" json:"target_amount"`
	CurrentAmount float64    `gorm:"default:0" json:"current_amount"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Category      string     `json:"category"` // vacation, emergency, car, ...
	IsActive      bool       `gorm:"default:true" json:"is_active"`
}
