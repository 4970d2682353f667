// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("parsing_status", validateParsingStatus)
		_ = v.RegisterValidation("transaction_direction", validateTransactionDirection)
		_ = v.RegisterValidation("recommendation_response", validateRecommendationResponse)
		_ = v.RegisterValidation("recommendation_status", validateRecommendationStatus)
		_ = v.RegisterValidation("challenge_status", validateChallengeStatus)
		_ = v.RegisterValidation("summary_period", validateSummaryPeriod)
		_ = v.RegisterValidation("behavioral_type", validateBehavioralType)
	}
}

func validateParsingStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "parsed", "failed", "remote_parsing":
		return true
	}
	return false
}

func validateTransactionDirection(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debit", "credit", "unknown":
		return true
	}
	return false
}

// validateRecommendationResponse covers the statuses a user can set; pending
// is the initial state and cannot be written back.
func validateRecommendationResponse(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "accepted", "rejected", "dismissed":
		return true
	}
	return false
}

func validateRecommendationStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "accepted", "rejected", "dismissed":
		return true
	}
	return false
}

func validateChallengeStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "completed", "failed", "abandoned":
		return true
	}
	return false
}

func validateSummaryPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "week", "month", "year", "all":
		return true
	}
	return false
}

func validateBehavioralType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "planner", "spender", "avoider", "optimizer":
		return true
	}
	return false
}
