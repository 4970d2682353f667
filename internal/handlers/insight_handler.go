package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
	"finwise/internal/services"
)

// InsightHandler serves health scoring, recommendations and the financial
// profile.
type InsightHandler struct {
	healthService         services.HealthServicer
	recommendationService services.RecommendationServicer
	profileService        services.ProfileServicer
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(healthService services.HealthServicer, recommendationService services.RecommendationServicer, profileService services.ProfileServicer) *InsightHandler {
	return &InsightHandler{
		healthService:         healthService,
		recommendationService: recommendationService,
		profileService:        profileService,
	}
}

// GetHealthScore computes the user's financial health score from their
// trailing 90-day window.
func (h *InsightHandler) GetHealthScore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scores, err := h.healthService.CalculateHealthScore(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"health": scores})
}

// GenerateRecommendations runs the spending and subscription analyses and
// returns the fresh recommendations.
func (h *InsightHandler) GenerateRecommendations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	spending, err := h.recommendationService.GenerateSpendingRecommendations(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	subscriptions, err := h.recommendationService.GenerateSubscriptionRecommendations(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spending":      spending,
		"subscriptions": subscriptions,
	})
}

// ListRecommendationsQuery holds the query parameters for listing
// recommendations.
type ListRecommendationsQuery struct {
	pagination.PageRequest
	Status *models.RecommendationStatus `form:"status" binding:"omitempty,recommendation_status"`
}

// ListRecommendations lists the user's stored recommendations.
func (h *InsightHandler) ListRecommendations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListRecommendationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.recommendationService.ListRecommendations(userID, query.PageRequest, query.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RespondRequest represents the user's decision on a recommendation.
type RespondRequest struct {
	Status models.RecommendationStatus `json:"status" binding:"required,recommendation_response"`
}

// RespondToRecommendation records the user's accept/reject/dismiss decision.
func (h *InsightHandler) RespondToRecommendation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rec, err := h.recommendationService.RespondToRecommendation(userID, c.Param("id"), req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendation": rec})
}

// GetFinancialProfile returns the user's financial profile, creating an empty
// one on first access.
func (h *InsightHandler) GetFinancialProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.profileService.GetOrCreateProfile(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdatePreferencesRequest represents a partial profile preference update.
type UpdatePreferencesRequest struct {
	MonthlyIncome       *float64 `json:"monthly_income" binding:"omitempty,min=0"`
	RiskTolerance       *float64 `json:"risk_tolerance" binding:"omitempty,min=0,max=1"`
	BehavioralType      *string  `json:"behavioral_type" binding:"omitempty,behavioral_type"`
	PreferredCategories []string `json:"preferred_categories" binding:"omitempty,max=20"`
}

// UpdatePreferences merges preference fields into the user's profile. Score
// fields are owned by the health engine and cannot be written here.
func (h *InsightHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	profile, err := h.profileService.UpdatePreferences(userID, services.ProfileUpdate{
		MonthlyIncome:       req.MonthlyIncome,
		RiskTolerance:       req.RiskTolerance,
		BehavioralType:      req.BehavioralType,
		PreferredCategories: req.PreferredCategories,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
