package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
	"finwise/internal/services"
)

// CoachingHandler handles challenges, nudges and streaks.
type CoachingHandler struct {
	coachingService services.CoachingServicer
}

// NewCoachingHandler creates a new CoachingHandler.
func NewCoachingHandler(coachingService services.CoachingServicer) *CoachingHandler {
	return &CoachingHandler{coachingService: coachingService}
}

// GenerateChallenges creates this week's challenge set from the user's recent
// spending.
func (h *CoachingHandler) GenerateChallenges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	challenges, err := h.coachingService.GenerateWeeklyChallenges(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"challenges": challenges})
}

// ListChallengesQuery holds the query parameters for listing challenges.
type ListChallengesQuery struct {
	pagination.PageRequest
	Status *models.ChallengeStatus `form:"status" binding:"omitempty,challenge_status"`
}

// ListChallenges lists the user's challenges newest first.
func (h *CoachingHandler) ListChallenges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListChallengesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.coachingService.ListChallenges(userID, query.PageRequest, query.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateChallengeProgress recomputes all active challenges from the ledger
// and completes those that met their target.
func (h *CoachingHandler) UpdateChallengeProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.coachingService.UpdateChallengeProgress(userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SendNudge evaluates the nudge rules and sends at most one nudge.
func (h *CoachingHandler) SendNudge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	nudge, err := h.coachingService.SendSmartNudge(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if nudge == nil {
		c.JSON(http.StatusOK, gin.H{"nudge": nil})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"nudge": nudge})
}

// NudgeResponseRequest represents the user's reaction to a nudge.
type NudgeResponseRequest struct {
	ActionTaken bool `json:"action_taken"`
}

// RespondToNudge marks a nudge viewed and optionally acted upon.
func (h *CoachingHandler) RespondToNudge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NudgeResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	nudge, err := h.coachingService.TrackNudgeResponse(userID, c.Param("id"), req.ActionTaken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nudge": nudge})
}

// GetStreak returns the user's streak and points record.
func (h *CoachingHandler) GetStreak(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	streak, err := h.coachingService.GetStreak(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"streak": streak})
}
