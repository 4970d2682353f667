package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
	"finwise/internal/services"
)

// TransactionHandler serves the parsed-transaction ledger views.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// ListTransactionsQuery holds the query parameters for listing transactions.
type ListTransactionsQuery struct {
	pagination.PageRequest
	FromDate  *time.Time                   `form:"from_date" time_format:"2006-01-02"`
	ToDate    *time.Time                   `form:"to_date" time_format:"2006-01-02"`
	Direction *models.TransactionDirection `form:"direction" binding:"omitempty,transaction_direction"`
	Category  *string                      `form:"category"`
	MinAmount *float64                     `form:"min_amount" binding:"omitempty,min=0"`
	MaxAmount *float64                     `form:"max_amount" binding:"omitempty,min=0"`
	Search    *string                      `form:"search" binding:"omitempty,max=100"`
}

// ListTransactions lists amount-bearing messages with optional filters.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.transactionService.ListTransactions(userID, query.PageRequest, services.TransactionFilter{
		FromDate:  query.FromDate,
		ToDate:    query.ToDate,
		Direction: query.Direction,
		Category:  query.Category,
		MinAmount: query.MinAmount,
		MaxAmount: query.MaxAmount,
		Search:    query.Search,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SummaryQuery holds the query parameters for the transaction summary.
type SummaryQuery struct {
	Period string `form:"period" binding:"omitempty,summary_period"`
}

// GetSummary aggregates the user's transactions over a named period.
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if query.Period == "" {
		query.Period = "month"
	}

	summary, err := h.transactionService.Summary(userID, query.Period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
