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

// MessageHandler handles message ingestion and the remote parser callback.
type MessageHandler struct {
	ingestService      services.IngestServicer
	transactionService services.TransactionServicer
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(ingestService services.IngestServicer, transactionService services.TransactionServicer) *MessageHandler {
	return &MessageHandler{ingestService: ingestService, transactionService: transactionService}
}

// IngestRequest represents an inbound notification message.
type IngestRequest struct {
	PhoneNumber      string     `json:"phone_number" binding:"required,max=50"`
	Message          string     `json:"message" binding:"max=2000"`
	ReceivedAt       *time.Time `json:"received_at"`
	ConsentStoreRaw  bool       `json:"consent_store_raw"`
	ForceRemoteParse bool       `json:"force_remote_parse"`
}

// IngestMessage accepts a notification message and runs the local-first
// parsing pipeline.
func (h *MessageHandler) IngestMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	msg, err := h.ingestService.IngestMessage(userID, services.IngestInput{
		PhoneNumber:      req.PhoneNumber,
		Message:          req.Message,
		ReceivedAt:       req.ReceivedAt,
		ConsentStoreRaw:  req.ConsentStoreRaw,
		ForceRemoteParse: req.ForceRemoteParse,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetMessage returns one message with its extraction state.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	msg, err := h.transactionService.GetMessage(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ListMessagesQuery holds the query parameters for listing messages.
type ListMessagesQuery struct {
	pagination.PageRequest
	Status *models.ParsingStatus `form:"status" binding:"omitempty,parsing_status"`
}

// ListMessages lists the user's messages newest first, including unparsed and
// failed ones.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.transactionService.ListMessages(userID, query.PageRequest, query.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ReparseMessage re-runs local extraction over a stored raw message.
func (h *MessageHandler) ReparseMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	msg, err := h.ingestService.ReparseMessage(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage removes a message and its extracted transaction.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteMessage(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ParseCallback receives the remote parser's result for an escalated message.
// It is authenticated by API key, not by user token: the remote parser acts
// on messages across users.
func (h *MessageHandler) ParseCallback(c *gin.Context) {
	var result services.RemoteParseResult
	if err := c.ShouldBindJSON(&result); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidCallback, err.Error()))
		return
	}

	msg, err := h.ingestService.ApplyRemoteResult(result)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}
