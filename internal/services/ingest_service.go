package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/jobs"
	"finwise/internal/logger"
	"finwise/internal/models"
	"finwise/internal/parser"
)

// ingestService runs the local-first parsing pipeline. Local extraction is
// synchronous; low-confidence results are escalated to the remote parser
// through the publisher without blocking the caller.
type ingestService struct {
	db          *gorm.DB
	parser      *parser.Parser
	publisher   jobs.Publisher
	callbackURL string
}

// NewIngestService creates a new IngestServicer. publisher may be nil, in
// which case escalation is disabled and every message stays with its local
// parse result.
func NewIngestService(db *gorm.DB, p *parser.Parser, publisher jobs.Publisher, callbackURL string) IngestServicer {
	return &ingestService{
		db:          db,
		parser:      p,
		publisher:   publisher,
		callbackURL: callbackURL,
	}
}

// IngestMessage persists an inbound notification, parses it locally, and
// escalates to the remote parser when confidence is low or the caller forced
// it. The locally parsed record is committed and returned before the
// escalation leg runs.
func (s *ingestService) IngestMessage(userID string, in IngestInput) (*models.Message, error) {
	if userID == "" || in.PhoneNumber == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user and phone number are required")
	}

	receivedAt := time.Now().UTC()
	if in.ReceivedAt != nil {
		receivedAt = in.ReceivedAt.UTC()
	}

	msg := &models.Message{
		UserID:        userID,
		PhoneNumber:   in.PhoneNumber,
		ReceivedAt:    receivedAt,
		ParsingStatus: models.ParsingStatusPending,
	}
	if in.ConsentStoreRaw {
		raw := in.Message
		msg.RawMessage = &raw
	}

	escalate := false
	if strings.TrimSpace(in.Message) == "" {
		// The only whole-message failure: input that carries no text at
		// all. The record is still persisted, never dropped.
		errMsg := "message text is empty"
		msg.ParsingStatus = models.ParsingStatusFailed
		msg.ErrorMessage = &errMsg
	} else {
		parsed := s.parser.Parse(in.Message)
		applyParsed(msg, parsed)

		now := time.Now().UTC()
		msg.ParsedAt = &now
		msg.ParsingStatus = models.ParsingStatusParsed

		if s.publisher != nil && parser.ShouldEscalate(parsed.Confidence, in.ForceRemoteParse) {
			escalate = true
			msg.RemoteParseRequested = true
			msg.ParsingStatus = models.ParsingStatusRemoteParsing
		}
	}

	if err := s.db.Create(msg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}

	if escalate {
		s.escalate(msg.ID, in.Message)
	}

	return msg, nil
}

// escalate publishes a remote-parse job. Failures are logged and swallowed;
// the local result is already persisted and visible.
func (s *ingestService) escalate(messageID, text string) {
	job := &jobs.RemoteParseJob{
		MessageID:   messageID,
		Text:        text,
		CallbackURL: s.callbackURL,
	}
	if err := s.publisher.PublishRemoteParse(context.Background(), job); err != nil {
		logger.Named("ingest").Warnw("remote parse escalation dropped",
			"message_id", messageID,
			"error", err,
		)
	}
}

// ReparseMessage re-runs local extraction over a stored raw message at the
// user's request. Reparsing never escalates.
func (s *ingestService) ReparseMessage(userID, messageID string) (*models.Message, error) {
	msg, err := s.getOwned(userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RawMessage == nil {
		return nil, apperrors.ErrNoRawMessage
	}

	parsed := s.parser.Parse(*msg.RawMessage)
	applyParsed(msg, parsed)

	now := time.Now().UTC()
	msg.ParsedAt = &now
	msg.ParsingStatus = models.ParsingStatusParsed
	msg.ErrorMessage = nil

	if err := s.db.Save(msg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return msg, nil
}

// ApplyRemoteResult merges a remote parser callback into the stored record.
// A successful remote result is authoritative and overwrites every parsed
// field. The merge is last-writer-wins and idempotent: re-applying an
// identical callback leaves the record in the same state.
func (s *ingestService) ApplyRemoteResult(result RemoteParseResult) (*models.Message, error) {
	var msg models.Message
	if err := s.db.Where("id = ?", result.TransactionID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if result.Success && result.Parsed != nil {
		p := result.Parsed
		msg.Amount = p.Amount
		msg.Direction = p.Direction
		msg.Counterparty = p.Counterparty
		msg.AccountLast4 = p.AccountLast4
		msg.TransactionDate = p.TransactionDate
		msg.Balance = p.Balance
		msg.Category = p.Category
		if p.Confidence != nil {
			msg.Confidence = *p.Confidence
		} else {
			msg.Confidence = 1.0
		}
		msg.ParsingStatus = models.ParsingStatusParsed
		msg.ErrorMessage = nil
		if msg.ParsedAt == nil {
			now := time.Now().UTC()
			msg.ParsedAt = &now
		}
	} else {
		errMsg := "remote parsing failed"
		if result.Error != nil && *result.Error != "" {
			errMsg = *result.Error
		}
		msg.ParsingStatus = models.ParsingStatusFailed
		msg.ErrorMessage = &errMsg
	}

	if err := s.db.Save(&msg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreWrite, err)
	}
	return &msg, nil
}

func (s *ingestService) getOwned(userID, messageID string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.Where("id = ? AND user_id = ?", messageID, userID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &msg, nil
}

// applyParsed copies extractor output onto the stored record.
func applyParsed(msg *models.Message, parsed parser.ParsedTransaction) {
	direction := parsed.Direction
	msg.Amount = parsed.Amount
	msg.Direction = &direction
	msg.Counterparty = parsed.Counterparty
	msg.AccountLast4 = parsed.AccountLast4
	msg.TransactionDate = parsed.TransactionDate
	msg.Balance = parsed.Balance
	msg.Category = parsed.Category
	msg.Confidence = parsed.Confidence
}
