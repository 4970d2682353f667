package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
)

// transactionService reads and aggregates the transaction store.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// GetMessage retrieves a single message owned by the user.
func (s *transactionService) GetMessage(userID, messageID string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.Where("id = ? AND user_id = ?", messageID, userID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &msg, nil
}

// ListMessages lists a user's messages newest first, optionally filtered by
// parsing status. Unparsed and failed records are included; this is the raw
// pipeline view.
func (s *transactionService) ListMessages(userID string, page pagination.PageRequest, status *models.ParsingStatus) (*pagination.PageResponse[models.Message], error) {
	page.Defaults()

	query := s.db.Model(&models.Message{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("parsing_status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var messages []models.Message
	err := query.Scopes(pagination.NewestFirst("received_at"), pagination.Paginate(page)).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(messages, page.Page, page.PageSize, total)
	return &resp, nil
}

// ListTransactions lists amount-bearing messages newest first with optional
// filters on date range, direction, category, amount bounds and counterparty
// text search.
func (s *transactionService) ListTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Message], error) {
	page.Defaults()

	query := s.db.Model(&models.Message{}).
		Where("user_id = ? AND amount IS NOT NULL", userID)

	if filter.FromDate != nil {
		query = query.Where("received_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("received_at <= ?", *filter.ToDate)
	}
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.Search != nil && *filter.Search != "" {
		query = query.Where("LOWER(counterparty) LIKE ?", "%"+strings.ToLower(*filter.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var messages []models.Message
	err := query.Scopes(pagination.NewestFirst("received_at"), pagination.Paginate(page)).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(messages, page.Page, page.PageSize, total)
	return &resp, nil
}

// summaryWindow resolves a period name to its start time. For "all" the
// window opens at the user's earliest transaction.
func (s *transactionService) summaryWindow(userID, period string, now time.Time) (time.Time, error) {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, 0, -30), nil
	case "year":
		return now.AddDate(0, 0, -365), nil
	case "all":
		var first models.Message
		err := s.db.Where("user_id = ? AND amount IS NOT NULL", userID).
			Order("received_at ASC").First(&first).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return now, nil
			}
			return time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return first.ReceivedAt, nil
	default:
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be one of week, month, year, all")
	}
}

// Summary aggregates income, spend, category breakdown and top counterparties
// over a named period.
func (s *transactionService) Summary(userID, period string) (*TransactionSummary, error) {
	now := time.Now().UTC()
	start, err := s.summaryWindow(userID, period, now)
	if err != nil {
		return nil, err
	}

	var txns []models.Message
	err = s.db.Where("user_id = ? AND received_at >= ? AND amount IS NOT NULL", userID, start).
		Find(&txns).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income, expense := incomeAndExpense(txns)

	breakdown := make(map[string]float64)
	counterpartyTotals := make(map[string]float64)
	for _, t := range txns {
		if !isDebit(t) {
			continue
		}
		if t.Category != nil {
			breakdown[*t.Category] += *t.Amount
		}
		if t.Counterparty != nil {
			counterpartyTotals[*t.Counterparty] += *t.Amount
		}
	}

	top := make([]CounterpartyTotal, 0, len(counterpartyTotals))
	for name, amount := range counterpartyTotals {
		top = append(top, CounterpartyTotal{Counterparty: name, Amount: amount})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Amount != top[j].Amount {
			return top[i].Amount > top[j].Amount
		}
		return top[i].Counterparty < top[j].Counterparty
	})
	if len(top) > 5 {
		top = top[:5]
	}

	days := int(now.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}

	savingsRate := 0.0
	if income > 0 {
		savingsRate = (income - expense) / income * 100
	}

	return &TransactionSummary{
		Period:            period,
		StartDate:         start,
		EndDate:           now,
		TotalIncome:       income,
		TotalExpenses:     expense,
		NetSavings:        income - expense,
		SavingsRate:       savingsRate,
		TransactionCount:  len(txns),
		AverageDailySpend: expense / float64(days),
		CategoryBreakdown: breakdown,
		TopCounterparties: top,
	}, nil
}

// DeleteMessage soft-deletes a message owned by the user.
func (s *transactionService) DeleteMessage(userID, messageID string) error {
	result := s.db.Where("id = ? AND user_id = ?", messageID, userID).Delete(&models.Message{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}
