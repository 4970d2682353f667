// Package parser extracts structured transaction facts from free-text bank
// and payment notification messages using ordered pattern matching. Every
// sub-extraction is independent: a field that cannot be matched is simply
// absent, lowering the confidence score, and never aborts the parse.
package parser

import (
	"time"

	"finwise/internal/logger"
	"finwise/internal/models"
)

// Weights control how much each successfully extracted field contributes to
// the overall confidence score. The sum is capped at 1.0. These are tuning
// constants, not statistically derived values.
type Weights struct {
	Amount       float64
	Direction    float64
	Counterparty float64
	Category     float64
	Account      float64
	Balance      float64
}

// DefaultWeights returns the standard confidence weighting.
func DefaultWeights() Weights {
	return Weights{
		Amount:       0.3,
		Direction:    0.2,
		Counterparty: 0.2,
		Category:     0.1,
		Account:      0.1,
		Balance:      0.1,
	}
}

// EscalationThreshold is the confidence below which a local parse is
// forwarded to the remote parser.
const EscalationThreshold = 0.7

// ParsedTransaction is the immutable result of parsing one message.
type ParsedTransaction struct {
	Amount          *float64
	Direction       models.TransactionDirection
	Counterparty    *string
	AccountLast4    *string
	Balance         *float64
	TransactionDate *time.Time
	Category        *string
	Confidence      float64
}

// Parser turns message text into ParsedTransactions. It is stateless and
// safe for concurrent use.
type Parser struct {
	taxonomy Taxonomy
	weights  Weights
}

// New creates a Parser with the given category taxonomy and confidence
// weights.
func New(taxonomy Taxonomy, weights Weights) *Parser {
	return &Parser{taxonomy: taxonomy, weights: weights}
}

// NewDefault creates a Parser with the built-in taxonomy and weights.
func NewDefault() *Parser {
	return New(DefaultTaxonomy(), DefaultWeights())
}

// Parse extracts as many transaction fields as can be matched from message.
// It never fails: missing or malformed fields stay nil and only reduce
// confidence. Parsing the same text twice yields an identical result.
func (p *Parser) Parse(message string) ParsedTransaction {
	result := ParsedTransaction{Direction: models.DirectionUnknown}
	confidence := 0.0

	if amount := extractAmount(message); amount != nil {
		result.Amount = amount
		confidence += p.weights.Amount
	}

	direction := extractDirection(message)
	result.Direction = direction
	if direction != models.DirectionUnknown {
		confidence += p.weights.Direction
	}

	// Counterparty extraction depends on the direction: debit messages name
	// a payee, credit messages name a source or reason.
	switch direction {
	case models.DirectionDebit:
		if cp := extractDebitCounterparty(message); cp != nil {
			result.Counterparty = cp
			confidence += p.weights.Counterparty

			cat := p.taxonomy.CategorizeCounterparty(*cp)
			result.Category = &cat
			confidence += p.weights.Category
		}
	case models.DirectionCredit:
		if cp := extractCreditSource(message); cp != nil {
			result.Counterparty = cp
			confidence += p.weights.Counterparty
		}
		// Credit categories derive from the whole message, so a missing
		// source does not block categorization.
		cat := p.taxonomy.CategorizeCredit(message)
		result.Category = &cat
		confidence += p.weights.Category
	}

	if account := extractAccountLast4(message); account != nil {
		result.AccountLast4 = account
		confidence += p.weights.Account
	}

	if balance := extractBalance(message); balance != nil {
		result.Balance = balance
		confidence += p.weights.Balance
	}

	if date := extractDate(message); date != nil {
		result.TransactionDate = date
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	result.Confidence = confidence

	if result.Confidence < EscalationThreshold {
		logger.Named("parser").Debugw("low confidence parse",
			"confidence", result.Confidence,
			"direction", result.Direction,
		)
	}

	return result
}

// ShouldEscalate reports whether a local parse must be forwarded to the
// remote parsing collaborator.
func ShouldEscalate(confidence float64, force bool) bool {
	return confidence < EscalationThreshold || force
}
