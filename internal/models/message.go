package models

import "time"

// ParsingStatus tracks a message's extraction lifecycle.
type ParsingStatus string

const (
	ParsingStatusPending       ParsingStatus = "pending"
	ParsingStatusParsed        ParsingStatus = "parsed"
	ParsingStatusFailed        ParsingStatus = "failed"
	ParsingStatusRemoteParsing ParsingStatus = "remote_parsing"
)

// TransactionDirection is the debit/credit classification of a parsed message.
type TransactionDirection string

const (
	DirectionDebit   TransactionDirection = "debit"
	DirectionCredit  TransactionDirection = "credit"
	DirectionUnknown TransactionDirection = "unknown"
)

// Message is a persisted bank/payment notification together with the
// transaction facts extracted from it. It is created with status pending,
// updated synchronously after local extraction, and may be updated once more
// by the remote parser callback, which is authoritative on success.
type Message struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	PhoneNumber string `gorm:"not null" json:"phone_number"`
	// RawMessage is retained only when the caller consented to store it.
	RawMessage *string   `json:"raw_message,omitempty"`
	ReceivedAt time.Time `gorm:"not null;index" json:"received_at"`

	// Parse lifecycle
	ParsedAt             *time.Time    `json:"parsed_at,omitempty"`
	ParsingStatus        ParsingStatus `gorm:"not null;default:pending" json:"parsing_status"`
	ErrorMessage         *string       `json:"error_message,omitempty"`
	RemoteParseRequested bool          `gorm:"default:false" json:"remote_parse_requested"`

	// Extracted transaction facts; all optional, missing fields stay nil.
	Amount          *float64              `json:"amount,omitempty"`
	Direction       *TransactionDirection `json:"direction,omitempty"`
	Counterparty    *string               `json:"counterparty,omitempty"`
	AccountLast4    *string               `gorm:"size:4" json:"account_last4,omitempty"`
	TransactionDate *time.Time            `json:"transaction_date,omitempty"`
	Balance         *float64              `json:"balance,omitempty"`
	Category        *string               `json:"category,omitempty"`
	Confidence      float64               `gorm:"default:0" json:"confidence"`
}
