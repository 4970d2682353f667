package services

import (
	"time"

	"finwise/internal/models"
	"finwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RecordLogin(userID string) error
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// IngestInput is the inbound notification payload handed to the pipeline.
type IngestInput struct {
	PhoneNumber      string
	Message          string
	ReceivedAt       *time.Time
	ConsentStoreRaw  bool
	ForceRemoteParse bool
}

// RemoteParsedFields mirrors the extractor's output shape on the remote
// parser's callback wire format.
type RemoteParsedFields struct {
	Amount          *float64                     `json:"amount"`
	Direction       *models.TransactionDirection `json:"direction" binding:"omitempty,oneof=debit credit unknown"`
	Counterparty    *string                      `json:"counterparty"`
	AccountLast4    *string                      `json:"account_last4"`
	TransactionDate *time.Time                   `json:"transaction_date"`
	Balance         *float64                     `json:"balance"`
	Category        *string                      `json:"category"`
	Confidence      *float64                     `json:"confidence" binding:"omitempty,min=0,max=1"`
}

// RemoteParseResult is the inbound callback posted by the remote parsing
// collaborator after an escalation.
type RemoteParseResult struct {
	TransactionID string              `json:"transaction_id" binding:"required"`
	Success       bool                `json:"success"`
	Parsed        *RemoteParsedFields `json:"parsed_fields,omitempty"`
	Error         *string             `json:"error,omitempty"`
}

// IngestServicer defines the contract for the message ingestion pipeline.
type IngestServicer interface {
	IngestMessage(userID string, in IngestInput) (*models.Message, error)
	ReparseMessage(userID, messageID string) (*models.Message, error)
	ApplyRemoteResult(result RemoteParseResult) (*models.Message, error)
}

// TransactionFilter holds optional filter parameters for listing parsed
// transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Direction *models.TransactionDirection
	Category  *string
	MinAmount *float64
	MaxAmount *float64
	Search    *string
}

// CounterpartyTotal is one entry of a top-spend ranking.
type CounterpartyTotal struct {
	Counterparty string  `json:"counterparty"`
	Amount       float64 `json:"amount"`
}

// TransactionSummary aggregates a user's transactions over a period.
type TransactionSummary struct {
	Period            string              `json:"period"`
	StartDate         time.Time           `json:"start_date"`
	EndDate           time.Time           `json:"end_date"`
	TotalIncome       float64             `json:"total_income"`
	TotalExpenses     float64             `json:"total_expenses"`
	NetSavings        float64             `json:"net_savings"`
	SavingsRate       float64             `json:"savings_rate"`
	TransactionCount  int                 `json:"transaction_count"`
	AverageDailySpend float64             `json:"average_daily_spend"`
	CategoryBreakdown map[string]float64  `json:"category_breakdown"`
	TopCounterparties []CounterpartyTotal `json:"top_counterparties"`
}

// TransactionServicer defines the contract for reading the transaction store.
type TransactionServicer interface {
	GetMessage(userID, messageID string) (*models.Message, error)
	ListMessages(userID string, page pagination.PageRequest, status *models.ParsingStatus) (*pagination.PageResponse[models.Message], error)
	ListTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Message], error)
	Summary(userID, period string) (*TransactionSummary, error)
	DeleteMessage(userID, messageID string) error
}

// HealthScores holds the four sub-scores and the weighted overall score,
// each in [0,100] rounded to 2 decimals.
type HealthScores struct {
	Overall   float64 `json:"overall_score"`
	Savings   float64 `json:"savings_score"`
	Spending  float64 `json:"spending_score"`
	Stability float64 `json:"stability_score"`
	Progress  float64 `json:"progress_score"`
}

// HealthServicer defines the contract for financial health scoring.
type HealthServicer interface {
	CalculateHealthScore(userID string) (*HealthScores, error)
}

// RecommendationServicer defines the contract for savings recommendation
// generation and feedback.
type RecommendationServicer interface {
	GenerateSpendingRecommendations(userID string) ([]models.Recommendation, error)
	GenerateSubscriptionRecommendations(userID string) ([]models.Recommendation, error)
	ListRecommendations(userID string, page pagination.PageRequest, status *models.RecommendationStatus) (*pagination.PageResponse[models.Recommendation], error)
	RespondToRecommendation(userID, recommendationID string, status models.RecommendationStatus) (*models.Recommendation, error)
}

// GoalUpdate holds optional partial-update fields for a financial goal.
type GoalUpdate struct {
	Name          *string
	TargetAmount  *float64
	CurrentAmount *float64
	Deadline      *time.Time
	Category      *string
	IsActive      *bool
}

// GoalServicer defines the contract for goal management and acceleration.
type GoalServicer interface {
	CreateGoal(userID, name string, targetAmount float64, deadline *time.Time, category string) (*models.FinancialGoal, error)
	GetGoalByID(userID, goalID string) (*models.FinancialGoal, error)
	ListGoals(userID string, page pagination.PageRequest, activeOnly bool) (*pagination.PageResponse[models.FinancialGoal], error)
	UpdateGoal(userID, goalID string, update GoalUpdate) (*models.FinancialGoal, error)
	DeleteGoal(userID, goalID string) error
	AccelerateGoal(userID, goalID string) ([]models.Recommendation, error)
}

// CoachingServicer defines the contract for challenges, nudges and streaks.
type CoachingServicer interface {
	GenerateWeeklyChallenges(userID string) ([]models.Challenge, error)
	UpdateChallengeProgress(userID string) error
	ListChallenges(userID string, page pagination.PageRequest, status *models.ChallengeStatus) (*pagination.PageResponse[models.Challenge], error)
	SendSmartNudge(userID string) (*models.Nudge, error)
	TrackNudgeResponse(userID, nudgeID string, actionTaken bool) (*models.Nudge, error)
	GetStreak(userID string) (*models.Streak, error)
}

// ProfileUpdate holds optional partial-update fields for a user's financial
// profile. Only these fields can be written through preference updates.
type ProfileUpdate struct {
	MonthlyIncome       *float64
	RiskTolerance       *float64
	BehavioralType      *string
	PreferredCategories []string
}

// ProfileServicer defines the contract for financial profile access.
type ProfileServicer interface {
	GetOrCreateProfile(userID string) (*models.FinancialProfile, error)
	UpdatePreferences(userID string, update ProfileUpdate) (*models.FinancialProfile, error)
}
