package model

import "time"

type TransactionStatus string

const (
	TxnCompleted TransactionStatus = "completed"
	TxnInProcess TransactionStatus = "inprocess"
	TxnPending   TransactionStatus = "pending"
	TxnFailed    TransactionStatus = "failed"
	TxnFlagged   TransactionStatus = "flagged"
)

// Transaction is an internal evidence record, read-only from the pipeline's
// point of view.
type Transaction struct {
	ID              string            `json:"transaction_id" bson:"_id"`
	CustomerID      string            `json:"customer_id" bson:"customer_id"`
	CustomerName    string            `json:"customer_name" bson:"customer_name"`
	Amount          float64           `json:"amount" bson:"amount"`
	Currency        string            `json:"currency" bson:"currency"`
	TransactionType string            `json:"transaction_type" bson:"transaction_type"`
	Status          TransactionStatus `json:"status" bson:"status"`
	Description     string            `json:"description,omitempty" bson:"description,omitempty"`
	FlaggedReason   string            `json:"flagged_reason,omitempty" bson:"flagged_reason,omitempty"`
	Timestamp       time.Time         `json:"timestamp" bson:"timestamp"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// Review is a customer review evidence record.
type Review struct {
	ID           string    `json:"review_id" bson:"_id"`
	CustomerID   string    `json:"customer_id" bson:"customer_id"`
	CustomerName string    `json:"customer_name" bson:"customer_name"`
	Rating       int       `json:"rating" bson:"rating"`
	Sentiment    string    `json:"sentiment" bson:"sentiment"` // positive, negative, neutral
	Category     string    `json:"category" bson:"category"`   // service, fraud_concern, app_issue, general
	ReviewText   string    `json:"review_text" bson:"review_text"`
	Source       string    `json:"source" bson:"source"` // app, website, social_media, email
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// TransactionRef is the sanitized reference snapshot persisted on a
// workflow. It deliberately omits customer identity and amounts.
type TransactionRef struct {
	TransactionID string            `json:"transaction_id" bson:"transaction_id"`
	Status        TransactionStatus `json:"status" bson:"status"`
	FlaggedReason string            `json:"flagged_reason,omitempty" bson:"flagged_reason,omitempty"`
}

// ReviewRef is the sanitized review reference persisted on a workflow.
type ReviewRef struct {
	ReviewID  string `json:"review_id" bson:"review_id"`
	Sentiment string `json:"sentiment" bson:"sentiment"`
	Category  string `json:"category" bson:"category"`
}

// SanitizedSummary is the only verification output the drafting stage may
// read. It carries counts and derived classifications, never raw evidence.
type SanitizedSummary struct {
	MatchedTransactions int     `json:"matched_transactions"`
	MatchedReviews      int     `json:"matched_reviews"`
	TotalReviews        int     `json:"total_reviews"`
	Confidence          float64 `json:"confidence"`
	Verification        string  `json:"verification"` // CONFIRMED or NOT CONFIRMED
	Intent              string  `json:"intent"`       // positive, negative, neutral
	Analysis            string  `json:"analysis"`
}

// VerificationReport is the detailed, internal-only verification result.
type VerificationReport struct {
	MatchedTransactions      []TransactionRef
	MatchedReviews           []ReviewRef
	Analysis                 string
	ConfidenceScore          float64
	DataQuality              string
	RiskLevel                string
	EscalationRecommendation string
}
