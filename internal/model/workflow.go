package model

import "time"

type WorkflowStatus string

const (
	StatusPending          WorkflowStatus = "pending"
	StatusVerifying        WorkflowStatus = "verifying"
	StatusVerified         WorkflowStatus = "verified"
	StatusDrafting         WorkflowStatus = "drafting"
	StatusDrafted          WorkflowStatus = "drafted"
	StatusAwaitingApproval WorkflowStatus = "awaiting_approval"
	StatusApproved         WorkflowStatus = "approved"
	StatusPosted           WorkflowStatus = "posted"
	// StatusRejected is a reserved terminal status with no producing
	// transition yet.
	StatusRejected               WorkflowStatus = "rejected"
	StatusDiscarded              WorkflowStatus = "discarded"
	StatusEscalatedManagement    WorkflowStatus = "escalated_management"
	StatusEscalatedLegal         WorkflowStatus = "escalated_legal"
	StatusEscalatedInvestigation WorkflowStatus = "escalated_investigation"
	StatusFailed                 WorkflowStatus = "failed"
)

// Terminal reports whether no further pipeline or operator transition can
// leave the status.
func (s WorkflowStatus) Terminal() bool {
	switch s {
	case StatusPosted, StatusRejected, StatusDiscarded,
		StatusEscalatedManagement, StatusEscalatedLegal,
		StatusEscalatedInvestigation, StatusFailed:
		return true
	}
	return false
}

type EscalationType string

const (
	EscalateManagement    EscalationType = "management"
	EscalateLegal         EscalationType = "legal"
	EscalateInvestigation EscalationType = "investigation"
)

// Workflow tracks one signal's journey from intake to disposition.
type Workflow struct {
	WorkflowID string         `json:"workflow_id" bson:"_id"`
	SignalID   string         `json:"sentiment_id" bson:"signal_id"`
	Status     WorkflowStatus `json:"status" bson:"status"`

	// SignalType is joined from the signal for list responses, never stored.
	SignalType string `json:"signal_type,omitempty" bson:"-"`

	// Verification stage outputs
	MatchedTransactions      []TransactionRef `json:"matched_transactions,omitempty" bson:"matched_transactions,omitempty"`
	MatchedReviews           []ReviewRef      `json:"matched_reviews,omitempty" bson:"matched_reviews,omitempty"`
	Analysis                 string           `json:"analysis,omitempty" bson:"analysis,omitempty"`
	ConfidenceScore          float64          `json:"confidence_score" bson:"confidence_score"`
	DataQuality              string           `json:"data_quality,omitempty" bson:"data_quality,omitempty"`
	RiskLevel                string           `json:"risk_level,omitempty" bson:"risk_level,omitempty"`
	EscalationRecommendation string           `json:"escalation_recommendation,omitempty" bson:"escalation_recommendation,omitempty"`
	VerifiedAt               *time.Time       `json:"verified_at,omitempty" bson:"verified_at,omitempty"`

	// Drafting stage outputs
	OriginalPost string     `json:"original_post,omitempty" bson:"original_post,omitempty"`
	EditedPost   string     `json:"edited_post,omitempty" bson:"edited_post,omitempty"`
	DraftedAt    *time.Time `json:"drafted_at,omitempty" bson:"drafted_at,omitempty"`

	// Approval and publication
	ApprovedBy string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty" bson:"posted_at,omitempty"`

	// Discard
	DiscardedBy   string     `json:"discarded_by,omitempty" bson:"discarded_by,omitempty"`
	DiscardedAt   *time.Time `json:"discarded_at,omitempty" bson:"discarded_at,omitempty"`
	DiscardReason string     `json:"discard_reason,omitempty" bson:"discard_reason,omitempty"`

	// Escalation
	EscalatedBy    string         `json:"escalated_by,omitempty" bson:"escalated_by,omitempty"`
	EscalatedAt    *time.Time     `json:"escalated_at,omitempty" bson:"escalated_at,omitempty"`
	EscalationType EscalationType `json:"escalation_type,omitempty" bson:"escalation_type,omitempty"`

	ErrorMessage string `json:"error_message,omitempty" bson:"error_message,omitempty"`
	RetryCount   int    `json:"retry_count" bson:"retry_count"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// EffectivePost is the document used for publishing: the operator edit when
// present, otherwise the drafted original.
func (w *Workflow) EffectivePost() string {
	if w.EditedPost != "" {
		return w.EditedPost
	}
	return w.OriginalPost
}
