package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// SignalInput is the ingestion payload sent by the sentiment detector.
type SignalInput struct {
	SignalType          string   `json:"signal_type"`
	Confidence          float64  `json:"confidence"`
	Drivers             []string `json:"drivers"`
	UncertaintyNotes    *string  `json:"uncertainty_notes"`
	RecommendEscalation bool     `json:"recommend_escalation"`
}

// Signal is the immutable record of one received sentiment event.
// Confidence is normalized to the 0-100 range at intake; producers send
// either [0,1] fractions or percentages.
type Signal struct {
	ID                  string   `json:"id" bson:"_id"`
	SignalType          string   `json:"signal_type" bson:"signal_type"`
	Confidence          float64  `json:"confidence" bson:"confidence"`
	Drivers             []string `json:"drivers" bson:"drivers"`
	UncertaintyNotes    *string  `json:"uncertainty_notes" bson:"uncertainty_notes,omitempty"`
	RecommendEscalation bool     `json:"recommend_escalation" bson:"recommend_escalation"`

	// RawData keeps the full original payload for audit.
	RawData bson.M `json:"raw_data,omitempty" bson:"raw_data,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
