package model

import "time"

// EventType identifies a broadcast envelope on the observer channel.
type EventType string

const (
	EventSignalReceived        EventType = "signal_received"
	EventVerificationStarted   EventType = "verification_started"
	EventVerificationProgress  EventType = "verification_progress"
	EventVerificationCompleted EventType = "verification_completed"
	EventDraftingStarted       EventType = "drafting_started"
	EventDraftingProgress      EventType = "drafting_progress"
	EventDraftingCompleted     EventType = "drafting_completed"
	EventWorkflowError         EventType = "workflow_error"
	EventPostApproved          EventType = "post_approved"
	EventPostDiscarded         EventType = "post_discarded"
	EventWorkflowEscalated     EventType = "workflow_escalated"
	EventWorkflowDeleted       EventType = "workflow_deleted"
)

// Event is the envelope pushed to every connected observer.
type Event struct {
	Type       EventType   `json:"type"`
	WorkflowID string      `json:"workflow_id"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// StageEventType classifies events produced by a pipeline stage.
type StageEventType string

const (
	StageProgress  StageEventType = "progress"
	StageStream    StageEventType = "stream"
	StageCompleted StageEventType = "completed"
	StageError     StageEventType = "error"
)

// StageEvent is one element of a stage's lazy event sequence. Exactly one
// terminal event (completed or error) ends the sequence; the channel is
// closed after it.
type StageEvent struct {
	Type    StageEventType `json:"type"`
	Stage   string         `json:"stage"`
	Message string         `json:"message,omitempty"`
	Chunk   string         `json:"chunk,omitempty"`
	Count   int            `json:"count,omitempty"`

	// Degraded marks a completed event whose content came from a fallback
	// after a generation failure. Drafting treats this as a stage failure.
	Degraded bool `json:"degraded,omitempty"`

	// Terminal payloads, set on completed events only.
	Report  *VerificationReport `json:"-"`
	Summary *SanitizedSummary   `json:"-"`
	Post    string              `json:"-"`
}
