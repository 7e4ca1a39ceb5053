package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"prsentinel/internal/model"
	"prsentinel/internal/repository"
	"prsentinel/internal/worker"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrPersistence wraps storage failures during intake so handlers can
// distinguish them from validation problems.
var ErrPersistence = errors.New("persistence error")

// Scheduler is the subset of the worker pool intake needs.
type Scheduler interface {
	Submit(job worker.Job) bool
}

// IntakeService receives external sentiment signals, persists them, and
// enqueues the processing pipeline. It returns before the pipeline runs.
type IntakeService struct {
	signalRepo   repository.SignalRepo
	workflowRepo repository.WorkflowRepo
	workflowSvc  *WorkflowService
	scheduler    Scheduler
	broadcaster  Broadcaster
}

func NewIntakeService(
	signalRepo repository.SignalRepo,
	workflowRepo repository.WorkflowRepo,
	workflowSvc *WorkflowService,
	scheduler Scheduler,
) *IntakeService {
	return &IntakeService{
		signalRepo:   signalRepo,
		workflowRepo: workflowRepo,
		workflowSvc:  workflowSvc,
		scheduler:    scheduler,
		broadcaster:  NopBroadcaster{},
	}
}

// SetBroadcaster injects the websocket hub.
func (s *IntakeService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Receive persists a new signal, creates its workflow, schedules the
// pipeline, and returns the assigned ids immediately. Exactly one workflow
// is created per signal. If workflow creation fails after the signal
// committed, the signal row is accepted debris for manual reconciliation.
func (s *IntakeService) Receive(ctx context.Context, input model.SignalInput) (signalID, workflowID string, err error) {
	now := time.Now().UTC()
	signal := &model.Signal{
		ID:                  uuid.NewString(),
		SignalType:          input.SignalType,
		Confidence:          normalizeConfidence(input.Confidence),
		Drivers:             input.Drivers,
		UncertaintyNotes:    input.UncertaintyNotes,
		RecommendEscalation: input.RecommendEscalation,
		RawData: bson.M{
			"signal_type":          input.SignalType,
			"confidence":           input.Confidence,
			"drivers":              input.Drivers,
			"uncertainty_notes":    input.UncertaintyNotes,
			"recommend_escalation": input.RecommendEscalation,
		},
		CreatedAt: now,
	}

	if err := s.signalRepo.Create(ctx, signal); err != nil {
		return "", "", fmt.Errorf("%w: persist signal: %v", ErrPersistence, err)
	}

	workflowID = newWorkflowID()
	wf := &model.Workflow{
		WorkflowID: workflowID,
		SignalID:   signal.ID,
		Status:     model.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.workflowRepo.Create(ctx, wf); err != nil {
		// Signal already committed; leave it orphaned for reconciliation.
		log.Printf("intake: workflow create failed for signal %s, signal left orphaned: %v", signal.ID, err)
		return "", "", fmt.Errorf("%w: persist workflow: %v", ErrPersistence, err)
	}

	s.broadcaster.Broadcast(model.Event{
		Type:       model.EventSignalReceived,
		WorkflowID: workflowID,
		Data: map[string]interface{}{
			"sentiment_id": signal.ID,
			"signal":       input,
		},
		Timestamp: time.Now().UTC(),
	})

	if !s.scheduler.Submit(func(jobCtx context.Context) {
		s.workflowSvc.RunPipeline(jobCtx, workflowID)
	}) {
		// Never leave a workflow silently stuck in pending.
		s.workflowSvc.fail(ctx, wf, "pipeline queue full")
		return signal.ID, workflowID, nil
	}

	return signal.ID, workflowID, nil
}

// normalizeConfidence maps detector confidences to the 0-100 range.
// Producers send [0,1] fractions; the data-entry surface also accepts
// percentages.
func normalizeConfidence(c float64) float64 {
	if c <= 1.0 {
		c = c * 100
	}
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// newWorkflowID allocates a human-readable workflow token. Random enough
// that collisions are not handled at this scale.
func newWorkflowID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WF-" + strings.ToUpper(hex[:12])
}
