package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"prsentinel/internal/cache"
	"prsentinel/internal/model"
	"prsentinel/internal/repository"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrInvalidWorkflowState rejects operator actions attempted outside
	// their required source state.
	ErrInvalidWorkflowState = errors.New("workflow is not awaiting approval")
	ErrInvalidEscalation    = errors.New("invalid escalation type")
)

// WorkflowService is the state machine orchestrating one signal's journey:
// pending → verifying → verified → drafting → drafted → awaiting_approval,
// then an operator disposition. Each transition is a short committed write;
// nothing is held across the stage's network calls.
type WorkflowService struct {
	workflowRepo repository.WorkflowRepo
	signalRepo   repository.SignalRepo
	verifier     *VerificationService
	drafter      *DraftService
	publisher    Publisher
	statusCache  cache.WorkflowCache
	broadcaster  Broadcaster
}

func NewWorkflowService(
	workflowRepo repository.WorkflowRepo,
	signalRepo repository.SignalRepo,
	verifier *VerificationService,
	drafter *DraftService,
	publisher Publisher,
	statusCache cache.WorkflowCache,
) *WorkflowService {
	return &WorkflowService{
		workflowRepo: workflowRepo,
		signalRepo:   signalRepo,
		verifier:     verifier,
		drafter:      drafter,
		publisher:    publisher,
		statusCache:  statusCache,
		broadcaster:  NopBroadcaster{},
	}
}

// SetBroadcaster injects the websocket hub (or any fan-out).
func (s *WorkflowService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *WorkflowService) emit(eventType model.EventType, workflowID string, data interface{}) {
	s.broadcaster.Broadcast(model.Event{
		Type:       eventType,
		WorkflowID: workflowID,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	})
}

// commit persists the workflow and mirrors its status. A vanished row
// (deleted mid-pipeline) is reported as repository.ErrNotFound; callers
// log and drop, never crash.
func (s *WorkflowService) commit(ctx context.Context, wf *model.Workflow) error {
	if err := s.workflowRepo.Update(ctx, wf); err != nil {
		return err
	}
	if s.statusCache != nil {
		if err := s.statusCache.SetStatus(ctx, wf.WorkflowID, wf.Status); err != nil {
			log.Printf("workflow %s: status cache write failed: %v", wf.WorkflowID, err)
		}
	}
	return nil
}

// RunPipeline drives one workflow from pending through awaiting_approval.
// It is the body of the job the intake enqueues on the worker pool.
func (s *WorkflowService) RunPipeline(ctx context.Context, workflowID string) {
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		log.Printf("workflow %s: load failed: %v", workflowID, err)
		return
	}
	if wf == nil {
		log.Printf("workflow %s: gone before pipeline start", workflowID)
		return
	}

	signal, err := s.signalRepo.GetByID(ctx, wf.SignalID)
	if err != nil || signal == nil {
		s.fail(ctx, wf, fmt.Sprintf("signal %s unavailable", wf.SignalID))
		return
	}

	// Verification
	wf.Status = model.StatusVerifying
	if !s.advance(ctx, wf) {
		return
	}
	s.emit(model.EventVerificationStarted, wf.WorkflowID, map[string]interface{}{
		"message": "Verification agent started",
	})

	var report *model.VerificationReport
	var summary *model.SanitizedSummary
	for ev := range s.verifier.Verify(ctx, signal) {
		switch ev.Type {
		case model.StageProgress, model.StageStream:
			s.emit(model.EventVerificationProgress, wf.WorkflowID, ev)
		case model.StageError:
			s.fail(ctx, wf, ev.Message)
			return
		case model.StageCompleted:
			report = ev.Report
			summary = ev.Summary
		}
	}
	if report == nil || summary == nil {
		s.fail(ctx, wf, "verification produced no result")
		return
	}

	now := time.Now().UTC()
	wf.MatchedTransactions = report.MatchedTransactions
	wf.MatchedReviews = report.MatchedReviews
	wf.Analysis = report.Analysis
	wf.ConfidenceScore = report.ConfidenceScore
	wf.DataQuality = report.DataQuality
	wf.RiskLevel = report.RiskLevel
	wf.EscalationRecommendation = report.EscalationRecommendation
	wf.VerifiedAt = &now
	wf.Status = model.StatusVerified
	if !s.advance(ctx, wf) {
		return
	}
	s.emit(model.EventVerificationCompleted, wf.WorkflowID, map[string]interface{}{
		"analysis":         report.Analysis,
		"confidence_score": report.ConfidenceScore,
		"risk_level":       report.RiskLevel,
		"verification":     summary.Verification,
	})

	// Drafting, fed the sanitized summary only
	wf.Status = model.StatusDrafting
	if !s.advance(ctx, wf) {
		return
	}
	s.emit(model.EventDraftingStarted, wf.WorkflowID, map[string]interface{}{
		"message": "Drafting agent started",
	})

	var post string
	degraded := false
	completed := false
	for ev := range s.drafter.Draft(ctx, signal, summary) {
		switch ev.Type {
		case model.StageProgress, model.StageStream:
			s.emit(model.EventDraftingProgress, wf.WorkflowID, ev)
		case model.StageError:
			s.fail(ctx, wf, ev.Message)
			return
		case model.StageCompleted:
			post = ev.Post
			degraded = ev.Degraded
			completed = true
		}
	}
	if !completed {
		// The event sequence ended without a terminal event (cancelled
		// mid-stage); never advance to approval on a missing result.
		s.fail(ctx, wf, "drafting produced no result")
		return
	}
	if degraded {
		s.fail(ctx, wf, "post generation failed: "+post)
		return
	}

	draftedAt := time.Now().UTC()
	wf.OriginalPost = post
	wf.DraftedAt = &draftedAt
	wf.Status = model.StatusDrafted
	if !s.advance(ctx, wf) {
		return
	}

	wf.Status = model.StatusAwaitingApproval
	if !s.advance(ctx, wf) {
		return
	}
	s.emit(model.EventDraftingCompleted, wf.WorkflowID, map[string]interface{}{
		"original_post": post,
	})
}

// advance commits a transition, logging and dropping if the row vanished.
func (s *WorkflowService) advance(ctx context.Context, wf *model.Workflow) bool {
	if err := s.commit(ctx, wf); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("workflow %s: deleted mid-pipeline, dropping update", wf.WorkflowID)
			return false
		}
		// Persistence failure mid-pipeline is stage-fatal.
		s.fail(ctx, wf, fmt.Sprintf("persistence failure: %v", err))
		return false
	}
	return true
}

// fail moves the workflow to its terminal failed state, best-effort.
func (s *WorkflowService) fail(ctx context.Context, wf *model.Workflow, message string) {
	log.Printf("workflow %s failed: %s", wf.WorkflowID, message)
	wf.Status = model.StatusFailed
	wf.ErrorMessage = message
	if err := s.commit(ctx, wf); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("workflow %s: could not persist failure: %v", wf.WorkflowID, err)
	}
	s.emit(model.EventWorkflowError, wf.WorkflowID, map[string]interface{}{
		"error": message,
	})
}

// Get returns one workflow with its signal type joined in.
func (s *WorkflowService) Get(ctx context.Context, workflowID string) (*model.Workflow, error) {
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil || wf == nil {
		return wf, err
	}
	s.joinSignalType(ctx, wf)
	return wf, nil
}

// List returns recent workflows, optionally filtered by status.
func (s *WorkflowService) List(ctx context.Context, status model.WorkflowStatus, limit int) ([]model.Workflow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	workflows, err := s.workflowRepo.List(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	for i := range workflows {
		s.joinSignalType(ctx, &workflows[i])
	}
	return workflows, nil
}

func (s *WorkflowService) joinSignalType(ctx context.Context, wf *model.Workflow) {
	signal, err := s.signalRepo.GetByID(ctx, wf.SignalID)
	if err == nil && signal != nil {
		wf.SignalType = signal.SignalType
	}
}

// LiveStatus answers status polls from the Redis mirror, falling back to
// MongoDB on a cache miss.
func (s *WorkflowService) LiveStatus(ctx context.Context, workflowID string) (model.WorkflowStatus, error) {
	if s.statusCache != nil {
		status, err := s.statusCache.GetStatus(ctx, workflowID)
		if err == nil && status != "" {
			return status, nil
		}
	}
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return "", err
	}
	if wf == nil {
		return "", ErrWorkflowNotFound
	}
	return wf.Status, nil
}

// Approve records the operator's approval and publishes the effective
// post. A publish failure leaves the workflow approved with the error
// recorded; re-approval is the manual retry path.
func (s *WorkflowService) Approve(ctx context.Context, workflowID, editedPost, approvedBy string) (*model.Workflow, PublishResult, error) {
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, PublishResult{}, err
	}
	if wf == nil {
		return nil, PublishResult{}, ErrWorkflowNotFound
	}
	if wf.Status != model.StatusAwaitingApproval {
		return nil, PublishResult{}, ErrInvalidWorkflowState
	}

	now := time.Now().UTC()
	if editedPost != "" {
		wf.EditedPost = editedPost
	}
	wf.ApprovedBy = approvedBy
	wf.ApprovedAt = &now
	wf.Status = model.StatusApproved
	if err := s.commit(ctx, wf); err != nil {
		return nil, PublishResult{}, err
	}

	finalPost := wf.EffectivePost()
	result := s.publisher.Publish(ctx, finalPost)

	if result.Success {
		postedAt := time.Now().UTC()
		wf.Status = model.StatusPosted
		wf.PostedAt = &postedAt
	} else {
		// Stays approved; the error is surfaced, not rolled back.
		wf.ErrorMessage = result.Err
	}
	if err := s.commit(ctx, wf); err != nil {
		return nil, result, err
	}

	s.emit(model.EventPostApproved, wf.WorkflowID, map[string]interface{}{
		"approved_by": approvedBy,
		"final_post":  finalPost,
		"posted":      result.Success,
	})
	return wf, result, nil
}

// Discard drops the drafted post without publishing.
func (s *WorkflowService) Discard(ctx context.Context, workflowID, discardedBy, reason string) (*model.Workflow, error) {
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, ErrWorkflowNotFound
	}
	if wf.Status != model.StatusAwaitingApproval {
		return nil, ErrInvalidWorkflowState
	}

	if reason == "" {
		reason = "Not specified"
	}
	now := time.Now().UTC()
	wf.Status = model.StatusDiscarded
	wf.DiscardedBy = discardedBy
	wf.DiscardedAt = &now
	wf.DiscardReason = reason
	if err := s.commit(ctx, wf); err != nil {
		return nil, err
	}

	s.emit(model.EventPostDiscarded, wf.WorkflowID, map[string]interface{}{
		"discarded_by": discardedBy,
		"reason":       reason,
	})
	return wf, nil
}

// Escalate routes the workflow to management, legal, or investigation.
func (s *WorkflowService) Escalate(ctx context.Context, workflowID string, escalationType model.EscalationType, escalatedBy string) (*model.Workflow, error) {
	var target model.WorkflowStatus
	switch escalationType {
	case model.EscalateManagement:
		target = model.StatusEscalatedManagement
	case model.EscalateLegal:
		target = model.StatusEscalatedLegal
	case model.EscalateInvestigation:
		target = model.StatusEscalatedInvestigation
	default:
		return nil, ErrInvalidEscalation
	}

	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, ErrWorkflowNotFound
	}
	if wf.Status != model.StatusAwaitingApproval {
		return nil, ErrInvalidWorkflowState
	}

	now := time.Now().UTC()
	wf.Status = target
	wf.EscalatedBy = escalatedBy
	wf.EscalatedAt = &now
	wf.EscalationType = escalationType
	if err := s.commit(ctx, wf); err != nil {
		return nil, err
	}

	s.emit(model.EventWorkflowEscalated, wf.WorkflowID, map[string]interface{}{
		"escalated_by":    escalatedBy,
		"escalation_type": escalationType,
	})
	return wf, nil
}

// Delete hard-removes the workflow from any state. The parent signal is
// left in place (orphan-and-ignore).
func (s *WorkflowService) Delete(ctx context.Context, workflowID string) error {
	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return err
	}
	if wf == nil {
		return ErrWorkflowNotFound
	}

	if err := s.workflowRepo.Delete(ctx, workflowID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkflowNotFound
		}
		return err
	}
	if s.statusCache != nil {
		if err := s.statusCache.Delete(ctx, workflowID); err != nil {
			log.Printf("workflow %s: status cache delete failed: %v", workflowID, err)
		}
	}

	s.emit(model.EventWorkflowDeleted, workflowID, nil)
	return nil
}
