package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prsentinel/internal/model"
)

func newIntakeEnv(t *testing.T, scheduler Scheduler) (*IntakeService, *pipelineEnv) {
	t.Helper()
	env := newPipelineEnv(t, healthyGenerator(), negativeReviews(2, 10))
	svc := NewIntakeService(env.signalRepo, env.workflowRepo, env.svc, scheduler)
	svc.SetBroadcaster(env.broadcaster)
	return svc, env
}

func testInput() model.SignalInput {
	return model.SignalInput{
		SignalType:          "phishing_warning",
		Confidence:          0.82,
		Drivers:             []string{"phishing", "account security"},
		RecommendEscalation: true,
	}
}

func TestReceiveCreatesSignalAndOneWorkflow(t *testing.T) {
	svc, env := newIntakeEnv(t, &inlineScheduler{})

	signalID, workflowID, err := svc.Receive(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if signalID == "" || workflowID == "" {
		t.Fatalf("empty ids: signal=%q workflow=%q", signalID, workflowID)
	}
	if !strings.HasPrefix(workflowID, "WF-") {
		t.Errorf("workflow id = %q, want WF- prefix", workflowID)
	}

	signal, err := env.signalRepo.GetByID(context.Background(), signalID)
	if err != nil || signal == nil {
		t.Fatalf("signal not persisted: %v, %v", signal, err)
	}
	if signal.Confidence != 82 {
		t.Errorf("confidence = %v, want normalized 82", signal.Confidence)
	}
	if signal.RawData == nil {
		t.Error("raw payload not retained")
	}

	workflows, err := env.workflowRepo.List(context.Background(), "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(workflows) != 1 {
		t.Fatalf("workflows = %d, want exactly one per signal", len(workflows))
	}
	if workflows[0].SignalID != signalID {
		t.Errorf("workflow signal id = %q, want %q", workflows[0].SignalID, signalID)
	}

	// The inline scheduler ran the pipeline to completion.
	if workflows[0].Status != model.StatusAwaitingApproval {
		t.Errorf("status = %q, want awaiting_approval after inline run", workflows[0].Status)
	}

	// signal_received is broadcast before any pipeline event.
	types := env.broadcaster.types()
	if len(types) == 0 || types[0] != model.EventSignalReceived {
		t.Errorf("first event = %v, want signal_received", types)
	}
}

func TestReceiveSignalPersistenceFailure(t *testing.T) {
	svc, env := newIntakeEnv(t, &inlineScheduler{})
	env.signalRepo.failOn = "Create"

	_, _, err := svc.Receive(context.Background(), testInput())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestReceiveWorkflowPersistenceFailureLeavesSignal(t *testing.T) {
	svc, env := newIntakeEnv(t, &inlineScheduler{})
	env.workflowRepo.failOn = "Create"

	_, _, err := svc.Receive(context.Background(), testInput())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	// The committed signal stays as reconciliation debris.
	signals, _ := env.signalRepo.List(context.Background(), 10)
	if len(signals) != 1 {
		t.Errorf("signals = %d, want the orphaned row kept", len(signals))
	}
}

func TestReceiveFullQueueFailsWorkflow(t *testing.T) {
	svc, env := newIntakeEnv(t, &inlineScheduler{reject: true})

	signalID, workflowID, err := svc.Receive(context.Background(), testInput())
	if err != nil {
		t.Fatalf("a full queue is not an intake error: %v", err)
	}
	if signalID == "" || workflowID == "" {
		t.Fatal("ids must still be returned")
	}

	// Never a silent stuck-pending workflow.
	wf, _ := env.workflowRepo.GetByID(context.Background(), workflowID)
	if wf.Status != model.StatusFailed {
		t.Errorf("status = %q, want failed when the queue rejects", wf.Status)
	}
	if !strings.Contains(wf.ErrorMessage, "queue full") {
		t.Errorf("error message = %q", wf.ErrorMessage)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.5, 50},
		{1.0, 100},
		{82, 82},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		if got := normalizeConfidence(tt.in); got != tt.want {
			t.Errorf("normalizeConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWorkflowIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newWorkflowID()
		if !strings.HasPrefix(id, "WF-") || len(id) != 15 {
			t.Fatalf("malformed workflow id %q", id)
		}
		if id != strings.ToUpper(id) {
			t.Fatalf("workflow id %q not upper-case", id)
		}
		if seen[id] {
			t.Fatalf("duplicate workflow id %q", id)
		}
		seen[id] = true
	}
}
