package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prsentinel/internal/model"
	"prsentinel/internal/repository"
	"prsentinel/internal/service"
	"prsentinel/internal/worker"

	"github.com/gorilla/mux"
)

// --- minimal in-memory fakes ---

type stubSignalRepo struct {
	signals map[string]*model.Signal
}

func (r *stubSignalRepo) Create(ctx context.Context, s *model.Signal) error {
	r.signals[s.ID] = s
	return nil
}
func (r *stubSignalRepo) GetByID(ctx context.Context, id string) (*model.Signal, error) {
	return r.signals[id], nil
}
func (r *stubSignalRepo) List(ctx context.Context, limit int) ([]model.Signal, error) {
	out := []model.Signal{}
	for _, s := range r.signals {
		out = append(out, *s)
	}
	return out, nil
}
func (r *stubSignalRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.signals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.signals, id)
	return nil
}

type stubWorkflowRepo struct {
	workflows map[string]*model.Workflow
}

func (r *stubWorkflowRepo) Create(ctx context.Context, wf *model.Workflow) error {
	cp := *wf
	r.workflows[wf.WorkflowID] = &cp
	return nil
}
func (r *stubWorkflowRepo) GetByID(ctx context.Context, id string) (*model.Workflow, error) {
	wf, ok := r.workflows[id]
	if !ok {
		return nil, nil
	}
	cp := *wf
	return &cp, nil
}
func (r *stubWorkflowRepo) List(ctx context.Context, status model.WorkflowStatus, limit int) ([]model.Workflow, error) {
	out := []model.Workflow{}
	for _, wf := range r.workflows {
		if status != "" && wf.Status != status {
			continue
		}
		out = append(out, *wf)
	}
	return out, nil
}
func (r *stubWorkflowRepo) Update(ctx context.Context, wf *model.Workflow) error {
	if _, ok := r.workflows[wf.WorkflowID]; !ok {
		return repository.ErrNotFound
	}
	cp := *wf
	r.workflows[wf.WorkflowID] = &cp
	return nil
}
func (r *stubWorkflowRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.workflows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.workflows, id)
	return nil
}
func (r *stubWorkflowRepo) DeleteBySignal(ctx context.Context, signalID string) (int64, error) {
	var n int64
	for id, wf := range r.workflows {
		if wf.SignalID == signalID {
			delete(r.workflows, id)
			n++
		}
	}
	return n, nil
}

type stubTxnRepo struct{}

func (stubTxnRepo) Create(ctx context.Context, txn *model.Transaction) error { return nil }
func (stubTxnRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	return nil, nil
}
func (stubTxnRepo) List(ctx context.Context, limit int) ([]model.Transaction, error) {
	return nil, nil
}
func (stubTxnRepo) Update(ctx context.Context, txn *model.Transaction) error { return nil }
func (stubTxnRepo) Delete(ctx context.Context, id string) error              { return nil }
func (stubTxnRepo) SearchProblem(ctx context.Context, terms []string, limit int) ([]model.Transaction, error) {
	return nil, nil
}

type stubReviewRepo struct{}

func (stubReviewRepo) Create(ctx context.Context, review *model.Review) error { return nil }
func (stubReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	return nil, nil
}
func (stubReviewRepo) List(ctx context.Context, limit int) ([]model.Review, error) { return nil, nil }
func (stubReviewRepo) Update(ctx context.Context, review *model.Review) error      { return nil }
func (stubReviewRepo) Delete(ctx context.Context, id string) error                 { return nil }
func (stubReviewRepo) CountAll(ctx context.Context) (int64, error)                 { return 0, nil }
func (stubReviewRepo) CountBySentiment(ctx context.Context, sentiment string) (int64, error) {
	return 0, nil
}
func (stubReviewRepo) SearchBySentiment(ctx context.Context, sentiment string, terms []string, limit int) ([]model.Review, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "negative", nil
}
func (stubGenerator) Stream(ctx context.Context, prompt string) (<-chan service.StreamChunk, error) {
	out := make(chan service.StreamChunk, 1)
	out <- service.StreamChunk{Text: "Generated content."}
	close(out)
	return out, nil
}

type stubPublisher struct{ published int }

func (p *stubPublisher) Publish(ctx context.Context, content string) service.PublishResult {
	p.published++
	return service.PublishResult{Success: true}
}

type stubCache struct{ statuses map[string]model.WorkflowStatus }

func (c *stubCache) SetStatus(ctx context.Context, id string, status model.WorkflowStatus) error {
	c.statuses[id] = status
	return nil
}
func (c *stubCache) GetStatus(ctx context.Context, id string) (model.WorkflowStatus, error) {
	return c.statuses[id], nil
}
func (c *stubCache) Delete(ctx context.Context, id string) error {
	delete(c.statuses, id)
	return nil
}

type dropScheduler struct{}

func (dropScheduler) Submit(job worker.Job) bool {
	// Accept and drop: pipeline runs are not under test here.
	return true
}

type handlerEnv struct {
	workflowRepo *stubWorkflowRepo
	publisher    *stubPublisher
	router       *mux.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	signalRepo := &stubSignalRepo{signals: map[string]*model.Signal{}}
	workflowRepo := &stubWorkflowRepo{workflows: map[string]*model.Workflow{}}
	publisher := &stubPublisher{}

	verifier := service.NewVerificationService(stubTxnRepo{}, stubReviewRepo{}, stubGenerator{})
	drafter := service.NewDraftService(stubGenerator{})
	workflowSvc := service.NewWorkflowService(workflowRepo, signalRepo, verifier, drafter, publisher, &stubCache{statuses: map[string]model.WorkflowStatus{}})
	intakeSvc := service.NewIntakeService(signalRepo, workflowRepo, workflowSvc, dropScheduler{})

	h := NewWorkflowHandler(intakeSvc, workflowSvc)

	r := mux.NewRouter()
	r.HandleFunc("/v1/sentiment", h.ReceiveSentiment).Methods("POST")
	r.HandleFunc("/v1/workflows", h.ListWorkflows).Methods("GET")
	r.HandleFunc("/v1/workflows/{workflowId}", h.GetWorkflow).Methods("GET")
	r.HandleFunc("/v1/workflows/{workflowId}/status", h.GetWorkflowStatus).Methods("GET")
	r.HandleFunc("/v1/workflows/{workflowId}/approve", h.Approve).Methods("POST")
	r.HandleFunc("/v1/workflows/{workflowId}/escalate", h.Escalate).Methods("POST")
	r.HandleFunc("/v1/workflows/{workflowId}/discard", h.Discard).Methods("POST")
	r.HandleFunc("/v1/workflows/{workflowId}", h.Delete).Methods("DELETE")

	return &handlerEnv{workflowRepo: workflowRepo, publisher: publisher, router: r}
}

func (e *handlerEnv) seedWorkflow(status model.WorkflowStatus) *model.Workflow {
	wf := &model.Workflow{
		WorkflowID:   "WF-AAAA00000001",
		SignalID:     "sig-1",
		Status:       status,
		OriginalPost: "Drafted statement.",
		CreatedAt:    time.Now().UTC(),
	}
	e.workflowRepo.workflows[wf.WorkflowID] = wf
	return wf
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReceiveSentimentValidation(t *testing.T) {
	env := newHandlerEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{not json", http.StatusBadRequest},
		{"missing signal type", `{"confidence":0.8}`, http.StatusBadRequest},
		{"negative confidence", `{"signal_type":"scam_report","confidence":-1}`, http.StatusBadRequest},
		{"valid", `{"signal_type":"scam_report","confidence":0.8,"drivers":["scam"]}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, env.router, "POST", "/v1/sentiment", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestReceiveSentimentReturnsIDs(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doJSON(t, env.router, "POST", "/v1/sentiment", `{"signal_type":"scam_report","confidence":0.8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "received" {
		t.Errorf("status field = %v", resp["status"])
	}
	if resp["sentiment_id"] == "" || resp["workflow_id"] == "" {
		t.Errorf("missing ids in response: %v", resp)
	}
}

func TestApproveStatusMapping(t *testing.T) {
	t.Run("missing workflow is 404", func(t *testing.T) {
		env := newHandlerEnv(t)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-NOPE/approve", `{"approved_by":"op_1"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("wrong state is 409", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.seedWorkflow(model.StatusPending)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/approve", `{"approved_by":"op_1"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("missing approver is 400", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.seedWorkflow(model.StatusAwaitingApproval)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/approve", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("awaiting approval is approved and published", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.seedWorkflow(model.StatusAwaitingApproval)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/approve", `{"approved_by":"op_1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["posted"] != true {
			t.Errorf("posted = %v, want true", resp["posted"])
		}
		if env.publisher.published != 1 {
			t.Errorf("published %d times, want 1", env.publisher.published)
		}
	})
}

func TestEscalateStatusMapping(t *testing.T) {
	t.Run("unknown type is 400", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.seedWorkflow(model.StatusAwaitingApproval)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/escalate",
			`{"escalation_type":"board","escalated_by":"op_1"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("defaults to management", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.seedWorkflow(model.StatusAwaitingApproval)
		rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/escalate",
			`{"escalated_by":"op_1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		wf := env.workflowRepo.workflows["WF-AAAA00000001"]
		if wf.Status != model.StatusEscalatedManagement {
			t.Errorf("status = %q, want escalated_management", wf.Status)
		}
	})
}

func TestDiscardStatusMapping(t *testing.T) {
	env := newHandlerEnv(t)
	env.seedWorkflow(model.StatusAwaitingApproval)

	rec := doJSON(t, env.router, "POST", "/v1/workflows/WF-AAAA00000001/discard",
		`{"discarded_by":"op_1","reason":"tone off"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	wf := env.workflowRepo.workflows["WF-AAAA00000001"]
	if wf.Status != model.StatusDiscarded {
		t.Errorf("status = %q, want discarded", wf.Status)
	}
	if env.publisher.published != 0 {
		t.Error("discard published the post")
	}
}

func TestGetWorkflowNotFound(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doJSON(t, env.router, "GET", "/v1/workflows/WF-NOPE", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, env.router, "GET", "/v1/workflows/WF-NOPE/status", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status poll status = %d, want 404", rec.Code)
	}
}

func TestDeleteWorkflow(t *testing.T) {
	env := newHandlerEnv(t)
	env.seedWorkflow(model.StatusPosted)

	req := httptest.NewRequest("DELETE", "/v1/workflows/WF-AAAA00000001", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.workflowRepo.workflows["WF-AAAA00000001"]; ok {
		t.Error("workflow still present after delete")
	}

	req = httptest.NewRequest("DELETE", "/v1/workflows/WF-AAAA00000001", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
