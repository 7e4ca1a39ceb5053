package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"prsentinel/internal/model"
	"prsentinel/internal/repository"
	"prsentinel/internal/worker"
)

// --- text generator fakes ---

type fakeGenerator struct {
	generateResp string
	generateErr  error

	streamChunks []string
	streamErr    error // error returned from Stream itself
	chunkErr     error // error delivered mid-stream
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generateResp, g.generateErr
}

func (g *fakeGenerator) Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	if g.streamErr != nil {
		return nil, g.streamErr
	}
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, c := range g.streamChunks {
			out <- StreamChunk{Text: c}
		}
		if g.chunkErr != nil {
			out <- StreamChunk{Err: g.chunkErr}
		}
	}()
	return out, nil
}

// --- repository fakes ---

type memSignalRepo struct {
	mu      sync.Mutex
	signals map[string]*model.Signal
	failOn  string // method name to fail
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{signals: make(map[string]*model.Signal)}
}

func (r *memSignalRepo) Create(ctx context.Context, signal *model.Signal) error {
	if r.failOn == "Create" {
		return errors.New("signal create failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *signal
	r.signals[signal.ID] = &cp
	return nil
}

func (r *memSignalRepo) GetByID(ctx context.Context, id string) (*model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.signals[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSignalRepo) List(ctx context.Context, limit int) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Signal{}
	for _, s := range r.signals {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSignalRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.signals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.signals, id)
	return nil
}

type memWorkflowRepo struct {
	mu        sync.Mutex
	workflows map[string]*model.Workflow
	failOn    string
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{workflows: make(map[string]*model.Workflow)}
}

func (r *memWorkflowRepo) Create(ctx context.Context, wf *model.Workflow) error {
	if r.failOn == "Create" {
		return errors.New("workflow create failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *wf
	r.workflows[wf.WorkflowID] = &cp
	return nil
}

func (r *memWorkflowRepo) GetByID(ctx context.Context, id string) (*model.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[id]
	if !ok {
		return nil, nil
	}
	cp := *wf
	return &cp, nil
}

func (r *memWorkflowRepo) List(ctx context.Context, status model.WorkflowStatus, limit int) ([]model.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Workflow{}
	for _, wf := range r.workflows {
		if status != "" && wf.Status != status {
			continue
		}
		out = append(out, *wf)
	}
	return out, nil
}

func (r *memWorkflowRepo) Update(ctx context.Context, wf *model.Workflow) error {
	if r.failOn == "Update" {
		return errors.New("workflow update failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[wf.WorkflowID]; !ok {
		return repository.ErrNotFound
	}
	cp := *wf
	r.workflows[wf.WorkflowID] = &cp
	return nil
}

func (r *memWorkflowRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.workflows, id)
	return nil
}

func (r *memWorkflowRepo) DeleteBySignal(ctx context.Context, signalID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, wf := range r.workflows {
		if wf.SignalID == signalID {
			delete(r.workflows, id)
			n++
		}
	}
	return n, nil
}

// status returns the currently persisted status, for assertions.
func (r *memWorkflowRepo) status(id string) model.WorkflowStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wf, ok := r.workflows[id]; ok {
		return wf.Status
	}
	return ""
}

type memTransactionRepo struct {
	txns      []model.Transaction
	searchErr error
}

func (r *memTransactionRepo) Create(ctx context.Context, txn *model.Transaction) error { return nil }
func (r *memTransactionRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	return nil, nil
}
func (r *memTransactionRepo) List(ctx context.Context, limit int) ([]model.Transaction, error) {
	return r.txns, nil
}
func (r *memTransactionRepo) Update(ctx context.Context, txn *model.Transaction) error { return nil }
func (r *memTransactionRepo) Delete(ctx context.Context, id string) error              { return nil }

func (r *memTransactionRepo) SearchProblem(ctx context.Context, terms []string, limit int) ([]model.Transaction, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	if len(r.txns) > limit {
		return r.txns[:limit], nil
	}
	return r.txns, nil
}

type memReviewRepo struct {
	reviews []model.Review
}

func (r *memReviewRepo) Create(ctx context.Context, review *model.Review) error { return nil }
func (r *memReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	return nil, nil
}
func (r *memReviewRepo) List(ctx context.Context, limit int) ([]model.Review, error) {
	return r.reviews, nil
}
func (r *memReviewRepo) Update(ctx context.Context, review *model.Review) error { return nil }
func (r *memReviewRepo) Delete(ctx context.Context, id string) error            { return nil }

func (r *memReviewRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(r.reviews)), nil
}

func (r *memReviewRepo) CountBySentiment(ctx context.Context, sentiment string) (int64, error) {
	var n int64
	for _, rv := range r.reviews {
		if rv.Sentiment == sentiment {
			n++
		}
	}
	return n, nil
}

func (r *memReviewRepo) SearchBySentiment(ctx context.Context, sentiment string, terms []string, limit int) ([]model.Review, error) {
	out := []model.Review{}
	for _, rv := range r.reviews {
		if len(out) >= limit {
			break
		}
		if rv.Sentiment == sentiment {
			out = append(out, rv)
			continue
		}
		for _, t := range terms {
			if t != "" && strings.Contains(strings.ToLower(rv.ReviewText), strings.ToLower(t)) {
				out = append(out, rv)
				break
			}
		}
	}
	return out, nil
}

// --- cache, publisher, broadcaster, scheduler fakes ---

type memStatusCache struct {
	mu       sync.Mutex
	statuses map[string]model.WorkflowStatus
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{statuses: make(map[string]model.WorkflowStatus)}
}

func (c *memStatusCache) SetStatus(ctx context.Context, workflowID string, status model.WorkflowStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[workflowID] = status
	return nil
}

func (c *memStatusCache) GetStatus(ctx context.Context, workflowID string) (model.WorkflowStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[workflowID], nil
}

func (c *memStatusCache) Delete(ctx context.Context, workflowID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, workflowID)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	fail      bool
}

func (p *fakePublisher) Publish(ctx context.Context, content string) PublishResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return PublishResult{Err: "platform unavailable"}
	}
	p.published = append(p.published, content)
	return PublishResult{Success: true, Response: map[string]interface{}{"id": "post-1"}}
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *recordingBroadcaster) Broadcast(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) types() []model.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.EventType, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Type)
	}
	return out
}

// inlineScheduler runs jobs synchronously so tests see pipeline results
// immediately.
type inlineScheduler struct {
	reject bool
}

func (s *inlineScheduler) Submit(job worker.Job) bool {
	if s.reject {
		return false
	}
	job(context.Background())
	return true
}
