package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"prsentinel/internal/model"
	"prsentinel/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RecordsHandler manages the evidence stores (transactions, reviews) and
// received sentiment signals.
type RecordsHandler struct {
	txnRepo      repository.TransactionRepo
	reviewRepo   repository.ReviewRepo
	signalRepo   repository.SignalRepo
	workflowRepo repository.WorkflowRepo
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(
	txnRepo repository.TransactionRepo,
	reviewRepo repository.ReviewRepo,
	signalRepo repository.SignalRepo,
	workflowRepo repository.WorkflowRepo,
) *RecordsHandler {
	return &RecordsHandler{
		txnRepo:      txnRepo,
		reviewRepo:   reviewRepo,
		signalRepo:   signalRepo,
		workflowRepo: workflowRepo,
	}
}

func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

// --- Sentiments ---

// ListSentiments handles GET /v1/sentiments
func (h *RecordsHandler) ListSentiments(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)

	signals, err := h.signalRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// GetSentiment handles GET /v1/sentiments/{sentimentId}
func (h *RecordsHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sentimentId"]

	signal, err := h.signalRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if signal == nil {
		writeError(w, http.StatusNotFound, "sentiment not found")
		return
	}
	writeJSON(w, http.StatusOK, signal)
}

// DeleteSentiment handles DELETE /v1/sentiments/{sentimentId}. Workflows
// spawned from the signal are removed with it.
func (h *RecordsHandler) DeleteSentiment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sentimentId"]

	if err := h.signalRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentiment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	removed, err := h.workflowRepo.DeleteBySignal(r.Context(), id)
	if err != nil {
		// The signal is already gone; report the partial cleanup.
		log.Printf("cascade delete for sentiment %s failed: %v", id, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "deleted",
		"sentiment_id":      id,
		"workflows_removed": removed,
	})
}

// --- Transactions ---

// ListTransactions handles GET /v1/transactions
func (h *RecordsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)

	txns, err := h.txnRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// GetTransaction handles GET /v1/transactions/{transactionId}
func (h *RecordsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transactionId"]

	txn, err := h.txnRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txn == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// CreateTransaction handles POST /v1/transactions
func (h *RecordsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if txn.CustomerID == "" || txn.Status == "" {
		writeError(w, http.StatusBadRequest, "customer_id and status are required")
		return
	}

	now := time.Now().UTC()
	if txn.ID == "" {
		txn.ID = "TXN-" + uuid.New().String()[:8]
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = now
	}
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if err := h.txnRepo.Create(r.Context(), &txn); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// UpdateTransaction handles PUT /v1/transactions/{transactionId}
func (h *RecordsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transactionId"]

	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn.ID = id

	if err := h.txnRepo.Update(r.Context(), &txn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// DeleteTransaction handles DELETE /v1/transactions/{transactionId}
func (h *RecordsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transactionId"]

	if err := h.txnRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "deleted",
		"transaction_id": id,
	})
}

// --- Reviews ---

// ListReviews handles GET /v1/reviews
func (h *RecordsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)

	reviews, err := h.reviewRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetReview handles GET /v1/reviews/{reviewId}
func (h *RecordsHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["reviewId"]

	review, err := h.reviewRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// CreateReview handles POST /v1/reviews
func (h *RecordsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var review model.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if review.CustomerID == "" || review.ReviewText == "" {
		writeError(w, http.StatusBadRequest, "customer_id and review_text are required")
		return
	}

	now := time.Now().UTC()
	if review.ID == "" {
		review.ID = "REV-" + uuid.New().String()[:8]
	}
	if review.Timestamp.IsZero() {
		review.Timestamp = now
	}
	review.CreatedAt = now

	if err := h.reviewRepo.Create(r.Context(), &review); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PUT /v1/reviews/{reviewId}
func (h *RecordsHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["reviewId"]

	var review model.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	review.ID = id

	if err := h.reviewRepo.Update(r.Context(), &review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /v1/reviews/{reviewId}
func (h *RecordsHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["reviewId"]

	if err := h.reviewRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "deleted",
		"review_id": id,
	})
}
