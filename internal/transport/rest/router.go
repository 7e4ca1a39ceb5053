package rest

import (
	"net/http"
	"os"

	"prsentinel/internal/repository"
	"prsentinel/internal/service"
	"prsentinel/internal/transport/rest/handler"
	"prsentinel/internal/transport/rest/middleware"
	"prsentinel/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	IntakeService   *service.IntakeService
	WorkflowService *service.WorkflowService
	TransactionRepo repository.TransactionRepo
	ReviewRepo      repository.ReviewRepo
	SignalRepo      repository.SignalRepo
	WorkflowRepo    repository.WorkflowRepo
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	workflowHandler := handler.NewWorkflowHandler(c.IntakeService, c.WorkflowService)
	recordsHandler := handler.NewRecordsHandler(c.TransactionRepo, c.ReviewRepo, c.SignalRepo, c.WorkflowRepo)
	wsHandler := ws.NewHandler(c.WSHub)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Ingestion endpoint for the sentiment detector (machine-to-machine)
	v1.HandleFunc("/sentiment", workflowHandler.ReceiveSentiment).Methods("POST", "OPTIONS")

	// WebSocket route (public observers)
	v1.HandleFunc("/ws", wsHandler.ObserverWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Operator routes (require operator auth)
	opRoutes := v1.NewRoute().Subrouter()
	opRoutes.Use(authMW.RequireOperator)

	opRoutes.HandleFunc("/workflows", workflowHandler.ListWorkflows).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}", workflowHandler.GetWorkflow).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}/status", workflowHandler.GetWorkflowStatus).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}/approve", workflowHandler.Approve).Methods("POST", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}/escalate", workflowHandler.Escalate).Methods("POST", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}/discard", workflowHandler.Discard).Methods("POST", "OPTIONS")
	opRoutes.HandleFunc("/workflows/{workflowId}", workflowHandler.Delete).Methods("DELETE", "OPTIONS")

	opRoutes.HandleFunc("/sentiments", recordsHandler.ListSentiments).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/sentiments/{sentimentId}", recordsHandler.GetSentiment).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/sentiments/{sentimentId}", recordsHandler.DeleteSentiment).Methods("DELETE", "OPTIONS")

	opRoutes.HandleFunc("/transactions", recordsHandler.ListTransactions).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/transactions", recordsHandler.CreateTransaction).Methods("POST", "OPTIONS")
	opRoutes.HandleFunc("/transactions/{transactionId}", recordsHandler.GetTransaction).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/transactions/{transactionId}", recordsHandler.UpdateTransaction).Methods("PUT", "OPTIONS")
	opRoutes.HandleFunc("/transactions/{transactionId}", recordsHandler.DeleteTransaction).Methods("DELETE", "OPTIONS")

	opRoutes.HandleFunc("/reviews", recordsHandler.ListReviews).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/reviews", recordsHandler.CreateReview).Methods("POST", "OPTIONS")
	opRoutes.HandleFunc("/reviews/{reviewId}", recordsHandler.GetReview).Methods("GET", "OPTIONS")
	opRoutes.HandleFunc("/reviews/{reviewId}", recordsHandler.UpdateReview).Methods("PUT", "OPTIONS")
	opRoutes.HandleFunc("/reviews/{reviewId}", recordsHandler.DeleteReview).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
