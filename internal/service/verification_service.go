package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"prsentinel/internal/model"
	"prsentinel/internal/repository"
)

// VerificationService correlates a signal against internal evidence
// (transactions and customer reviews), scores it, and narrates the result.
// It owns no state: commitment is the workflow service's job.
type VerificationService struct {
	txnRepo    repository.TransactionRepo
	reviewRepo repository.ReviewRepo
	gen        TextGenerator
}

func NewVerificationService(txnRepo repository.TransactionRepo, reviewRepo repository.ReviewRepo, gen TextGenerator) *VerificationService {
	return &VerificationService{
		txnRepo:    txnRepo,
		reviewRepo: reviewRepo,
		gen:        gen,
	}
}

const (
	VerificationConfirmed    = "CONFIRMED"
	VerificationNotConfirmed = "NOT CONFIRMED"

	// confirmThreshold is the confidence percentage at which a signal is
	// considered corroborated by review sentiment. Exactly at the
	// threshold counts as confirmed.
	confirmThreshold = 5.0

	evidenceLimit = 10
)

// Verify runs the verification stage and returns its lazy event sequence.
// The channel carries progress and stream events and exactly one terminal
// event (completed or error), then closes. Generation failures degrade to
// deterministic fallbacks; evidence store failures are fatal to the stage.
func (s *VerificationService) Verify(ctx context.Context, signal *model.Signal) <-chan model.StageEvent {
	events := make(chan model.StageEvent)

	go func() {
		defer close(events)

		emit := func(ev model.StageEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(stage string, err error) {
			emit(model.StageEvent{
				Type:    model.StageError,
				Stage:   stage,
				Message: err.Error(),
			})
		}

		terms := append([]string{signal.SignalType}, signal.Drivers...)

		// Step 1: transactions
		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "searching_transactions", Message: "Searching transaction records..."}) {
			return
		}
		txns, err := s.txnRepo.SearchProblem(ctx, terms, evidenceLimit)
		if err != nil {
			fail("searching_transactions", fmt.Errorf("transaction search: %w", err))
			return
		}
		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "transactions_found", Message: fmt.Sprintf("Found %d matching transactions", len(txns)), Count: len(txns)}) {
			return
		}

		// Step 2: reviews
		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "searching_reviews", Message: "Searching customer reviews..."}) {
			return
		}
		intent := s.classifyIntent(ctx, signal)

		total, err := s.reviewRepo.CountAll(ctx)
		if err != nil {
			fail("searching_reviews", fmt.Errorf("review count: %w", err))
			return
		}
		matching, err := s.reviewRepo.CountBySentiment(ctx, intent)
		if err != nil {
			fail("searching_reviews", fmt.Errorf("review sentiment count: %w", err))
			return
		}
		reviews, err := s.reviewRepo.SearchBySentiment(ctx, intent, terms, evidenceLimit)
		if err != nil {
			fail("searching_reviews", fmt.Errorf("review search: %w", err))
			return
		}
		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "reviews_found", Message: fmt.Sprintf("Found %d matching reviews", len(reviews)), Count: len(reviews)}) {
			return
		}

		// Step 3: score and classify
		confidence, verification := scoreConfidence(matching, total)
		risk := riskLevelFor(signal.SignalType)

		summary := &model.SanitizedSummary{
			MatchedTransactions: len(txns),
			MatchedReviews:      len(reviews),
			TotalReviews:        int(total),
			Confidence:          confidence,
			Verification:        verification,
			Intent:              intent,
		}

		// Step 4: narrative. Fed only the sanitized summary, never raw
		// evidence rows.
		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "generating_analysis", Message: "Generating analysis..."}) {
			return
		}
		analysis, degraded := s.generateAnalysis(ctx, signal, summary, emit)
		summary.Analysis = analysis

		report := &model.VerificationReport{
			MatchedTransactions:      transactionRefs(txns),
			MatchedReviews:           reviewRefs(reviews),
			Analysis:                 analysis,
			ConfidenceScore:          confidence,
			DataQuality:              dataQualityFor(signal.Confidence),
			RiskLevel:                risk,
			EscalationRecommendation: escalationRecommendation(risk, signal.Confidence),
		}

		emit(model.StageEvent{
			Type:     model.StageCompleted,
			Stage:    "verification_completed",
			Message:  "Verification completed",
			Degraded: degraded,
			Report:   report,
			Summary:  summary,
		})
	}()

	return events
}

// classifyIntent infers the dominant sentiment behind a signal, via a
// one-shot generation call with a deterministic keyword fallback.
func (s *VerificationService) classifyIntent(ctx context.Context, signal *model.Signal) string {
	prompt := fmt.Sprintf(`Classify the dominant public sentiment behind this signal as exactly one word: positive, negative, or neutral.

Signal type: %s
Drivers: %s

Answer with only the single word.`, signal.SignalType, strings.Join(signal.Drivers, ", "))

	resp, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		log.Printf("intent classification failed, using keyword fallback: %v", err)
		return keywordIntent(signal)
	}

	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	case "neutral":
		return "neutral"
	default:
		return keywordIntent(signal)
	}
}

// generateAnalysis streams the narrative, forwarding chunks to the event
// sequence. A failed stream degrades to a static narrative; the stage
// still completes.
func (s *VerificationService) generateAnalysis(ctx context.Context, signal *model.Signal, summary *model.SanitizedSummary, emit func(model.StageEvent) bool) (string, bool) {
	prompt := s.buildAnalysisPrompt(signal, summary)

	chunks, err := s.gen.Stream(ctx, prompt)
	if err != nil {
		log.Printf("analysis stream failed, using fallback narrative: %v", err)
		return fallbackNarrative(summary), true
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			log.Printf("analysis stream interrupted, using fallback narrative: %v", chunk.Err)
			return fallbackNarrative(summary), true
		}
		sb.WriteString(chunk.Text)
		if !emit(model.StageEvent{Type: model.StageStream, Stage: "analysis_chunk", Chunk: chunk.Text}) {
			return sb.String(), false
		}
	}

	analysis := strings.TrimSpace(sb.String())
	if analysis == "" {
		return fallbackNarrative(summary), true
	}
	return analysis, false
}

func (s *VerificationService) buildAnalysisPrompt(signal *model.Signal, summary *model.SanitizedSummary) string {
	notes := "None"
	if signal.UncertaintyNotes != nil {
		notes = *signal.UncertaintyNotes
	}
	return fmt.Sprintf(`You are an internal analysis agent for a bank. A sentiment signal was reported from social media monitoring.

Signal:
- Type: %s
- Reported confidence: %.1f
- Drivers: %s
- Uncertainty notes: %s
- Escalation recommended: %t

Verification summary (aggregated, no customer data):
- Matching transactions: %d
- Matching reviews: %d of %d total
- Review-derived confidence: %.1f%%
- Verification: %s
- Inferred sentiment: %s

Write a concise 2-3 paragraph analysis of whether this signal correlates with internal data and how to proceed. Be professional and factual. Do not invent customer details.`,
		signal.SignalType, signal.Confidence, strings.Join(signal.Drivers, ", "), notes,
		signal.RecommendEscalation,
		summary.MatchedTransactions, summary.MatchedReviews, summary.TotalReviews,
		summary.Confidence, summary.Verification, summary.Intent)
}

func fallbackNarrative(summary *model.SanitizedSummary) string {
	return fmt.Sprintf(
		"Automated analysis unavailable. Internal correlation found %d matching transactions and %d of %d reviews aligned with the inferred %s sentiment, giving a confidence of %.1f%%. Verification status: %s. Proceed per standard review.",
		summary.MatchedTransactions, summary.MatchedReviews, summary.TotalReviews,
		summary.Intent, summary.Confidence, summary.Verification)
}

// scoreConfidence derives the match-rate confidence percentage and the
// coarse verification status. Zero total reviews means zero confidence.
func scoreConfidence(matching, total int64) (float64, string) {
	confidence := 0.0
	if total > 0 {
		confidence = float64(matching) / float64(total) * 100
	}
	if confidence >= confirmThreshold {
		return confidence, VerificationConfirmed
	}
	return confidence, VerificationNotConfirmed
}

// keywordIntent is the deterministic fallback sentiment classifier.
func keywordIntent(signal *model.Signal) string {
	text := strings.ToLower(signal.SignalType + " " + strings.Join(signal.Drivers, " "))
	negative := []string{"scam", "fraud", "phishing", "complaint", "issue", "breach", "theft", "warning", "rumor", "fake"}
	positive := []string{"praise", "thanks", "love", "great", "improvement", "award"}

	for _, kw := range negative {
		if strings.Contains(text, kw) {
			return "negative"
		}
	}
	for _, kw := range positive {
		if strings.Contains(text, kw) {
			return "positive"
		}
	}
	return "neutral"
}

// riskLevelFor classifies the signal type by keyword.
func riskLevelFor(signalType string) string {
	t := strings.ToLower(signalType)
	switch {
	case strings.Contains(t, "phishing"), strings.Contains(t, "fraud"), strings.Contains(t, "security"):
		return "CRITICAL"
	case strings.Contains(t, "scam"), strings.Contains(t, "warning"):
		return "HIGH"
	case strings.Contains(t, "complaint"), strings.Contains(t, "issue"):
		return "MEDIUM"
	default:
		return "MEDIUM"
	}
}

// dataQualityFor tiers the detector-reported confidence (0-100).
func dataQualityFor(confidence float64) string {
	switch {
	case confidence >= 90:
		return "excellent"
	case confidence >= 75:
		return "good"
	case confidence >= 60:
		return "fair"
	default:
		return "poor"
	}
}

func escalationRecommendation(risk string, confidence float64) string {
	if risk == "CRITICAL" || confidence < 60 {
		return "Recommend escalation to Legal/Compliance for review"
	}
	if risk == "HIGH" && confidence < 75 {
		return "Consider management review before posting"
	}
	return ""
}

func transactionRefs(txns []model.Transaction) []model.TransactionRef {
	refs := make([]model.TransactionRef, 0, len(txns))
	for _, t := range txns {
		refs = append(refs, model.TransactionRef{
			TransactionID: t.ID,
			Status:        t.Status,
			FlaggedReason: t.FlaggedReason,
		})
	}
	return refs
}

func reviewRefs(reviews []model.Review) []model.ReviewRef {
	refs := make([]model.ReviewRef, 0, len(reviews))
	for _, r := range reviews {
		refs = append(refs, model.ReviewRef{
			ReviewID:  r.ID,
			Sentiment: r.Sentiment,
			Category:  r.Category,
		})
	}
	return refs
}
