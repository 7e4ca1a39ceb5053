package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"prsentinel/internal/model"
)

// DraftService generates the public-facing PR post. Its only inputs are
// the signal and the sanitized verification summary: raw evidence records
// never reach this stage, so they cannot leak into published copy.
type DraftService struct {
	gen TextGenerator
}

func NewDraftService(gen TextGenerator) *DraftService {
	return &DraftService{gen: gen}
}

// Draft runs the drafting stage and returns its lazy event sequence. A
// failed generation call yields a degraded in-band chunk and a terminal
// completed event marked Degraded rather than an error event, so the
// accumulation buffer always holds something; the orchestrator treats
// Degraded as a stage failure.
func (s *DraftService) Draft(ctx context.Context, signal *model.Signal, summary *model.SanitizedSummary) <-chan model.StageEvent {
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

		if !emit(model.StageEvent{Type: model.StageProgress, Stage: "generating_post", Message: "Generating PR post..."}) {
			return
		}

		var sb strings.Builder
		degraded := false

		chunks, err := s.gen.Stream(ctx, s.buildPostPrompt(signal, summary))
		if err != nil {
			degraded = true
			errChunk := fmt.Sprintf("[Error generating post: %v]", err)
			sb.WriteString(errChunk)
			emit(model.StageEvent{Type: model.StageStream, Stage: "post_chunk", Chunk: errChunk})
		} else {
			for chunk := range chunks {
				if chunk.Err != nil {
					degraded = true
					errChunk := fmt.Sprintf("[Error generating post: %v]", chunk.Err)
					sb.WriteString(errChunk)
					emit(model.StageEvent{Type: model.StageStream, Stage: "post_chunk", Chunk: errChunk})
					break
				}
				sb.WriteString(chunk.Text)
				if !emit(model.StageEvent{Type: model.StageStream, Stage: "post_chunk", Chunk: chunk.Text}) {
					return
				}
			}
		}

		post := CleanPostContent(sb.String())
		if post == "" && !degraded {
			degraded = true
			log.Println("draft: generator returned empty post")
			post = "[Error generating post: empty response]"
		}

		emit(model.StageEvent{
			Type:     model.StageCompleted,
			Stage:    "post_completed",
			Message:  "PR post generated",
			Degraded: degraded,
			Post:     post,
		})
	}()

	return events
}

func (s *DraftService) buildPostPrompt(signal *model.Signal, summary *model.SanitizedSummary) string {
	return fmt.Sprintf(`You are an executive briefing agent for a bank's PR team. Create a professional social media post addressing public concern.

Detected sentiment:
- Signal type: %s
- Detector confidence: %.1f
- Key concerns: %s

Internal verification summary (aggregated, contains no customer data):
- Verification: %s
- Internal confidence: %.1f%%
- Matching transactions: %d, matching reviews: %d
- Analysis: %s

Create a professional, reassuring social media post in markdown that:
1. Acknowledges the public concern without confirming or denying specifics
2. Highlights the bank's commitment to security and customer trust
3. Provides reassurance about internal monitoring and safeguards
4. Invites customers to reach out with concerns
5. Keeps a professional, calm, and confident tone
6. Modulates the strength of the acknowledgment to the confidence level above

Target audience: general public
Length: 150-250 words
Format: professional markdown with proper headings and structure

IMPORTANT RULES:
- Output ONLY the final post content
- Do NOT add explanations, notes, or commentary after the post
- Do NOT include lines starting with "---" or "**Note:**" or "**Key"
- Do NOT include meta-commentary about tone, structure, or strategy
- The post must be ready to publish as-is

Do NOT include: customer data, admission of fault, technical jargon, links.`,
		signal.SignalType, signal.Confidence, strings.Join(signal.Drivers, ", "),
		summary.Verification, summary.Confidence,
		summary.MatchedTransactions, summary.MatchedReviews, summary.Analysis)
}

var metaKeywords = []string{
	"key tone", "structure notes", "**note:", "meta-commentary",
	"acknowledges concerns", "reinforces trust", "encourages proactive",
}

var notePrefixes = []string{
	"**note:", "**key tone", "**structure notes",
	"*note:", "note:", "- **acknowledges", "- **reinforces", "- **encourages",
}

// CleanPostContent strips trailing meta-commentary the generator may append
// after the post. Line-oriented and deterministic; idempotent, and a plain
// trim for inputs containing no delimiter or markers.
func CleanPostContent(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		// A horizontal rule followed by known meta-commentary ends the post.
		if strings.HasPrefix(trimmed, "---") {
			remaining := strings.ToLower(strings.Join(lines[i:], "\n"))
			if containsAny(remaining, metaKeywords) {
				break
			}
		}

		lower := strings.ToLower(trimmed)
		if hasAnyPrefix(lower, notePrefixes) {
			continue
		}

		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
