package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
)

const maxBodyChars = 2000

const annotateSystemPrompt = `You are an email triage AI. Analyze the email and respond with JSON only.

Categories (pick ONE):
- work: Work-related emails (projects, clients, colleagues)
- personal: Personal emails from friends/family
- promotions: Marketing, sales, advertisements
- social: Social network notifications
- urgent: Requires immediate attention
- meetings: Meeting invites, scheduling
- deadlines: Due dates, time-bound obligations
- other: Doesn't fit the above

Urgency: 0.0 (can wait indefinitely) to 1.0 (drop everything).

Respond with this exact JSON format:
{
  "category": "category_name",
  "urgency_hint": 0.0-1.0,
  "summary": "brief 1-2 sentence summary",
  "suggestions": ["short follow-up action", "..."]
}`

// annotateResponse is the validated wire format of the model reply.
type annotateResponse struct {
	Category    string   `json:"category"`
	UrgencyHint float64  `json:"urgency_hint"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

// Annotate implements out.Annotator. Every failure mode — transport error,
// empty reply, unparsable JSON — maps to apperr.AnnotationUnavailable so the
// classifier can fall back without inspecting provider details.
func (c *Client) Annotate(ctx context.Context, subject, body, sender string) (*out.Annotation, error) {
	userPrompt := fmt.Sprintf("From: %s\nSubject: %s\n\nBody:\n%s",
		sender, subject, truncateBody(body, maxBodyChars))

	resp, err := c.CompleteJSON(ctx, annotateSystemPrompt, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.AnnotationUnavailable("annotation timed out", ctx.Err())
		}
		return nil, apperr.AnnotationUnavailable("provider call failed", err)
	}

	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return nil, apperr.AnnotationUnavailable("empty provider response", nil)
	}

	var parsed annotateResponse
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, apperr.AnnotationUnavailable("malformed provider response", err)
	}

	// Unknown categories collapse to other; scores clamp into [0,1].
	return &out.Annotation{
		Category:    string(domain.ParseCategory(parsed.Category)),
		UrgencyHint: domain.ClampScore(parsed.UrgencyHint),
		Summary:     strings.TrimSpace(parsed.Summary),
		Suggestions: trimAll(parsed.Suggestions),
	}, nil
}

func trimAll(in []string) []string {
	var clean []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			clean = append(clean, t)
		}
	}
	return clean
}

// truncateBody cuts the body on a rune boundary so the prompt stays
// valid UTF-8.
func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	end := maxLen
	for end > 0 && !utf8.RuneStart(body[end]) {
		end--
	}
	return body[:end] + "..."
}
