// Package classification merges heuristic and AI signals into a final
// email classification.
package classification

import (
	"strings"

	"mailagent/core/domain"
)

// HeuristicSignal is the deterministic keyword-scan output for one email.
type HeuristicSignal struct {
	Urgency      float64
	CategoryHint domain.EmailCategory
	ActionHint   bool
	Matched      []string // matched keywords, for debugging
}

type keywordGroup struct {
	category domain.EmailCategory
	weight   float64 // per matched keyword; negative pulls toward low urgency
	keywords []string
}

// Group order is fixed so ties resolve deterministically.
var signalGroups = []keywordGroup{
	{
		category: domain.CategoryUrgent,
		weight:   0.30,
		keywords: []string{"urgent", "asap", "immediately", "emergency", "critical", "right away", "server down", "outage"},
	},
	{
		category: domain.CategoryDeadlines,
		weight:   0.20,
		keywords: []string{"deadline", "due date", "due by", "overdue", "end of day", "eod", "by tomorrow"},
	},
	{
		category: domain.CategoryMeetings,
		weight:   0.12,
		keywords: []string{"meeting", "schedule", "calendar invite", "reschedule", "zoom", "standup", "sync up"},
	},
	{
		category: domain.CategoryWork,
		weight:   0.10,
		keywords: []string{"report", "project", "review", "proposal", "client", "invoice", "contract"},
	},
	{
		category: domain.CategoryPersonal,
		weight:   0.06,
		keywords: []string{"family", "dinner", "birthday", "weekend", "vacation", "congrats"},
	},
	{
		category: domain.CategoryPromotions,
		weight:   -0.15,
		keywords: []string{"sale", "discount", "% off", "limited time", "coupon", "unsubscribe", "newsletter", "promo"},
	},
	{
		category: domain.CategorySocial,
		weight:   -0.10,
		keywords: []string{"friend request", "followed you", "mentioned you", "liked your", "commented on", "new connection"},
	},
}

// Dampeners reduce urgency without voting for any category.
var dampenerKeywords = []string{"fyi", "no action needed", "for your information", "no rush"}

// Action hints flag explicit requests for a response.
var actionKeywords = []string{
	"please respond", "please reply", "reply needed", "action required",
	"respond by", "let me know", "rsvp", "confirm", "approval needed", "waiting on you",
}

// ExtractSignals scans subject+body against the weighted keyword groups.
// Pure function: never fails, never calls external services. The urgency
// score is the clamped sum of matched weights; the category hint is the
// group with the highest cumulative match weight, defaulting to other.
func ExtractSignals(subject, body string) HeuristicSignal {
	text := strings.ToLower(subject + "\n" + body)

	var (
		score    float64
		matched  []string
		bestHint = domain.CategoryOther
		bestMag  float64
	)

	for _, g := range signalGroups {
		var groupMag float64
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				score += g.weight
				groupMag += abs(g.weight)
				matched = append(matched, kw)
			}
		}
		if groupMag > bestMag {
			bestMag = groupMag
			bestHint = g.category
		}
	}

	for _, kw := range dampenerKeywords {
		if strings.Contains(text, kw) {
			score -= 0.10
			matched = append(matched, kw)
		}
	}

	action := false
	for _, kw := range actionKeywords {
		if strings.Contains(text, kw) {
			action = true
			matched = append(matched, kw)
			break
		}
	}

	return HeuristicSignal{
		Urgency:      domain.ClampScore(score),
		CategoryHint: bestHint,
		ActionHint:   action,
		Matched:      matched,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
