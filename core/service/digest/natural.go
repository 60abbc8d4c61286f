package digest

import (
	"fmt"
	"sort"
	"strings"

	"mailagent/core/domain"
)

// FormatSummaryLine renders a DailySummary as one deterministic sentence
// for notification channels. Category fragments are emitted in descending
// count order with the fixed enum order breaking ties.
func FormatSummaryLine(s *domain.DailySummary) string {
	if s == nil || s.TotalEmails == 0 {
		return fmt.Sprintf("No emails received on %s.", dateOrToday(s))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You received %d %s on %s", s.TotalEmails, plural(s.TotalEmails, "email"), s.Date)

	if frags := categoryFragments(s.Categories); len(frags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(frags, ", "))
	}
	b.WriteString(".")

	if n := len(s.UrgentEmails); n > 0 {
		fmt.Fprintf(&b, " %d %s attention.", n, pluralVerb(n, "needs", "need"))
	}
	if n := len(s.UnreadEmails); n > 0 {
		fmt.Fprintf(&b, " %d still unread.", n)
	}
	if n := len(s.ResponseReminders); n > 0 {
		fmt.Fprintf(&b, " %d awaiting your reply.", n)
	}

	return b.String()
}

func categoryFragments(counts map[domain.EmailCategory]int) []string {
	type kv struct {
		cat   domain.EmailCategory
		order int
		count int
	}

	pairs := make([]kv, 0, len(counts))
	for i, cat := range domain.AllCategories {
		if n, ok := counts[cat]; ok && n > 0 {
			pairs = append(pairs, kv{cat: cat, order: i, count: n})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].order < pairs[j].order
	})

	frags := make([]string, 0, len(pairs))
	for _, p := range pairs {
		frags = append(frags, fmt.Sprintf("%d %s", p.count, p.cat))
	}
	return frags
}

func dateOrToday(s *domain.DailySummary) string {
	if s != nil && s.Date != "" {
		return s.Date
	}
	return "this day"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func pluralVerb(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
