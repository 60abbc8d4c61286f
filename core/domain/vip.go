package domain

import "strings"

// VIPContact marks a sender whose emails are never allowed to sink below a
// configured priority tier. The email address is the unique key.
type VIPContact struct {
	Email         string        `json:"email"`
	Name          string        `json:"name,omitempty"`
	PriorityLevel PriorityLevel `json:"priority_level"`
}

// NormalizeVIPEmail canonicalizes an address for registry lookups.
func NormalizeVIPEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
