package worker

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"mailagent/core/domain"
)

// JobType represents the type of a job.
type JobType = string

const (
	// Mail jobs
	JobClassify JobType = "mail.classify"

	// State jobs
	JobMarkRead    = "mail.mark_read"
	JobMarkReplied = "mail.mark_replied"

	// Digest jobs
	JobDigestGenerate = "digest.generate"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	Retries   int            `json:"retries"`
}

func NewMessage(jobType string, payload map[string]any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
		Retries:   0,
	}
}

// ClassifyPayload carries a batch of raw messages to classify.
type ClassifyPayload struct {
	Messages []*domain.RawMessage `json:"messages"`
}

// StatePayload identifies the email whose flags should change.
type StatePayload struct {
	EmailID string `json:"email_id"`
}

// DigestGeneratePayload requests a daily summary for a calendar date.
type DigestGeneratePayload struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Notify bool   `json:"notify"`
}

// ParsePayload decodes a message payload into a typed struct.
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
