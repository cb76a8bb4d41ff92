package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one persisted API call.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	Roles      []string  `json:"roles"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Filter struct {
	UserID   string
	Resource string
	Action   string
}
