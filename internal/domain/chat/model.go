package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

// MaxBodyLength is counted in characters, not bytes.
const MaxBodyLength = 2000

// Message is one chat line between two users. IDs increase monotonically and
// double as the polling cursor.
type Message struct {
	ID          int64      `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

func (m *Message) Validate() error {
	m.RecipientID = strings.TrimSpace(m.RecipientID)
	m.Body = strings.TrimSpace(m.Body)
	if m.SenderID == "" {
		return apperrors.Validation("sender is required")
	}
	if m.RecipientID == "" {
		return apperrors.Validation("recipient_id is required")
	}
	if m.RecipientID == m.SenderID {
		return apperrors.Validation("cannot send a message to yourself")
	}
	if m.Body == "" {
		return apperrors.Validation("body is required")
	}
	if utf8.RuneCountInString(m.Body) > MaxBodyLength {
		return apperrors.Validation("body must be at most %d characters", MaxBodyLength)
	}
	return nil
}
