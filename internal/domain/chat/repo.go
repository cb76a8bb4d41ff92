package chat

import "context"

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Conversation returns messages exchanged between user and peer with
	// id > afterID, oldest first.
	Conversation(ctx context.Context, user, peer string, afterID int64, limit int) ([]*Message, error)
	MarkRead(ctx context.Context, recipient string, id int64) error
	UnreadCount(ctx context.Context, recipient string) (int, error)
}
