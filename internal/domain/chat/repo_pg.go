package chat

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type messageRepoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &messageRepoPG{pool: pool} }

func (r *messageRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.ReadAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepoPG) Create(ctx context.Context, m *Message) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chat_messages (sender_id, recipient_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		m.SenderID, m.RecipientID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

func (r *messageRepoPG) Conversation(ctx context.Context, user, peer string, afterID int64, limit int) ([]*Message, error) {
	query, args, err := db.From("chat_messages").
		Select("id", "sender_id", "recipient_id", "body", "created_at", "read_at").
		Where(
			goqu.Or(
				goqu.And(goqu.C("sender_id").Eq(user), goqu.C("recipient_id").Eq(peer)),
				goqu.And(goqu.C("sender_id").Eq(peer), goqu.C("recipient_id").Eq(user)),
			),
			goqu.C("id").Gt(afterID),
		).
		Order(goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build conversation query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// MarkRead keeps the first read_at; marking twice is not an error.
func (r *messageRepoPG) MarkRead(ctx context.Context, recipient string, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE chat_messages SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND recipient_id = $2`, id, recipient)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("message %d not found", id)
	}
	return nil
}

func (r *messageRepoPG) UnreadCount(ctx context.Context, recipient string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE recipient_id = $1 AND read_at IS NULL`, recipient).Scan(&n)
	return n, err
}
