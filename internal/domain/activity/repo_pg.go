package activity

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
)

type activityRepoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &activityRepoPG{pool: pool} }

func (r *activityRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

var entryCols = []interface{}{
	"id", "user_id", "roles", "action", "resource", "resource_id", "method", "path",
	"status_code", "request_id", "ip_address", "user_agent", "created_at",
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Roles, &e.Action, &e.Resource, &e.ResourceID, &e.Method, &e.Path,
		&e.StatusCode, &e.RequestID, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *activityRepoPG) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Roles == nil {
		e.Roles = []string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO activity_log (id, user_id, roles, action, resource, resource_id, method, path,
			status_code, request_id, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.UserID, e.Roles, e.Action, e.Resource, e.ResourceID, e.Method, e.Path,
		e.StatusCode, e.RequestID, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

func (r *activityRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	ds := db.From("activity_log").Select(entryCols...)
	if f.UserID != "" {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID))
	}
	if f.Resource != "" {
		ds = ds.Where(goqu.C("resource").Eq(f.Resource))
	}
	if f.Action != "" {
		ds = ds.Where(goqu.C("action").Eq(f.Action))
	}
	ds = ds.Order(goqu.C("created_at").Desc()).Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanEntry)
}
