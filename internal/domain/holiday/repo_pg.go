package holiday

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type holidayRepoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &holidayRepoPG{pool: pool} }

func (r *holidayRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const holidayCols = `id, holiday_date, name, description, created_at, updated_at`

func scanHoliday(row pgx.Row) (*Holiday, error) {
	var (
		h    Holiday
		date time.Time
	)
	if err := row.Scan(&h.ID, &date, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Date = timeofday.DateKey(date)
	return &h, nil
}

func duplicateDate(err error, date string) error {
	if db.IsUniqueViolation(err, "holidays_date_key") {
		return apperrors.Conflict("a holiday is already registered on %s", date)
	}
	return err
}

func (r *holidayRepoPG) Create(ctx context.Context, h *Holiday) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO holidays (id, holiday_date, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		h.ID, h.Date, h.Name, h.Description).Scan(&h.CreatedAt, &h.UpdatedAt)
	return duplicateDate(err, h.Date)
}

func (r *holidayRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Holiday, error) {
	h, err := scanHoliday(r.conn(ctx).QueryRow(ctx, `SELECT `+holidayCols+` FROM holidays WHERE id = $1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperrors.NotFound("holiday %s not found", id)
		}
		return nil, err
	}
	return h, nil
}

func (r *holidayRepoPG) Update(ctx context.Context, h *Holiday) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE holidays SET holiday_date = $2, name = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		h.ID, h.Date, h.Name, h.Description).Scan(&h.CreatedAt, &h.UpdatedAt)
	if db.IsNotFound(err) {
		return apperrors.NotFound("holiday %s not found", h.ID)
	}
	return duplicateDate(err, h.Date)
}

func (r *holidayRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("holiday %s not found", id)
	}
	return nil
}

func (r *holidayRepoPG) ListBetween(ctx context.Context, from, to time.Time) ([]*Holiday, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+holidayCols+` FROM holidays
		WHERE holiday_date >= $1 AND holiday_date < $2
		ORDER BY holiday_date`,
		timeofday.DateKey(from), timeofday.DateKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
