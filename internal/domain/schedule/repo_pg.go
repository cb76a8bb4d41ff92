package schedule

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type templateRepoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &templateRepoPG{pool: pool} }

func (r *templateRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const templateCols = `t.id, t.doctor_id, t.clinic_id, t.service_id, t.day_of_week, t.start_time, t.end_time,
	t.slot_duration_minutes, t.capacity, t.active, t.created_at, t.updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var (
		t          Template
		start, end pgtype.Time
	)
	if err := row.Scan(&t.ID, &t.DoctorID, &t.ClinicID, &t.ServiceID, &t.DayOfWeek, &start, &end,
		&t.SlotDurationMinutes, &t.Capacity, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.StartTime, err = timeofday.FromPG(start); err != nil {
		return nil, err
	}
	if t.EndTime, err = timeofday.FromPG(end); err != nil {
		return nil, err
	}
	return &t, nil
}

func unknownReference(err error) error {
	if db.IsForeignKeyViolation(err) {
		return apperrors.Validation("doctor, clinic or service does not exist")
	}
	return err
}

func (r *templateRepoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO schedule_templates (id, doctor_id, clinic_id, service_id, day_of_week, start_time, end_time,
			slot_duration_minutes, capacity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		t.ID, t.DoctorID, t.ClinicID, t.ServiceID, t.DayOfWeek, t.StartTime.PG(), t.EndTime.PG(),
		t.SlotDurationMinutes, t.Capacity, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return unknownReference(err)
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM schedule_templates t WHERE t.id = $1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperrors.NotFound("schedule template %s not found", id)
		}
		return nil, err
	}
	return t, nil
}

func (r *templateRepoPG) Update(ctx context.Context, t *Template) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE schedule_templates SET clinic_id = $2, service_id = $3, day_of_week = $4, start_time = $5,
			end_time = $6, slot_duration_minutes = $7, capacity = $8, active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		t.ID, t.ClinicID, t.ServiceID, t.DayOfWeek, t.StartTime.PG(), t.EndTime.PG(),
		t.SlotDurationMinutes, t.Capacity, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if db.IsNotFound(err) {
		return apperrors.NotFound("schedule template %s not found", t.ID)
	}
	return unknownReference(err)
}

// Delete removes the template. Slots it already produced keep their rows
// with template_id cleared.
func (r *templateRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("schedule template %s not found", id)
	}
	return nil
}

func (r *templateRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error) {
	return r.query(ctx, `SELECT `+templateCols+` FROM schedule_templates t
		WHERE t.doctor_id = $1
		ORDER BY t.day_of_week, t.start_time`, doctorID)
}

func (r *templateRepoPG) ListActive(ctx context.Context) ([]*Template, error) {
	return r.query(ctx, `SELECT `+templateCols+` FROM schedule_templates t
		JOIN doctors d ON d.id = t.doctor_id
		WHERE t.active AND d.active
		ORDER BY t.doctor_id, t.day_of_week, t.start_time`)
}

func (r *templateRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
