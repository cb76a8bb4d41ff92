package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// insertChunk keeps a single INSERT well under the 65535 bind parameter
// limit of the Postgres protocol.
const insertChunk = 1000

// =========== Slot Repository ===========

type slotRepoPG struct{ pool db.Querier }

func NewSlotRepoPG(pool db.Querier) SlotRepository { return &slotRepoPG{pool: pool} }

func (r *slotRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const slotCols = `id, doctor_id, template_id, clinic_id, service_id, slot_date, start_time, end_time,
	capacity, reserved, status, expire_at, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var (
		s          Slot
		date       time.Time
		start, end pgtype.Time
		status     string
	)
	if err := row.Scan(&s.ID, &s.DoctorID, &s.TemplateID, &s.ClinicID, &s.ServiceID, &date, &start, &end,
		&s.Capacity, &s.Reserved, &status, &s.ExpireAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.StartTime, err = timeofday.FromPG(start); err != nil {
		return nil, err
	}
	if s.EndTime, err = timeofday.FromPG(end); err != nil {
		return nil, err
	}
	s.Date = timeofday.DateKey(date)
	s.Status = SlotStatus(status)
	return &s, nil
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func slotRecord(s *Slot) goqu.Record {
	return goqu.Record{
		"id":          s.ID.String(),
		"doctor_id":   s.DoctorID.String(),
		"template_id": nullableID(s.TemplateID),
		"clinic_id":   nullableID(s.ClinicID),
		"service_id":  nullableID(s.ServiceID),
		"slot_date":   s.Date,
		"start_time":  s.StartTime.String(),
		"end_time":    s.EndTime.String(),
		"capacity":    s.Capacity,
		"reserved":    s.Reserved,
		"status":      string(s.Status),
		"expire_at":   s.ExpireAt,
	}
}

// InsertBatch relies on the (doctor_id, slot_date, start_time) unique
// constraint. Rows lost to it, including rows a concurrent run inserted
// first, are not counted and are not errors.
func (r *slotRepoPG) InsertBatch(ctx context.Context, slots []*Slot) (int, error) {
	inserted := 0
	for start := 0; start < len(slots); start += insertChunk {
		end := min(start+insertChunk, len(slots))
		rows := make([]any, 0, end-start)
		for _, s := range slots[start:end] {
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			if s.Status == "" {
				s.Status = SlotOpen
			}
			rows = append(rows, slotRecord(s))
		}
		sql, args, err := db.Insert("appointment_slots").
			Rows(rows...).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return inserted, fmt.Errorf("build slot insert: %w", err)
		}
		tag, err := r.conn(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert slots: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *slotRepoPG) ExistingStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]SlotKey, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT slot_date, start_time FROM appointment_slots
		WHERE doctor_id = $1 AND slot_date >= $2 AND slot_date < $3`,
		doctorID, timeofday.DateKey(from), timeofday.DateKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []SlotKey
	for rows.Next() {
		var (
			date  time.Time
			start pgtype.Time
		)
		if err := rows.Scan(&date, &start); err != nil {
			return nil, err
		}
		t, err := timeofday.FromPG(start)
		if err != nil {
			return nil, err
		}
		keys = append(keys, SlotKey{DoctorID: doctorID, Date: timeofday.DateKey(date), Start: t})
	}
	return keys, rows.Err()
}

func (r *slotRepoPG) Exists(ctx context.Context, doctorID uuid.UUID, date time.Time, start timeofday.TimeOfDay) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment_slots WHERE doctor_id = $1 AND slot_date = $2 AND start_time = $3
		)`, doctorID, timeofday.DateKey(date), start.String()).Scan(&exists)
	return exists, err
}

func (r *slotRepoPG) get(ctx context.Context, id uuid.UUID, suffix string) (*Slot, error) {
	s, err := scanSlot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+slotCols+` FROM appointment_slots WHERE id = $1`+suffix, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperrors.NotFound("slot %s not found", id)
		}
		return nil, err
	}
	return s, nil
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.get(ctx, id, "")
}

func (r *slotRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *slotRepoPG) Update(ctx context.Context, s *Slot) error {
	sql, args, err := db.Update("appointment_slots").
		Set(goqu.Record{
			"status":     string(s.Status),
			"reserved":   s.Reserved,
			"updated_at": goqu.L("NOW()"),
		}).
		Where(goqu.C("id").Eq(s.ID.String())).
		Returning("updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build slot update: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt)
	if db.IsNotFound(err) {
		return apperrors.NotFound("slot %s not found", s.ID)
	}
	if db.IsCheckViolation(err) {
		return apperrors.Conflict("slot %s cannot hold %d reservations", s.ID, s.Reserved)
	}
	return err
}

func (r *slotRepoPG) Search(ctx context.Context, f SlotFilter, limit, offset int) ([]*Slot, int, error) {
	ds := db.From("appointment_slots").Select(goqu.L(slotCols))
	if f.DoctorID != nil {
		ds = ds.Where(goqu.C("doctor_id").Eq(f.DoctorID.String()))
	}
	if f.ClinicID != nil {
		ds = ds.Where(goqu.C("clinic_id").Eq(f.ClinicID.String()))
	}
	if f.From != "" {
		ds = ds.Where(goqu.C("slot_date").Gte(f.From))
	}
	if f.To != "" {
		ds = ds.Where(goqu.C("slot_date").Lt(f.To))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(f.Status)))
	}
	if f.AvailableAt != nil {
		ds = ds.Where(
			goqu.C("status").Eq(string(SlotOpen)),
			goqu.C("expire_at").Gt(*f.AvailableAt),
			goqu.C("reserved").Lt(goqu.C("capacity")),
		)
	}
	ds = ds.Order(goqu.C("slot_date").Asc(), goqu.C("start_time").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanSlot)
}

// =========== Booking Repository ===========

type bookingRepoPG struct{ pool db.Querier }

func NewBookingRepoPG(pool db.Querier) BookingRepository { return &bookingRepoPG{pool: pool} }

func (r *bookingRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const bookingCols = `id, slot_id, patient_name, patient_phone, patient_national_code, insurance_id,
	booked_by, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.SlotID, &b.PatientName, &b.PatientPhone, &b.PatientNationalCode,
		&b.InsuranceID, &b.BookedBy, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = BookingStatus(status)
	return &b, nil
}

func (r *bookingRepoPG) Create(ctx context.Context, b *Booking) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bookings (id, slot_id, patient_name, patient_phone, patient_national_code, insurance_id,
			booked_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		b.ID, b.SlotID, b.PatientName, b.PatientPhone, b.PatientNationalCode, b.InsuranceID,
		b.BookedBy, string(b.Status),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperrors.Validation("slot or insurance does not exist")
	}
	return err
}

func (r *bookingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(r.conn(ctx).QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apperrors.NotFound("booking %s not found", id)
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("booking %s not found", id)
	}
	return nil
}

func (r *bookingRepoPG) SetStatusForSlot(ctx context.Context, slotID uuid.UUID, from, to BookingStatus) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bookings SET status = $3, updated_at = NOW() WHERE slot_id = $1 AND status = $2`,
		slotID, string(from), string(to))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *bookingRepoPG) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*Booking, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE slot_id = $1 ORDER BY created_at`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
