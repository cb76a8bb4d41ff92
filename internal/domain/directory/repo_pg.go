package directory

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

func applyFilter(ds *goqu.SelectDataset, nameCol string, f ListFilter) *goqu.SelectDataset {
	if f.Query != "" {
		ds = ds.Where(goqu.C(nameCol).ILike("%" + f.Query + "%"))
	}
	if f.ActiveOnly {
		ds = ds.Where(goqu.C("active").IsTrue())
	}
	return ds
}

func notFoundOr(err error, what string, id uuid.UUID) error {
	if db.IsNotFound(err) {
		return apperrors.NotFound("%s %s not found", what, id)
	}
	return err
}

func requireRow(affected int64, what string, id uuid.UUID) error {
	if affected == 0 {
		return apperrors.NotFound("%s %s not found", what, id)
	}
	return nil
}

func inUse(err error, what string) error {
	if db.IsForeignKeyViolation(err) {
		return apperrors.Conflict("%s is still referenced", what)
	}
	return err
}

// =========== Clinic Repository ===========

type clinicRepoPG struct{ pool db.Querier }

func NewClinicRepoPG(pool db.Querier) ClinicRepository { return &clinicRepoPG{pool: pool} }

func (r *clinicRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const clinicCols = `id, name, address, phone, active, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinics (id, name, address, phone, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Address, c.Phone, c.Active).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, err := scanClinic(r.conn(ctx).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "clinic", id)
	}
	return c, nil
}

func (r *clinicRepoPG) Update(ctx context.Context, c *Clinic) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clinics SET name = $2, address = $3, phone = $4, active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Address, c.Phone, c.Active).Scan(&c.CreatedAt, &c.UpdatedAt)
	return notFoundOr(err, "clinic", c.ID)
}

func (r *clinicRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	if err != nil {
		return inUse(err, "clinic")
	}
	return requireRow(tag.RowsAffected(), "clinic", id)
}

func (r *clinicRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Clinic, int, error) {
	ds := applyFilter(db.From("clinics"), "name", f).
		Select(goqu.L(clinicCols)).
		Order(goqu.C("name").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanClinic)
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool db.Querier }

func NewDoctorRepoPG(pool db.Querier) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const doctorCols = `id, first_name, last_name, medical_code, specialty, phone, active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.MedicalCode, &d.Specialty, &d.Phone,
		&d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func duplicateCode(err error, code string) error {
	if db.IsUniqueViolation(err, "doctors_medical_code_key") {
		return apperrors.Conflict("medical code %s is already registered", code)
	}
	return err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, first_name, last_name, medical_code, specialty, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		d.ID, d.FirstName, d.LastName, d.MedicalCode, d.Specialty, d.Phone, d.Active,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return duplicateCode(err, d.MedicalCode)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "doctor", id)
	}
	return d, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET first_name = $2, last_name = $3, medical_code = $4, specialty = $5,
			phone = $6, active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		d.ID, d.FirstName, d.LastName, d.MedicalCode, d.Specialty, d.Phone, d.Active,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return duplicateCode(notFoundOr(err, "doctor", d.ID), d.MedicalCode)
	}
	return nil
}

func (r *doctorRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag.RowsAffected(), "doctor", id)
}

func (r *doctorRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error) {
	ds := applyFilter(db.From("doctors"), "last_name", f).
		Select(goqu.L(doctorCols)).
		Order(goqu.C("last_name").Asc(), goqu.C("first_name").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanDoctor)
}

// =========== Medical Service Repository ===========

type serviceRepoPG struct{ pool db.Querier }

func NewServiceRepoPG(pool db.Querier) ServiceRepository { return &serviceRepoPG{pool: pool} }

func (r *serviceRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const serviceCols = `id, name, description, active, created_at, updated_at`

func scanService(row pgx.Row) (*MedicalService, error) {
	var s MedicalService
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *MedicalService) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_services (id, name, description, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Description, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalService, error) {
	s, err := scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM medical_services WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "service", id)
	}
	return s, nil
}

func (r *serviceRepoPG) Update(ctx context.Context, s *MedicalService) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_services SET name = $2, description = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Description, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	return notFoundOr(err, "service", s.ID)
}

func (r *serviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_services WHERE id = $1`, id)
	if err != nil {
		return inUse(err, "service")
	}
	return requireRow(tag.RowsAffected(), "service", id)
}

func (r *serviceRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*MedicalService, int, error) {
	ds := applyFilter(db.From("medical_services"), "name", f).
		Select(goqu.L(serviceCols)).
		Order(goqu.C("name").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanService)
}

// =========== Insurance Repository ===========

type insuranceRepoPG struct{ pool db.Querier }

func NewInsuranceRepoPG(pool db.Querier) InsuranceRepository { return &insuranceRepoPG{pool: pool} }

func (r *insuranceRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const insuranceCols = `id, name, code, active, created_at, updated_at`

func scanInsurance(row pgx.Row) (*Insurance, error) {
	var i Insurance
	err := row.Scan(&i.ID, &i.Name, &i.Code, &i.Active, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r *insuranceRepoPG) Create(ctx context.Context, i *Insurance) error {
	i.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurances (id, name, code, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		i.ID, i.Name, i.Code, i.Active).Scan(&i.CreatedAt, &i.UpdatedAt)
}

func (r *insuranceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	i, err := scanInsurance(r.conn(ctx).QueryRow(ctx, `SELECT `+insuranceCols+` FROM insurances WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "insurance", id)
	}
	return i, nil
}

func (r *insuranceRepoPG) Update(ctx context.Context, i *Insurance) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE insurances SET name = $2, code = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		i.ID, i.Name, i.Code, i.Active).Scan(&i.CreatedAt, &i.UpdatedAt)
	return notFoundOr(err, "insurance", i.ID)
}

func (r *insuranceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM insurances WHERE id = $1`, id)
	if err != nil {
		return inUse(err, "insurance")
	}
	return requireRow(tag.RowsAffected(), "insurance", id)
}

func (r *insuranceRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Insurance, int, error) {
	ds := applyFilter(db.From("insurances"), "name", f).
		Select(goqu.L(insuranceCols)).
		Order(goqu.C("name").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
	return db.Page(ctx, r.conn(ctx), ds, scanInsurance)
}
