package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

// DoctorRepo stores the doctor directory.
type DoctorRepo struct{ db *sql.DB }

func NewDoctorRepo(db *sql.DB) *DoctorRepo { return &DoctorRepo{db: db} }

const doctorColumns = "id, name, specialization, email, phone, created_at, updated_at"

// Create inserts d. A duplicate email yields ErrDoctorEmailTaken.
func (r *DoctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	d.Email = NormalizeEmail(d.Email)
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO doctors (name, specialization, email, phone, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		d.Name, d.Specialization, d.Email, d.Phone, toMillis(ts), toMillis(ts))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDoctorEmailTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	d.CreatedAt, d.UpdatedAt = ts, ts
	return nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id uint64) (*model.Doctor, error) {
	d, err := scanDoctor(r.db.QueryRowContext(ctx, "SELECT "+doctorColumns+" FROM doctors WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns every doctor, newest first.
func (r *DoctorRepo) List(ctx context.Context) ([]model.Doctor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+doctorColumns+" FROM doctors ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DoctorRepo) Update(ctx context.Context, d *model.Doctor) error {
	d.Email = NormalizeEmail(d.Email)
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE doctors SET name = ?, specialization = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?",
		d.Name, d.Specialization, d.Email, d.Phone, toMillis(ts), d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDoctorEmailTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDoctorNotFound
	}
	d.UpdatedAt = ts
	return nil
}

// Delete removes the doctor and its mappings in one transaction.
func (r *DoctorRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM patient_doctor_mappings WHERE doctor_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM doctors WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDoctorNotFound
	}
	return tx.Commit()
}

func scanDoctor(s rowScanner) (*model.Doctor, error) {
	var (
		d                model.Doctor
		created, updated int64
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Specialization, &d.Email, &d.Phone, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt, d.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &d, nil
}
