package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

// PatientRepo stores patients. Every mutation is scoped by owner_id in the
// WHERE clause in addition to the policy check done by callers.
type PatientRepo struct{ db *sql.DB }

func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{db: db} }

const patientColumns = "id, owner_id, name, age, gender, address, created_at, updated_at"

// Create inserts p and fills in ID and timestamps.
func (r *PatientRepo) Create(ctx context.Context, p *model.Patient) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO patients (owner_id, name, age, gender, address, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		p.OwnerID, p.Name, p.Age, p.Gender, p.Address, toMillis(ts), toMillis(ts))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = ts, ts
	return nil
}

// GetByID fetches a patient regardless of owner. Callers apply the
// ownership policy to the returned record.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (*model.Patient, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE id = ?", id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByOwner returns the owner's patients, newest first.
func (r *PatientRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Patient, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE owner_id = ? ORDER BY created_at DESC, id DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update writes the mutable fields of p. OwnerID identifies the row together
// with ID and is never changed.
func (r *PatientRepo) Update(ctx context.Context, p *model.Patient) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE patients SET name = ?, age = ?, gender = ?, address = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
		p.Name, p.Age, p.Gender, p.Address, toMillis(ts), p.ID, p.OwnerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPatientNotFound
	}
	p.UpdatedAt = ts
	return nil
}

// Delete removes the patient and its mappings in one transaction.
func (r *PatientRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM patient_doctor_mappings WHERE patient_id IN (SELECT id FROM patients WHERE id = ? AND owner_id = ?)",
		id, ownerID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM patients WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPatientNotFound
	}
	return tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(s rowScanner) (*model.Patient, error) {
	var (
		p                model.Patient
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Age, &p.Gender, &p.Address, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &p, nil
}
