package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

// MappingRepo stores patient-doctor links. Pair uniqueness is enforced by
// the (patient_id, doctor_id) unique index at insert time.
type MappingRepo struct{ db *sql.DB }

func NewMappingRepo(db *sql.DB) *MappingRepo { return &MappingRepo{db: db} }

const mappingColumns = "id, patient_id, doctor_id, created_at, updated_at"

// Create inserts m. It returns ErrMappingExists for a duplicate pair and
// ErrInvalidReference when the patient or doctor is gone.
func (r *MappingRepo) Create(ctx context.Context, m *model.Mapping) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO patient_doctor_mappings (patient_id, doctor_id, created_at, updated_at) VALUES (?,?,?,?)",
		m.PatientID, m.DoctorID, toMillis(ts), toMillis(ts))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrMappingExists
		case isForeignKeyViolation(err):
			return ErrInvalidReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.CreatedAt, m.UpdatedAt = ts, ts
	return nil
}

func (r *MappingRepo) GetByID(ctx context.Context, id uint64) (*model.Mapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx,
		"SELECT "+mappingColumns+" FROM patient_doctor_mappings WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMappingNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns all mappings, newest first.
func (r *MappingRepo) List(ctx context.Context) ([]model.Mapping, error) {
	return r.query(ctx, "SELECT "+mappingColumns+" FROM patient_doctor_mappings ORDER BY created_at DESC, id DESC")
}

// ListByPatient returns the mappings of one patient, newest first.
func (r *MappingRepo) ListByPatient(ctx context.Context, patientID uint64) ([]model.Mapping, error) {
	return r.query(ctx,
		"SELECT "+mappingColumns+" FROM patient_doctor_mappings WHERE patient_id = ? ORDER BY created_at DESC, id DESC",
		patientID)
}

func (r *MappingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM patient_doctor_mappings WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMappingNotFound
	}
	return nil
}

func (r *MappingRepo) query(ctx context.Context, q string, args ...any) ([]model.Mapping, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Mapping, 0)
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMapping(s rowScanner) (*model.Mapping, error) {
	var (
		m                model.Mapping
		created, updated int64
	)
	if err := s.Scan(&m.ID, &m.PatientID, &m.DoctorID, &created, &updated); err != nil {
		return nil, err
	}
	m.CreatedAt, m.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &m, nil
}
