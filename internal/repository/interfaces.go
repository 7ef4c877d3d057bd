package repository

import (
	"context"
	"time"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

// Users is the identity store.
type Users interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// RefreshTokens persists hashed refresh token ids for rotation and logout.
type RefreshTokens interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, oldHash string, userID uint64, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Patients stores owner-scoped patient records.
type Patients interface {
	Create(ctx context.Context, p *model.Patient) error
	GetByID(ctx context.Context, id uint64) (*model.Patient, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Patient, error)
	Update(ctx context.Context, p *model.Patient) error
	Delete(ctx context.Context, id, ownerID uint64) error
}

// Doctors stores the global doctor directory.
type Doctors interface {
	Create(ctx context.Context, d *model.Doctor) error
	GetByID(ctx context.Context, id uint64) (*model.Doctor, error)
	List(ctx context.Context) ([]model.Doctor, error)
	Update(ctx context.Context, d *model.Doctor) error
	Delete(ctx context.Context, id uint64) error
}

// Mappings stores patient-doctor links.
type Mappings interface {
	Create(ctx context.Context, m *model.Mapping) error
	GetByID(ctx context.Context, id uint64) (*model.Mapping, error)
	List(ctx context.Context) ([]model.Mapping, error)
	ListByPatient(ctx context.Context, patientID uint64) ([]model.Mapping, error)
	Delete(ctx context.Context, id uint64) error
}

var (
	_ Users         = (*UserRepo)(nil)
	_ RefreshTokens = (*TokenRepo)(nil)
	_ Patients      = (*PatientRepo)(nil)
	_ Doctors       = (*DoctorRepo)(nil)
	_ Mappings      = (*MappingRepo)(nil)
)
