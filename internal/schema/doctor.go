package schema

import (
	"time"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

type DoctorInput struct {
	Name           *string `json:"name" validate:"required,min=1,max=255"`
	Specialization *string `json:"specialization" validate:"required,min=1,max=255"`
	Email          *string `json:"email" validate:"required,email,max=254"`
	Phone          *string `json:"phone" validate:"omitnil,max=50"`
}

func (d *DoctorInput) Normalize() {
	trim(d.Name)
	trim(d.Specialization)
	trim(d.Email)
	trim(d.Phone)
}

func (d *DoctorInput) Apply(m *model.Doctor) {
	m.Name = *d.Name
	m.Specialization = *d.Specialization
	m.Email = *d.Email
	m.Phone = ""
	if d.Phone != nil {
		m.Phone = *d.Phone
	}
}

type DoctorPatch struct {
	Name           *string `json:"name" validate:"omitnil,min=1,max=255"`
	Specialization *string `json:"specialization" validate:"omitnil,min=1,max=255"`
	Email          *string `json:"email" validate:"omitnil,email,max=254"`
	Phone          *string `json:"phone" validate:"omitnil,max=50"`
}

func (d *DoctorPatch) Normalize() {
	trim(d.Name)
	trim(d.Specialization)
	trim(d.Email)
	trim(d.Phone)
}

func (d *DoctorPatch) Apply(m *model.Doctor) {
	if d.Name != nil {
		m.Name = *d.Name
	}
	if d.Specialization != nil {
		m.Specialization = *d.Specialization
	}
	if d.Email != nil {
		m.Email = *d.Email
	}
	if d.Phone != nil {
		m.Phone = *d.Phone
	}
}

type DoctorResponse struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewDoctorResponse(d *model.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Email:          d.Email,
		Phone:          d.Phone,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func NewDoctorList(ds []model.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(ds))
	for i := range ds {
		out = append(out, NewDoctorResponse(&ds[i]))
	}
	return out
}
