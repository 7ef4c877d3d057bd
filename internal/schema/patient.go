package schema

import (
	"time"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

// PatientInput is the body of create and full update. Unknown keys such as
// id, owner or timestamps are ignored by the decoder.
type PatientInput struct {
	Name    *string `json:"name" validate:"required,min=1,max=255"`
	Age     *int64  `json:"age" validate:"required,gte=0,lte=2147483647"`
	Gender  *string `json:"gender" validate:"required,min=1,max=20"`
	Address *string `json:"address"`
}

func (p *PatientInput) Normalize() {
	trim(p.Name)
	trim(p.Gender)
}

// Apply copies the input onto m. Address is cleared when absent.
func (p *PatientInput) Apply(m *model.Patient) {
	m.Name = *p.Name
	m.Age = uint32(*p.Age)
	m.Gender = *p.Gender
	m.Address = ""
	if p.Address != nil {
		m.Address = *p.Address
	}
}

// PatientPatch is the body of a partial update.
type PatientPatch struct {
	Name    *string `json:"name" validate:"omitnil,min=1,max=255"`
	Age     *int64  `json:"age" validate:"omitnil,gte=0,lte=2147483647"`
	Gender  *string `json:"gender" validate:"omitnil,min=1,max=20"`
	Address *string `json:"address"`
}

func (p *PatientPatch) Normalize() {
	trim(p.Name)
	trim(p.Gender)
}

func (p *PatientPatch) Apply(m *model.Patient) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Age != nil {
		m.Age = uint32(*p.Age)
	}
	if p.Gender != nil {
		m.Gender = *p.Gender
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
}

// PatientResponse never exposes the owner.
type PatientResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Age       uint32    `json:"age"`
	Gender    string    `json:"gender"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPatientResponse(p *model.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewPatientList(ps []model.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(ps))
	for i := range ps {
		out = append(out, NewPatientResponse(&ps[i]))
	}
	return out
}
