package schema

import (
	"time"

	"github.com/iliyamo/healthcare-backend/internal/model"
)

type MappingInput struct {
	Patient *uint64 `json:"patient" validate:"required,gt=0"`
	Doctor  *uint64 `json:"doctor" validate:"required,gt=0"`
}

type MappingResponse struct {
	ID        uint64    `json:"id"`
	Patient   uint64    `json:"patient"`
	Doctor    uint64    `json:"doctor"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMappingResponse(m *model.Mapping) MappingResponse {
	return MappingResponse{
		ID:        m.ID,
		Patient:   m.PatientID,
		Doctor:    m.DoctorID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewMappingList(ms []model.Mapping) []MappingResponse {
	out := make([]MappingResponse, 0, len(ms))
	for i := range ms {
		out = append(out, NewMappingResponse(&ms[i]))
	}
	return out
}
