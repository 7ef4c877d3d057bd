package model

import "time"

// Mapping links one patient to one doctor. The (PatientID, DoctorID) pair is
// unique.
type Mapping struct {
	ID        uint64
	PatientID uint64
	DoctorID  uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}
