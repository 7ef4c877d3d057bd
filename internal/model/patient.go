package model

import "time"

// Patient is a medical record owned by exactly one user. OwnerID is set at
// creation and never reassigned.
type Patient struct {
	ID        uint64
	OwnerID   uint64
	Name      string
	Age       uint32
	Gender    string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
