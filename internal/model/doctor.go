package model

import "time"

// Doctor is a directory entry visible to everyone. Email is globally unique.
type Doctor struct {
	ID             uint64
	Name           string
	Specialization string
	Email          string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
