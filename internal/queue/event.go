// Package queue defines the audit event payload exchanged over the message
// broker and the consumer that persists it.
package queue

import "time"

// DefaultQueueName is the durable queue audit events are published to.
const DefaultQueueName = "healthcare.audit"

const (
	EventUserRegistered = "user.registered"
	EventPatientCreated = "patient.created"
	EventPatientUpdated = "patient.updated"
	EventPatientDeleted = "patient.deleted"
	EventDoctorCreated  = "doctor.created"
	EventDoctorUpdated  = "doctor.updated"
	EventDoctorDeleted  = "doctor.deleted"
	EventMappingCreated = "mapping.created"
	EventMappingDeleted = "mapping.deleted"
)

// AuditEvent records who changed which record. It carries identifiers only,
// never record contents.
type AuditEvent struct {
	Type       string `json:"type"`
	ActorID    uint64 `json:"actor_id"`
	Resource   string `json:"resource"`
	ResourceID uint64 `json:"resource_id"`
	RequestID  string `json:"request_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewAuditEvent stamps an event with the current UTC time.
func NewAuditEvent(typ string, actorID uint64, resource string, resourceID uint64) AuditEvent {
	return AuditEvent{
		Type:       typ,
		ActorID:    actorID,
		Resource:   resource,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
