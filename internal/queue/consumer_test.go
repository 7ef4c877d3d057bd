package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConsumerHandleAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	c := &Consumer{LogPath: path, Log: zerolog.Nop()}

	for _, ev := range []AuditEvent{
		{Type: EventPatientCreated, ActorID: 3, Resource: "patient", ResourceID: 9, RequestID: "req-1", OccurredAt: "2024-01-01T00:00:00Z"},
		{Type: EventMappingDeleted, ActorID: 3, Resource: "mapping", ResourceID: 2, OccurredAt: "2024-01-01T00:00:01Z"},
	} {
		body, _ := json.Marshal(ev)
		if err := c.Handle(body); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", data)
	}
	if lines[0] != "[2024-01-01T00:00:00Z] patient.created | actor_id=3 | patient_id=9 | request_id=req-1" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.Contains(lines[1], "mapping.deleted") || strings.Contains(lines[1], "request_id") {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestConsumerHandleRejectsBadPayload(t *testing.T) {
	c := &Consumer{LogPath: filepath.Join(t.TempDir(), "audit.log"), Log: zerolog.Nop()}
	if err := c.Handle([]byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if err := c.Handle([]byte(`{"actor_id":1}`)); err == nil {
		t.Fatal("expected error for event without type")
	}
}

func TestNewAuditEventStamps(t *testing.T) {
	ev := NewAuditEvent(EventDoctorCreated, 1, "doctor", 5)
	if ev.OccurredAt == "" || ev.Type != EventDoctorCreated || ev.ResourceID != 5 {
		t.Fatalf("unexpected event %+v", ev)
	}
}
