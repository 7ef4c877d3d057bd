package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iliyamo/healthcare-backend/internal/database"
	"github.com/iliyamo/healthcare-backend/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fixedClock makes now() advance by one second per call so ordering by
// created_at is deterministic.
func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
	t.Cleanup(func() { now = orig })
}

func mustUser(t *testing.T, users *UserRepo, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", Name: "n"}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUserRepo(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	u := &model.User{Email: "  Alice@Example.COM ", PasswordHash: "hash", Name: "Alice"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := users.GetByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.Name != "Alice" || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("got %+v want %+v", got, u)
	}

	if err := users.Create(ctx, &model.User{Email: "alice@example.com", PasswordHash: "h", Name: "dup"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, err := users.GetByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTokenRepoRotateOnce(t *testing.T) {
	db := openTestDB(t)
	u := mustUser(t, NewUserRepo(db), "tok@example.com")
	tokens := NewTokenRepo(db)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	if err := tokens.Store(ctx, u.ID, "h1", exp); err != nil {
		t.Fatalf("store: %v", err)
	}
	if id, err := tokens.Validate(ctx, "h1"); err != nil || id != u.ID {
		t.Fatalf("validate: id=%d err=%v", id, err)
	}
	if err := tokens.Rotate(ctx, "h1", u.ID, "h2", exp); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := tokens.Validate(ctx, "h1"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("old token still valid: %v", err)
	}
	if err := tokens.Rotate(ctx, "h1", u.ID, "h3", exp); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second rotation should fail, got %v", err)
	}
	if err := tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := tokens.Validate(ctx, "h2"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("revoked token still valid: %v", err)
	}
}

func TestTokenRepoExpired(t *testing.T) {
	db := openTestDB(t)
	u := mustUser(t, NewUserRepo(db), "exp@example.com")
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	if err := tokens.Store(ctx, u.ID, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := tokens.Validate(ctx, "old"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestPatientRepoOwnerScoping(t *testing.T) {
	fixedClock(t)
	db := openTestDB(t)
	users := NewUserRepo(db)
	owner := mustUser(t, users, "owner@example.com")
	other := mustUser(t, users, "other@example.com")
	patients := NewPatientRepo(db)
	ctx := context.Background()

	first := &model.Patient{OwnerID: owner.ID, Name: "First", Age: 30, Gender: "F"}
	second := &model.Patient{OwnerID: owner.ID, Name: "Second", Age: 40, Gender: "M", Address: "Main St"}
	foreign := &model.Patient{OwnerID: other.ID, Name: "Foreign", Age: 50, Gender: "F"}
	for _, p := range []*model.Patient{first, second, foreign} {
		if err := patients.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := patients.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first owner-only list, got %+v", list)
	}

	// a non-owner update touches nothing
	hijack := *first
	hijack.OwnerID = other.ID
	hijack.Name = "Hijacked"
	if err := patients.Update(ctx, &hijack); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
	if err := patients.Delete(ctx, first.ID, other.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound on foreign delete, got %v", err)
	}
	got, err := patients.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "First" || got.OwnerID != owner.ID {
		t.Fatalf("patient modified by non-owner: %+v", got)
	}

	first.Name = "Renamed"
	if err := patients.Update(ctx, first); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	got, _ = patients.GetByID(ctx, first.ID)
	if got.Name != "Renamed" || !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestListTieBreaksByID(t *testing.T) {
	db := openTestDB(t)
	orig := now
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	doctors := NewDoctorRepo(db)
	ctx := context.Background()
	a := &model.Doctor{Name: "A", Specialization: "x", Email: "a@example.com"}
	b := &model.Doctor{Name: "B", Specialization: "x", Email: "b@example.com"}
	for _, d := range []*model.Doctor{a, b} {
		if err := doctors.Create(ctx, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := doctors.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID {
		t.Fatalf("expected id desc on equal timestamps, got %+v", list)
	}
}

func TestDoctorRepoEmailUnique(t *testing.T) {
	db := openTestDB(t)
	doctors := NewDoctorRepo(db)
	ctx := context.Background()

	a := &model.Doctor{Name: "A", Specialization: "Cardio", Email: "doc@example.com"}
	if err := doctors.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := doctors.Create(ctx, &model.Doctor{Name: "B", Specialization: "Derm", Email: "DOC@example.com"}); !errors.Is(err, ErrDoctorEmailTaken) {
		t.Fatalf("expected ErrDoctorEmailTaken, got %v", err)
	}

	b := &model.Doctor{Name: "B", Specialization: "Derm", Email: "b@example.com"}
	if err := doctors.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	b.Email = "doc@example.com"
	if err := doctors.Update(ctx, b); !errors.Is(err, ErrDoctorEmailTaken) {
		t.Fatalf("expected ErrDoctorEmailTaken on update, got %v", err)
	}
	if err := doctors.Delete(ctx, 12345); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestMappingRepo(t *testing.T) {
	fixedClock(t)
	db := openTestDB(t)
	owner := mustUser(t, NewUserRepo(db), "m@example.com")
	patients := NewPatientRepo(db)
	doctors := NewDoctorRepo(db)
	mappings := NewMappingRepo(db)
	ctx := context.Background()

	p := &model.Patient{OwnerID: owner.ID, Name: "P", Age: 1, Gender: "F"}
	if err := patients.Create(ctx, p); err != nil {
		t.Fatalf("patient: %v", err)
	}
	d1 := &model.Doctor{Name: "D1", Specialization: "s", Email: "d1@example.com"}
	d2 := &model.Doctor{Name: "D2", Specialization: "s", Email: "d2@example.com"}
	for _, d := range []*model.Doctor{d1, d2} {
		if err := doctors.Create(ctx, d); err != nil {
			t.Fatalf("doctor: %v", err)
		}
	}

	m1 := &model.Mapping{PatientID: p.ID, DoctorID: d1.ID}
	if err := mappings.Create(ctx, m1); err != nil {
		t.Fatalf("create mapping: %v", err)
	}
	if err := mappings.Create(ctx, &model.Mapping{PatientID: p.ID, DoctorID: d1.ID}); !errors.Is(err, ErrMappingExists) {
		t.Fatalf("expected ErrMappingExists, got %v", err)
	}
	if err := mappings.Create(ctx, &model.Mapping{PatientID: p.ID, DoctorID: 9999}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	m2 := &model.Mapping{PatientID: p.ID, DoctorID: d2.ID}
	if err := mappings.Create(ctx, m2); err != nil {
		t.Fatalf("create second mapping: %v", err)
	}

	list, err := mappings.ListByPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("list by patient: %v", err)
	}
	if len(list) != 2 || list[0].ID != m2.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	// deleting a doctor removes only its mappings
	if err := doctors.Delete(ctx, d2.ID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}
	if _, err := mappings.GetByID(ctx, m2.ID); !errors.Is(err, ErrMappingNotFound) {
		t.Fatalf("mapping of deleted doctor survived: %v", err)
	}
	if _, err := mappings.GetByID(ctx, m1.ID); err != nil {
		t.Fatalf("unrelated mapping removed: %v", err)
	}

	// deleting the patient cascades the rest
	if err := patients.Delete(ctx, p.ID, owner.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	all, err := mappings.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected cascade to remove mappings, got %+v", all)
	}
	if err := mappings.Delete(ctx, m1.ID); !errors.Is(err, ErrMappingNotFound) {
		t.Fatalf("expected ErrMappingNotFound, got %v", err)
	}
}
