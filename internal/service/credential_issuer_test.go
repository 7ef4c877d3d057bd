package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/config"
	"github.com/iliyamo/healthcare-backend/internal/database"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/utils"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []queue.AuditEvent
}

func (r *recordingEmitter) Emit(ev queue.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func newIssuer(t *testing.T) (*CredentialIssuer, *repository.UserRepo, *recordingEmitter) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Config{JWTSecret: "svc-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	users := repository.NewUserRepo(db)
	rec := &recordingEmitter{}
	return NewCredentialIssuer(cfg, users, repository.NewTokenRepo(db), rec), users, rec
}

func TestRegisterStoresHashAndIssuesTokens(t *testing.T) {
	s, users, rec := newIssuer(t)
	ctx := context.Background()

	u, pair, err := s.Register(ctx, "Grace Hopper", "Grace@Example.com", "cobol-Compiler-59")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "grace@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	stored, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.PasswordHash == "cobol-Compiler-59" || !utils.VerifyPassword(stored.PasswordHash, "cobol-Compiler-59") {
		t.Fatal("password must be stored as bcrypt hash only")
	}
	claims, err := utils.ParseToken("svc-secret", pair.Access, utils.TokenAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if id, _ := claims.UserID(); id != u.ID {
		t.Fatalf("subject %d, want %d", id, u.ID)
	}
	if len(rec.events) != 1 || rec.events[0].Type != queue.EventUserRegistered {
		t.Fatalf("expected user.registered event, got %+v", rec.events)
	}

	_, _, err = s.Register(ctx, "Other", "grace@example.com", "another-Strong-77")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	s, _, _ := newIssuer(t)
	_, _, err := s.Register(context.Background(), "Bob", "bob@example.com", "1234")
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ae.Fields["password"]) < 2 {
		t.Fatalf("expected every violated rule listed, got %v", ae.Fields)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s, _, _ := newIssuer(t)
	ctx := context.Background()
	if _, _, err := s.Register(ctx, "Ada", "ada@example.com", "analytical-Engine-1843"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, errUnknown := s.Login(ctx, "nobody@example.com", "analytical-Engine-1843")
	_, errWrong := s.Login(ctx, "ada@example.com", "wrong-password")
	a, b := apperr.As(errUnknown), apperr.As(errWrong)
	if a.Kind != apperr.KindAuthentication || a.Kind != b.Kind || a.Message != b.Message {
		t.Fatalf("login failures differ: %+v vs %+v", a, b)
	}

	pair, err := s.Login(ctx, "ADA@example.com", "analytical-Engine-1843")
	if err != nil || pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("login: %+v %v", pair, err)
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	s, _, _ := newIssuer(t)
	ctx := context.Background()
	_, pair, err := s.Register(ctx, "Linus", "linus@example.com", "kernel-Hacker-1991")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := s.Refresh(ctx, pair.Access); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}

	next, err := s.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := s.Refresh(ctx, pair.Refresh); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("refresh token reused: %v", err)
	}

	if err := s.Logout(ctx, next.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := s.Refresh(ctx, next.Refresh); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("revoked token accepted: %v", err)
	}
}

func TestMeUnknownUser(t *testing.T) {
	s, _, _ := newIssuer(t)
	if _, err := s.Me(context.Background(), 404); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

type chanPublisher struct {
	got chan queue.AuditEvent
	err error
}

func (p *chanPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	p.got <- ev
	return p.err
}

func TestAsyncEmitterDeliversAndDrains(t *testing.T) {
	pub := &chanPublisher{got: make(chan queue.AuditEvent, 4), err: errors.New("broker down")}
	e := NewAsyncEmitter(pub, zerolog.Nop(), 4)
	e.Emit(queue.NewAuditEvent(queue.EventDoctorCreated, 1, "doctor", 1))
	e.Emit(queue.NewAuditEvent(queue.EventDoctorDeleted, 1, "doctor", 1))
	e.Close()

	if len(pub.got) != 2 {
		t.Fatalf("expected both events published, got %d", len(pub.got))
	}
	select {
	case ev := <-pub.got:
		if ev.Type != queue.EventDoctorCreated {
			t.Fatalf("out of order: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}
