// Package service holds the credential issuance flow and the audit event
// plumbing used by the HTTP handlers.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/config"
	"github.com/iliyamo/healthcare-backend/internal/model"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/utils"
)

var tracer = otel.Tracer("github.com/iliyamo/healthcare-backend/internal/service")

// TokenPair is the credential pair returned by register, login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// CredentialIssuer verifies email/password pairs and mints tokens.
type CredentialIssuer struct {
	users      repository.Users
	tokens     repository.RefreshTokens
	events     Emitter
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialIssuer(cfg config.Config, users repository.Users, tokens repository.RefreshTokens, events Emitter) *CredentialIssuer {
	if events == nil {
		events = NopEmitter{}
	}
	return &CredentialIssuer{
		users:      users,
		tokens:     tokens,
		events:     events,
		secret:     cfg.JWTSecret,
		accessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		cost:       cfg.BcryptCost,
	}
}

// Register creates an identity and returns it with a fresh token pair.
func (s *CredentialIssuer) Register(ctx context.Context, name, email, password string) (*model.User, TokenPair, error) {
	ctx, span := tracer.Start(ctx, "CredentialIssuer.Register")
	defer span.End()

	email = repository.NormalizeEmail(email)
	if problems := utils.CheckPasswordStrength(password,
		utils.UserAttribute{Label: "email address", Value: email},
		utils.UserAttribute{Label: "name", Value: name},
	); len(problems) > 0 {
		return nil, TokenPair{}, apperr.Validation("invalid input", map[string][]string{"password": problems})
	}

	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return nil, TokenPair{}, apperr.Internal(err)
	}
	u := &model.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, TokenPair{}, apperr.Conflict("a user with this email already exists")
		}
		return nil, TokenPair{}, apperr.Internal(err)
	}
	span.SetAttributes(attribute.Int64("user.id", int64(u.ID)))

	pair, err := s.issue(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.events.Emit(queue.NewAuditEvent(queue.EventUserRegistered, u.ID, "user", u.ID))
	return u, pair, nil
}

// Login verifies credentials. Unknown email and wrong password fail with the
// same error after the same amount of hashing work.
func (s *CredentialIssuer) Login(ctx context.Context, email, password string) (TokenPair, error) {
	ctx, span := tracer.Start(ctx, "CredentialIssuer.Login")
	defer span.End()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return TokenPair{}, apperr.Internal(err)
		}
		utils.VerifyPassword(s.dummy(), password)
		return TokenPair{}, apperr.InvalidCredentials()
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, apperr.InvalidCredentials()
	}
	return s.issue(ctx, u.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so it cannot be used again.
func (s *CredentialIssuer) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	ctx, span := tracer.Start(ctx, "CredentialIssuer.Refresh")
	defer span.End()

	claims, uid, err := s.parseRefresh(raw)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := utils.NewAccessToken(s.secret, uid, s.accessTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, err := utils.NewRefreshToken(s.secret, uid, s.refreshTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	err = s.tokens.Rotate(ctx, utils.HashTokenID(claims.ID), uid, utils.HashTokenID(refresh.ID), refresh.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return TokenPair{}, invalidToken()
		}
		return TokenPair{}, apperr.Internal(err)
	}
	return TokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

// Logout revokes one refresh token.
func (s *CredentialIssuer) Logout(ctx context.Context, raw string) error {
	claims, _, err := s.parseRefresh(raw)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeByHash(ctx, utils.HashTokenID(claims.ID)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Me loads the identity behind an access token subject.
func (s *CredentialIssuer) Me(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Unauthorized("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *CredentialIssuer) issue(ctx context.Context, uid uint64) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret, uid, s.accessTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, err := utils.NewRefreshToken(s.secret, uid, s.refreshTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if err := s.tokens.Store(ctx, uid, utils.HashTokenID(refresh.ID), refresh.Exp); err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	return TokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

func (s *CredentialIssuer) parseRefresh(raw string) (*utils.Claims, uint64, error) {
	claims, err := utils.ParseToken(s.secret, raw, utils.TokenRefresh)
	if err != nil {
		return nil, 0, invalidToken()
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, 0, invalidToken()
	}
	return claims, uid, nil
}

// dummy returns a placeholder hash at the configured cost so lookups of
// unknown emails still pay for one comparison.
func (s *CredentialIssuer) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := utils.HashPassword("unknown-user-placeholder", s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func invalidToken() *apperr.Error {
	return apperr.New(apperr.KindAuthentication, "token is invalid or expired")
}
