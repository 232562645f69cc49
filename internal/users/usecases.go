package users

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/postgres"
)

const bcryptCost = 10

var errBadCredentials = apperr.New(apperr.KindUnauthorized, "Invalid email or password.", nil)

type Service struct {
	repository Repository
	db         postgres.DBTX
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewService(repository Repository, db postgres.DBTX, tracer trace.Tracer, log *zap.Logger) *Service {
	return &Service{
		repository: repository,
		db:         db,
		tracer:     tracer,
		log:        log,
	}
}

// Signup creates a regular user with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, username, email, password string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "users.signup")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return 0, apperr.InvalidInput("All fields (username, email, password) are required.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		// bcrypt refuses passwords longer than 72 bytes
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, apperr.InvalidInput("Password is too long.")
		}
		return 0, err
	}

	u := &User{Username: username, Email: email, PasswordHash: string(hash), Role: RoleUser}
	id, err := s.repository.Create(ctx, s.db, u)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("user_id", id))
	s.log.Info("👤 User created", zap.Int64("user_id", id))
	return id, nil
}

// Login checks the credentials. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.login")
	defer span.End()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.InvalidInput("Email and password are required.")
	}

	u, err := s.repository.GetByEmail(ctx, s.db, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.get")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", id))

	return s.repository.GetByID(ctx, s.db, id)
}
