package account

import (
	"context"
	"errors"
	"fmt"

	"docchat/internal/auth"
	"docchat/internal/store"
)

// Client-error conditions. Handlers map these to 400 responses with fixed
// messages; everything else is a server error.
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("username or password is incorrect")
)

// UserStore is the persistence needed by the account service. The Postgres
// implementation lives in internal/store; tests use an in-memory fake.
type UserStore interface {
	Exists(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *store.User) error
	ByUsername(ctx context.Context, username string) (*store.User, error)
}

// Service implements signup and login.
type Service struct {
	users  UserStore
	tokens *auth.TokenIssuer
}

func NewService(users UserStore, tokens *auth.TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup registers a new account. It fails with ErrAccountExists when the
// username or the email is already taken.
func (s *Service) Signup(ctx context.Context, username, email, password string) error {
	exists, err := s.users.Exists(ctx, username, email)
	if err != nil {
		return fmt.Errorf("checking account: %w", err)
	}
	if exists {
		return ErrAccountExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.Create(ctx, &store.User{
		Username:       username,
		Email:          email,
		HashedPassword: hash,
	}); err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// Login verifies the credentials and issues an access token. Unknown
// username and wrong password fail identically with ErrInvalidCredentials,
// so the response does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.ByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("looking up account: %w", err)
	}
	if !auth.VerifyPassword(password, user.HashedPassword) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.Username)
}
