package service

import (
	"context"
	"errors"
	"strings"

	"linkvault/internal/domain"
	"linkvault/internal/store"
)

var (
	// ErrUsernameRequired indicates a request without a username.
	ErrUsernameRequired = errors.New("username is required")
)

// AuthResult is the outcome of a successful claim or login.
type AuthResult struct {
	Token   string
	IsAdmin bool
	// Claimed is true when this call set the PIN for the first time.
	Claimed bool
}

// Identity is the resolved principal behind a bearer token.
type Identity struct {
	Username string
	IsAdmin  bool
}

// AuthService covers the credential and session lifecycle: the one-time PIN
// claim, PIN login, token verification, and token-to-identity resolution.
type AuthService interface {
	CheckUsername(ctx context.Context, username string) (exists, needsPin bool, err error)
	Authenticate(ctx context.Context, username, pin string, settingPIN bool) (*AuthResult, error)
	VerifyToken(ctx context.Context, token string) bool
	Identify(ctx context.Context, token string) (*Identity, error)
}

type authService struct {
	store *store.Store
}

func NewAuthService(st *store.Store) AuthService {
	return &authService{store: st}
}

func (s *authService) CheckUsername(_ context.Context, username string) (bool, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, false, ErrUsernameRequired
	}

	user, err := s.store.Lookup(username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, !user.Claimed(), nil
}

// Authenticate routes between the claim flow and a normal login based on the
// account's PIN state, and issues a fresh session on success.
func (s *authService) Authenticate(_ context.Context, username, pin string, settingPIN bool) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	user, err := s.store.Lookup(username)
	if err != nil {
		return nil, err
	}

	claimed := false
	if !user.Claimed() {
		if !settingPIN {
			return nil, domain.ErrPinNotSet
		}
		if err := s.store.ClaimPIN(username, pin); err != nil {
			return nil, err
		}
		claimed = true
	} else {
		if err := s.store.VerifyPIN(username, pin); err != nil {
			return nil, err
		}
	}

	token, err := s.store.IssueSession(username)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:   token,
		IsAdmin: user.IsAdmin,
		Claimed: claimed,
	}, nil
}

func (s *authService) VerifyToken(_ context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := s.store.ValidateToken(token)
	return err == nil
}

// Identify resolves a bearer token to its owning user. An authentication
// failure (missing, unknown, or expired token) is always reported as
// ErrInvalidToken; role checks happen downstream on the returned identity.
func (s *authService) Identify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	username, err := s.store.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Lookup(username)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return &Identity{Username: username, IsAdmin: user.IsAdmin}, nil
}
