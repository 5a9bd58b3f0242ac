package service

import (
	"context"
	"strings"

	"linkvault/internal/domain"
	"linkvault/internal/store"
)

// UserService covers admin-tier user provisioning: listing every account,
// creating unclaimed accounts, overwriting PINs and roles, and deletion
// with its session-revocation cascade.
type UserService interface {
	List(ctx context.Context) map[string]domain.UserRecord
	Create(ctx context.Context, username string, isAdmin bool) error
	Update(ctx context.Context, username string, pin *string, isAdmin *bool) error
	Delete(ctx context.Context, username, actingUsername string) error
}

type userService struct {
	store *store.Store
}

func NewUserService(st *store.Store) UserService {
	return &userService{store: st}
}

func (s *userService) List(_ context.Context) map[string]domain.UserRecord {
	return s.store.ListUsers()
}

func (s *userService) Create(_ context.Context, username string, isAdmin bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	return s.store.CreateUser(username, isAdmin)
}

func (s *userService) Update(_ context.Context, username string, pin *string, isAdmin *bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	return s.store.UpdateUser(username, pin, isAdmin)
}

func (s *userService) Delete(_ context.Context, username, actingUsername string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	return s.store.DeleteUser(username, actingUsername)
}
