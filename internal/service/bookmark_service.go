package service

import (
	"context"
	"errors"
	"strings"

	"linkvault/internal/domain"
	"linkvault/internal/store"
)

var (
	// ErrBookmarkFields indicates a create request missing url or nickname.
	ErrBookmarkFields = errors.New("url and nickname are required")
	// ErrNicknameRequired indicates an update request with an empty nickname.
	ErrNicknameRequired = errors.New("nickname is required")
)

// BookmarkService manages a single user's bookmark collection. The username
// always comes from the authenticated identity, never from the request body,
// so a caller can only ever touch their own bookmarks.
type BookmarkService interface {
	List(ctx context.Context, username string) (map[string]domain.Bookmark, error)
	Create(ctx context.Context, username, url, nickname string) (string, error)
	Rename(ctx context.Context, username, id, nickname string) error
	Delete(ctx context.Context, username, id string) error
}

type bookmarkService struct {
	store *store.Store
}

func NewBookmarkService(st *store.Store) BookmarkService {
	return &bookmarkService{store: st}
}

func (s *bookmarkService) List(_ context.Context, username string) (map[string]domain.Bookmark, error) {
	return s.store.Bookmarks(username)
}

func (s *bookmarkService) Create(_ context.Context, username, url, nickname string) (string, error) {
	url = strings.TrimSpace(url)
	nickname = strings.TrimSpace(nickname)
	if url == "" || nickname == "" {
		return "", ErrBookmarkFields
	}
	return s.store.AddBookmark(username, url, nickname)
}

func (s *bookmarkService) Rename(_ context.Context, username, id, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if id == "" || nickname == "" {
		return ErrNicknameRequired
	}
	return s.store.RenameBookmark(username, id, nickname)
}

func (s *bookmarkService) Delete(_ context.Context, username, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	return s.store.RemoveBookmark(username, id)
}
