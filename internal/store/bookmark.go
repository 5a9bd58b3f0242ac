package store

import (
	"fmt"

	"linkvault/internal/domain"
)

// bookmarkIDBytes keeps bookmark ids short but unguessable.
const bookmarkIDBytes = 6

// Bookmarks returns a copy of the user's bookmark collection.
func (s *Store) Bookmarks(username string) (map[string]domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}

	out := make(map[string]domain.Bookmark, len(user.Resources))
	for id, bm := range user.Resources {
		out[id] = bm
	}
	return out, nil
}

// AddBookmark stores a new bookmark under the user's collection and returns
// its generated id. Ids only need to be unique within this one user's map.
func (s *Store) AddBookmark(username, url, nickname string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return "", domain.ErrNotFound
	}

	var id string
	for {
		v, err := randomID(bookmarkIDBytes)
		if err != nil {
			return "", fmt.Errorf("generate bookmark id: %w", err)
		}
		if _, taken := user.Resources[v]; !taken {
			id = v
			break
		}
	}

	user.Resources[id] = domain.Bookmark{URL: url, Nickname: nickname}
	s.flushLocked()
	return id, nil
}

// RenameBookmark updates the nickname of an existing bookmark. The id is
// resolved only inside this user's map, so another user's id is simply
// not found.
func (s *Store) RenameBookmark(username, id, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	bm, ok := user.Resources[id]
	if !ok {
		return domain.ErrNotFound
	}

	bm.Nickname = nickname
	user.Resources[id] = bm
	s.flushLocked()
	return nil
}

// RemoveBookmark deletes a bookmark from the user's collection.
func (s *Store) RemoveBookmark(username, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := user.Resources[id]; !ok {
		return domain.ErrNotFound
	}

	delete(user.Resources, id)
	s.flushLocked()
	return nil
}
