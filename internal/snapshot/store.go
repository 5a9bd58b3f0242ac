package snapshot

import (
	"context"
	"errors"

	"linkvault/internal/domain"
)

// ErrNotExist is returned by Load when no snapshot has ever been saved.
// Callers fall back to the bootstrap default instead of failing.
var ErrNotExist = errors.New("snapshot does not exist")

// Store persists the whole application state. Save overwrites the previous
// snapshot entirely; there is no append or diff format.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

func normalize(snap domain.Snapshot) domain.Snapshot {
	if snap.Users == nil {
		snap.Users = map[string]domain.UserRecord{}
	}
	if snap.Sessions == nil {
		snap.Sessions = map[string]domain.Session{}
	}
	for name, user := range snap.Users {
		if user.Resources == nil {
			user.Resources = map[string]domain.Bookmark{}
			snap.Users[name] = user
		}
	}
	return snap
}
