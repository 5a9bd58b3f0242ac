package store

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"linkvault/internal/domain"
	"linkvault/internal/snapshot"
)

const defaultTokenTTL = 24 * time.Hour

// Options configures a Store.
type Options struct {
	// Snapshot is the initial state, loaded from storage or bootstrapped.
	Snapshot domain.Snapshot
	// Persister receives the full snapshot after every mutation. May be nil.
	Persister snapshot.Store
	TokenTTL  time.Duration
	Logger    *logrus.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store owns all mutable state: user records and their bookmarks, plus the
// active sessions. Every operation takes the single mutex, so reads and
// read-modify-writes never interleave. Mutations enqueue a copy of the whole
// snapshot onto a single-writer flush queue; the caller gets its result back
// before the durable write completes, and a crash in that window loses the
// mutation. Save failures are logged and never rolled back.
type Store struct {
	mu       sync.Mutex
	users    map[string]*domain.UserRecord
	sessions map[string]domain.Session

	persister snapshot.Store
	tokenTTL  time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	flushCh   chan domain.Snapshot
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Store from the given snapshot and starts its flush worker.
func New(opts Options) *Store {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		users:     make(map[string]*domain.UserRecord, len(opts.Snapshot.Users)),
		sessions:  make(map[string]domain.Session, len(opts.Snapshot.Sessions)),
		persister: opts.Persister,
		tokenTTL:  opts.TokenTTL,
		logger:    opts.Logger,
		now:       opts.Now,
		flushCh:   make(chan domain.Snapshot, 1),
		quit:      make(chan struct{}),
	}

	for name, user := range opts.Snapshot.Users {
		u := user
		if u.Resources == nil {
			u.Resources = map[string]domain.Bookmark{}
		}
		s.users[name] = &u
	}
	for token, sess := range opts.Snapshot.Sessions {
		s.sessions[token] = sess
	}

	s.wg.Add(1)
	go s.flushLoop()
	return s
}

// Close stops the flush worker, draining any pending write, and performs a
// final synchronous save so shutdown never loses acknowledged mutations.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()

		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.persist(snap)
	})
}

// Lookup returns a copy of the user record for the given username.
func (s *Store) Lookup(username string) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	return copyUser(user), nil
}

// ListUsers returns a copy of every user record keyed by username.
func (s *Store) ListUsers() map[string]domain.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.UserRecord, len(s.users))
	for name, user := range s.users {
		out[name] = copyUser(user)
	}
	return out
}

// ClaimPIN performs the one-time unclaimed->claimed transition: it sets the
// PIN and stamps the creation time. The caller issues the first session.
func (s *Store) ClaimPIN(username, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	if user.PIN != nil {
		return domain.ErrAlreadyClaimed
	}
	if !domain.ValidPIN(pin) {
		return domain.ErrInvalidPin
	}

	value := pin
	created := s.now().Unix()
	user.PIN = &value
	user.CreatedAt = &created
	s.flushLocked()
	return nil
}

// VerifyPIN checks a login attempt against the stored PIN.
func (s *Store) VerifyPIN(username, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	if user.PIN == nil {
		return domain.ErrPinNotSet
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(*user.PIN)) != 1 {
		return domain.ErrIncorrectPin
	}
	return nil
}

// CreateUser provisions a new unclaimed account.
func (s *Store) CreateUser(username string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return domain.ErrConflict
	}

	s.users[username] = &domain.UserRecord{
		IsAdmin:   isAdmin,
		Resources: map[string]domain.Bookmark{},
	}
	s.flushLocked()
	return nil
}

// UpdateUser applies a partial update: a non-nil pin overwrites the stored
// PIN (it never clears it back to unclaimed), a non-nil isAdmin changes the
// role.
func (s *Store) UpdateUser(username string, pin *string, isAdmin *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	if pin != nil && !domain.ValidPIN(*pin) {
		return domain.ErrInvalidPin
	}

	if pin != nil {
		value := *pin
		user.PIN = &value
	}
	if isAdmin != nil {
		user.IsAdmin = *isAdmin
	}
	s.flushLocked()
	return nil
}

// DeleteUser removes a user record and revokes every session that references
// it, in the same locked operation, so no dangling session survives.
func (s *Store) DeleteUser(username, actingUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == actingUsername {
		return domain.ErrSelfDeleteForbidden
	}
	if _, ok := s.users[username]; !ok {
		return domain.ErrNotFound
	}

	delete(s.users, username)
	revoked := s.revokeSessionsLocked(username)
	s.logger.WithFields(logrus.Fields{
		"username": username,
		"sessions": revoked,
	}).Info("user deleted")
	s.flushLocked()
	return nil
}

// flushLocked snapshots the current state and hands it to the flush worker.
// The queue holds at most one pending snapshot; a newer one replaces it, so
// storage always converges on the latest state and writes never reorder.
func (s *Store) flushLocked() {
	snap := s.snapshotLocked()
	for {
		select {
		case s.flushCh <- snap:
			return
		default:
		}
		select {
		case <-s.flushCh:
		default:
		}
	}
}

func (s *Store) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case snap := <-s.flushCh:
			s.persist(snap)
		case <-s.quit:
			select {
			case snap := <-s.flushCh:
				s.persist(snap)
			default:
			}
			return
		}
	}
}

func (s *Store) persist(snap domain.Snapshot) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.Background(), snap); err != nil {
		s.logger.Warnf("save snapshot: %v", err)
	}
}

func (s *Store) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Users:    make(map[string]domain.UserRecord, len(s.users)),
		Sessions: make(map[string]domain.Session, len(s.sessions)),
	}
	for name, user := range s.users {
		snap.Users[name] = copyUser(user)
	}
	for token, sess := range s.sessions {
		snap.Sessions[token] = sess
	}
	return snap
}

func copyUser(user *domain.UserRecord) domain.UserRecord {
	out := *user
	if user.PIN != nil {
		v := *user.PIN
		out.PIN = &v
	}
	if user.CreatedAt != nil {
		v := *user.CreatedAt
		out.CreatedAt = &v
	}
	out.Resources = make(map[string]domain.Bookmark, len(user.Resources))
	for id, bm := range user.Resources {
		out.Resources[id] = bm
	}
	return out
}
