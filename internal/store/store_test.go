package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
)

// fakePersister records every saved snapshot so tests can assert on what
// reached durable storage.
type fakePersister struct {
	mu    sync.Mutex
	saves []domain.Snapshot
}

func (f *fakePersister) Load(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, nil
}

func (f *fakePersister) Save(_ context.Context, snap domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, snap)
	return nil
}

func (f *fakePersister) last(t *testing.T) domain.Snapshot {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.saves)
	return f.saves[len(f.saves)-1]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakePersister, *testClock) {
	t.Helper()
	persister := &fakePersister{}
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	st := New(Options{
		Snapshot:  domain.Bootstrap("admin", "7197", clock.Now()),
		Persister: persister,
		Now:       clock.Now,
	})
	t.Cleanup(st.Close)
	return st, persister, clock
}

func TestCreateUserAndLookup(t *testing.T) {
	st, _, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("bob", false))

	user, err := st.Lookup("bob")
	require.NoError(t, err)
	assert.Nil(t, user.PIN)
	assert.Nil(t, user.CreatedAt)
	assert.False(t, user.IsAdmin)
	assert.Empty(t, user.Resources)
}

func TestCreateUserConflict(t *testing.T) {
	st, _, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("bob", false))
	assert.ErrorIs(t, st.CreateUser("bob", true), domain.ErrConflict)
	assert.ErrorIs(t, st.CreateUser("admin", false), domain.ErrConflict)
}

func TestLookupUnknown(t *testing.T) {
	st, _, _ := newTestStore(t)

	_, err := st.Lookup("nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaimPIN(t *testing.T) {
	st, _, clock := newTestStore(t)

	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.ClaimPIN("bob", "1234"))

	user, err := st.Lookup("bob")
	require.NoError(t, err)
	require.NotNil(t, user.PIN)
	assert.Equal(t, "1234", *user.PIN)
	require.NotNil(t, user.CreatedAt)
	assert.Equal(t, clock.Now().Unix(), *user.CreatedAt)

	// claim signals the caller to issue the first session
	token, err := st.IssueSession("bob")
	require.NoError(t, err)
	username, err := st.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", username)
}

func TestClaimPINAlreadyClaimed(t *testing.T) {
	st, _, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.ClaimPIN("bob", "1234"))

	assert.ErrorIs(t, st.ClaimPIN("bob", "5678"), domain.ErrAlreadyClaimed)

	user, err := st.Lookup("bob")
	require.NoError(t, err)
	assert.Equal(t, "1234", *user.PIN)
}

func TestClaimPINFormat(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	for _, pin := range []string{"12a4", "123", "12345", "", "12 4", "๑๒๓๔"} {
		assert.ErrorIs(t, st.ClaimPIN("bob", pin), domain.ErrInvalidPin, "pin %q", pin)
	}

	user, err := st.Lookup("bob")
	require.NoError(t, err)
	assert.Nil(t, user.PIN, "failed claims must leave the user unclaimed")
	assert.Nil(t, user.CreatedAt)
}

func TestClaimPINUnknownUser(t *testing.T) {
	st, _, _ := newTestStore(t)
	assert.ErrorIs(t, st.ClaimPIN("nobody", "1234"), domain.ErrNotFound)
}

func TestVerifyPIN(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	assert.ErrorIs(t, st.VerifyPIN("bob", "1234"), domain.ErrPinNotSet)

	require.NoError(t, st.ClaimPIN("bob", "1234"))
	assert.NoError(t, st.VerifyPIN("bob", "1234"))
	assert.ErrorIs(t, st.VerifyPIN("bob", "4321"), domain.ErrIncorrectPin)
	assert.ErrorIs(t, st.VerifyPIN("nobody", "1234"), domain.ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.ClaimPIN("bob", "1234"))

	newPin := "9999"
	isAdmin := true
	require.NoError(t, st.UpdateUser("bob", &newPin, &isAdmin))

	user, err := st.Lookup("bob")
	require.NoError(t, err)
	assert.Equal(t, "9999", *user.PIN)
	assert.True(t, user.IsAdmin)

	bad := "12a4"
	assert.ErrorIs(t, st.UpdateUser("bob", &bad, nil), domain.ErrInvalidPin)
	assert.ErrorIs(t, st.UpdateUser("nobody", &newPin, nil), domain.ErrNotFound)

	// partial update: nil fields leave the record untouched
	require.NoError(t, st.UpdateUser("bob", nil, nil))
	user, err = st.Lookup("bob")
	require.NoError(t, err)
	assert.Equal(t, "9999", *user.PIN)
	assert.True(t, user.IsAdmin)
}

func TestDeleteUserCascadesSessions(t *testing.T) {
	st, _, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("carol", false))
	require.NoError(t, st.ClaimPIN("carol", "9999"))
	token, err := st.IssueSession("carol")
	require.NoError(t, err)

	require.NoError(t, st.DeleteUser("carol", "admin"))

	_, err = st.Lookup("carol")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestDeleteUserSelfForbidden(t *testing.T) {
	st, _, _ := newTestStore(t)

	assert.ErrorIs(t, st.DeleteUser("admin", "admin"), domain.ErrSelfDeleteForbidden)

	_, err := st.Lookup("admin")
	assert.NoError(t, err)
}

func TestDeleteUserUnknown(t *testing.T) {
	st, _, _ := newTestStore(t)
	assert.ErrorIs(t, st.DeleteUser("nobody", "admin"), domain.ErrNotFound)
}

func TestLookupReturnsCopy(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))
	_, err := st.AddBookmark("bob", "https://example.com", "example")
	require.NoError(t, err)

	first, err := st.Lookup("bob")
	require.NoError(t, err)
	for id := range first.Resources {
		delete(first.Resources, id)
	}

	second, err := st.Lookup("bob")
	require.NoError(t, err)
	assert.Len(t, second.Resources, 1, "mutating a returned record must not leak into the store")
}

func TestListUsers(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.CreateUser("carol", true))

	users := st.ListUsers()
	assert.Len(t, users, 3)
	assert.Contains(t, users, "admin")
	assert.Contains(t, users, "bob")
	assert.Contains(t, users, "carol")
	assert.True(t, users["carol"].IsAdmin)

	again := st.ListUsers()
	assert.Equal(t, users, again, "repeated reads with no mutation must match")
}

func TestMutationsReachPersister(t *testing.T) {
	st, persister, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.ClaimPIN("bob", "1234"))

	// Close drains the flush queue and performs the final synchronous save.
	st.Close()

	snap := persister.last(t)
	require.Contains(t, snap.Users, "bob")
	require.NotNil(t, snap.Users["bob"].PIN)
	assert.Equal(t, "1234", *snap.Users["bob"].PIN)
	assert.Contains(t, snap.Users, "admin")
}

func TestDeletedSessionsLeavePersistedSnapshot(t *testing.T) {
	st, persister, _ := newTestStore(t)

	require.NoError(t, st.CreateUser("carol", false))
	require.NoError(t, st.ClaimPIN("carol", "9999"))
	_, err := st.IssueSession("carol")
	require.NoError(t, err)
	require.NoError(t, st.DeleteUser("carol", "admin"))

	st.Close()

	snap := persister.last(t)
	assert.NotContains(t, snap.Users, "carol")
	assert.Empty(t, snap.Sessions)
}
