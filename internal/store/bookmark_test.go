package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
)

func TestAddAndListBookmarks(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	id, err := st.AddBookmark("bob", "https://example.com", "example")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	urls, err := st.Bookmarks("bob")
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, domain.Bookmark{URL: "https://example.com", Nickname: "example"}, urls[id])
}

func TestBookmarkIDsUniquePerUser(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		id, err := st.AddBookmark("bob", "https://example.com", "example")
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "bookmark id %q generated twice", id)
		seen[id] = struct{}{}
	}
}

func TestRenameBookmark(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	id, err := st.AddBookmark("bob", "https://example.com", "example")
	require.NoError(t, err)

	require.NoError(t, st.RenameBookmark("bob", id, "work"))

	urls, err := st.Bookmarks("bob")
	require.NoError(t, err)
	assert.Equal(t, "work", urls[id].Nickname)
	assert.Equal(t, "https://example.com", urls[id].URL, "rename must not touch the url")

	assert.ErrorIs(t, st.RenameBookmark("bob", "missing", "x"), domain.ErrNotFound)
}

func TestRemoveBookmark(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))

	id, err := st.AddBookmark("bob", "https://example.com", "example")
	require.NoError(t, err)

	require.NoError(t, st.RemoveBookmark("bob", id))

	urls, err := st.Bookmarks("bob")
	require.NoError(t, err)
	assert.Empty(t, urls)

	assert.ErrorIs(t, st.RemoveBookmark("bob", id), domain.ErrNotFound)
}

func TestBookmarkOwnershipIsolation(t *testing.T) {
	st, _, _ := newTestStore(t)
	require.NoError(t, st.CreateUser("bob", false))
	require.NoError(t, st.CreateUser("carol", false))

	bobsID, err := st.AddBookmark("bob", "https://example.com", "example")
	require.NoError(t, err)

	carols, err := st.Bookmarks("carol")
	require.NoError(t, err)
	assert.Empty(t, carols, "bob's bookmarks must not be visible to carol")

	// another user's id simply does not resolve
	assert.ErrorIs(t, st.RenameBookmark("carol", bobsID, "stolen"), domain.ErrNotFound)
	assert.ErrorIs(t, st.RemoveBookmark("carol", bobsID), domain.ErrNotFound)

	bobs, err := st.Bookmarks("bob")
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}

func TestBookmarksUnknownUser(t *testing.T) {
	st, _, _ := newTestStore(t)

	_, err := st.Bookmarks("nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.AddBookmark("nobody", "https://example.com", "example")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
