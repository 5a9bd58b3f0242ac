package domain

import (
	"regexp"
	"time"
)

// Bookmark is a single named URL owned by a user.
type Bookmark struct {
	URL      string `json:"url"`
	Nickname string `json:"nickname"`
}

// UserRecord holds one user's credentials, role, and owned bookmarks.
// A nil PIN means the account is provisioned but unclaimed: the first
// login must set the PIN. CreatedAt is stamped once, when the PIN is set.
type UserRecord struct {
	PIN       *string             `json:"pin"`
	CreatedAt *int64              `json:"created_at"`
	IsAdmin   bool                `json:"is_admin"`
	Resources map[string]Bookmark `json:"resources"`
}

// Claimed reports whether the user has set a PIN.
func (u UserRecord) Claimed() bool {
	return u.PIN != nil
}

// Session is an issued bearer credential. Username is a soft reference;
// deleting the user removes every session pointing at it.
type Session struct {
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// Snapshot is the whole persisted state: every user keyed by username and
// every live session keyed by token. It is rewritten in full on each save.
type Snapshot struct {
	Users    map[string]UserRecord `json:"users"`
	Sessions map[string]Session    `json:"sessions"`
}

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ValidPIN reports whether pin is exactly four decimal digits.
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// Bootstrap returns the default state used when no snapshot exists yet:
// a single admin user with a pre-set PIN and no sessions.
func Bootstrap(adminUsername, adminPIN string, now time.Time) Snapshot {
	pin := adminPIN
	created := now.Unix()
	return Snapshot{
		Users: map[string]UserRecord{
			adminUsername: {
				PIN:       &pin,
				CreatedAt: &created,
				IsAdmin:   true,
				Resources: map[string]Bookmark{},
			},
		},
		Sessions: map[string]Session{},
	}
}
