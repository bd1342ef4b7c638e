// Package sessions stores the single live refresh token for each user.
package sessions

import (
	"context"
	"strconv"
	"time"
)

// Store is a key/value store with per-key expiry. Writes overwrite; the last writer wins.
type Store interface {
	// Set stores value under key, replacing any previous value, for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value under key. found is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Delete removes key and reports how many keys were removed.
	Delete(ctx context.Context, key string) (int64, error)
}

// UserKey is the store key holding the refresh token of a user.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
