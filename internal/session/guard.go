// Package session provides the inactivity guard consulted before forcing a
// re-login.
package session

import "time"

// InactivityTimeout is the fixed window after which a session is considered
// stale.
const InactivityTimeout = 30 * time.Minute

// Expired reports whether the last recorded activity has aged past the
// timeout. The boundary is strict: a session exactly InactivityTimeout old is
// still live. A zero lastActivity counts as expired.
func Expired(lastActivity, now time.Time) bool {
	if lastActivity.IsZero() {
		return true
	}
	return now.Sub(lastActivity) > InactivityTimeout
}

// ExpiredAtMillis is the epoch-milliseconds form of Expired, matching the
// representation stored under the lastUserActivity key.
func ExpiredAtMillis(lastActivityMillis int64, now time.Time) bool {
	if lastActivityMillis <= 0 {
		return true
	}
	return Expired(time.UnixMilli(lastActivityMillis), now)
}
