package loginflow

import "time"

// NextLock returns how long the client should refuse new login attempts
// after the given number of consecutive failures. The lockout escalates
// 15s, 30s, 60s, then caps at five minutes. This is advisory UX
// throttling kept in browser-local state, not a security boundary.
func NextLock(failCount int) time.Duration {
	switch {
	case failCount <= 0:
		return 0
	case failCount == 1:
		return 15 * time.Second
	case failCount == 2:
		return 30 * time.Second
	case failCount == 3:
		return 60 * time.Second
	default:
		return 5 * time.Minute
	}
}
