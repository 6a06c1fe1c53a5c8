package memory

import "time"

func utcNow() time.Time { return time.Now().UTC() }

// newerFirst orders by timestamp descending, then id ascending.
func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID < bID
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
