package xtime

import "time"

// UTCNow returns the current time in UTC. Timestamps that end up persisted
// or compared go through this so they are consistent regardless of the
// server's location.
func UTCNow() time.Time {
	return time.Now().UTC()
}
