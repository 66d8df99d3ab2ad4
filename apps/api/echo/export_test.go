package echoapi

import "time"

// SetClock replaces the server clock until the returned func is called.
func SetClock(clock func() time.Time) (restore func()) {
	prev := now
	now = clock
	return func() { now = prev }
}

// SessionCookieName is exported for the portal tests.
const SessionCookieName = sessionCookieName
