// Package services contains server-side business logic. Each service maps
// one inbound action to reads and writes through the repositories; multi-row
// writes and check-then-act sequences run inside dbx.Store.WithTx.
package services

import (
	"time"
)

// Clock returns the current time. Services stamp rows with it so tests can
// pin time.
type Clock func() time.Time

// utcNow matches what TIMESTAMPTZ round-trips: UTC, microsecond precision.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
