package application

import (
	"time"

	"assembleia/contexts/governance/assembly-voting/ports"
)

// Now reads the clock once per operation at second precision.
func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC().Truncate(time.Second)
	}
	return clock.Now().UTC().Truncate(time.Second)
}
