package probe

import (
	"math/rand/v2"
	"time"
)

// nextDelay returns the delay before the next probe attempt: the base
// interval plus a uniform random share of interval*jitter. Every scheduling
// decision draws fresh, so delays land in [interval, interval*(1+jitter)).
func nextDelay(interval time.Duration, jitter float64) time.Duration {
	return interval + time.Duration(float64(interval)*jitter*rand.Float64())
}
