package worker

import (
	"math/rand"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// nextBackoff returns the delay before the given retry attempt:
// exponential from the base, capped, plus up to 250ms of jitter so a
// burst of failures does not retry in lockstep.
func nextBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := backoffBase

	for i := 0; i < attempt; i++ {
		d *= 2

		if d >= backoffCap {
			d = backoffCap
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(250 * time.Millisecond)))

	return d + jitter
}
