package adapter

import (
	"sync"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// DecodeFailureCounter tracks how many datagrams the adapter has
// dropped, per CodecError.Kind (spec.md §4.3: "on Err, it drops the
// datagram and increments a counter"). Adapted from the teacher's
// sliding-window rate limiter: same mutex-guarded map shape, minus the
// per-source eviction and cooldown logic that only makes sense for a
// multicast storm scenario — here there is no source to penalize, only
// a failure class to count for the supervising binary's logs.
type DecodeFailureCounter struct {
	mu     sync.Mutex
	counts map[errcat.CodecKind]uint64
}

func NewDecodeFailureCounter() *DecodeFailureCounter {
	return &DecodeFailureCounter{counts: make(map[errcat.CodecKind]uint64)}
}

// Record increments the counter for err's kind. It is a no-op if err is
// not a *errcat.CodecError.
func (c *DecodeFailureCounter) Record(err error) {
	codecErr, ok := err.(*errcat.CodecError)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[codecErr.Kind]++
}

// Snapshot returns a copy of the current per-kind counts.
func (c *DecodeFailureCounter) Snapshot() map[errcat.CodecKind]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[errcat.CodecKind]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
