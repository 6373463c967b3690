package vasculens

import (
	"math/rand"
	"time"
)

// The engine's only source of nondeterminism is this PRNG (spec §5); its
// state is process-local and owned by the DemandMap. The spec leaves the
// concrete generator unspecified ("any uniform generator with seedable
// state suffices" — spec.md §1 Out of scope), so this uses the standard
// library's math/rand rather than a third-party generator.
func newSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// nondeterministicSeed is used when --rs <= 0: the original falls back to
// a CPU-time-derived seed in that case, so this does the equivalent with
// the wall clock.
func nondeterministicSeed() int64 {
	return time.Now().UnixNano()
}
