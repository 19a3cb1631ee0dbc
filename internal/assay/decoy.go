package assay

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openmrm/assaygen/internal/chem"
)

// Seed selects the pseudorandom source for decoy generation: a fixed seed
// for reproducible output, or the wall clock for deliberately irreproducible
// output.
type Seed struct {
	fixed     uint64
	fromClock bool
}

// FixedSeed returns a reproducible seed: the same seed and input produce
// bit-identical decoy sequences across runs.
func FixedSeed(v uint64) Seed {
	return Seed{fixed: v}
}

// ClockSeed returns a seed derived from wall-clock time at generation start.
// Output is irreproducible by design.
func ClockSeed() Seed {
	return Seed{fromClock: true}
}

func (s Seed) source() *rand.Rand {
	if s.fromClock {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(s.fixed)))
}

// maxShuffleAttempts bounds regeneration when a shuffle reproduces the
// target or collides with an already assigned decoy.
const maxShuffleAttempts = 30

// shuffleSequence returns a pseudorandom permutation of the residues of seq.
func shuffleSequence(seq string, rng *rand.Rand) string {
	residues := []byte(seq)
	rng.Shuffle(len(residues), func(i, j int) {
		residues[i], residues[j] = residues[j], residues[i]
	})
	return string(residues)
}

// randomSequence draws a sequence of the given length uniformly from the
// standard amino-acid alphabet. Fallback for degenerate targets whose
// shuffles cannot escape the original (e.g. homopolymers).
func randomSequence(length int, rng *rand.Rand) string {
	residues := make([]byte, length)
	for i := range residues {
		residues[i] = chem.Alphabet[rng.Intn(len(chem.Alphabet))]
	}
	return string(residues)
}

// generateDecoySequences produces one decoy per distinct target stripped
// sequence in the sequence map. Repeated targets across windows and peptides
// reuse the same decoy. Every decoy differs from its target; collisions
// between decoys of distinct targets are avoided within a bounded number of
// attempts.
func generateDecoySequences(sequenceMap SequenceMap, seed Seed, logger *zap.Logger) map[string]string {
	targets := make(map[string]struct{})
	for key := range sequenceMap {
		targets[key.Sequence] = struct{}{}
	}

	// Draw in sorted target order so a fixed seed yields identical decoys
	// regardless of map iteration order.
	ordered := make([]string, 0, len(targets))
	for seq := range targets {
		ordered = append(ordered, seq)
	}
	sort.Strings(ordered)

	rng := seed.source()
	decoys := make(map[string]string, len(ordered))
	assigned := make(map[string]struct{}, len(ordered))

	for _, target := range ordered {
		decoy := shuffleSequence(target, rng)
		for attempt := 0; attempt < maxShuffleAttempts && collides(decoy, target, assigned); attempt++ {
			decoy = shuffleSequence(target, rng)
		}
		// Shuffling a degenerate sequence may never escape the target;
		// fall back to fresh uniform draws of the same length.
		for attempt := 0; attempt < maxShuffleAttempts && collides(decoy, target, assigned); attempt++ {
			decoy = randomSequence(len(target), rng)
		}
		if decoy == target {
			logger.Warn("could not generate decoy distinct from target, skipping",
				zap.String("sequence", target))
			continue
		}
		if _, taken := assigned[decoy]; taken {
			logger.Warn("decoy collides with another target's decoy",
				zap.String("sequence", target),
				zap.String("decoy", decoy))
		}
		decoys[target] = decoy
		assigned[decoy] = struct{}{}
	}
	return decoys
}

func collides(decoy, target string, assigned map[string]struct{}) bool {
	if decoy == target {
		return true
	}
	_, taken := assigned[decoy]
	return taken
}
