// Package shuffle reorders questions and choices reproducibly from a seed.
package shuffle

import (
	"math/rand/v2"

	"github.com/pavelanni/examgen/internal/model"
)

// Options selects which orderings are permuted.
type Options struct {
	Questions bool
	Choices   bool
}

// Shuffler owns the pseudorandom source for one exam run. The same source
// feeds the question shuffle and every choice shuffle, so it must not be
// shared between runs.
type Shuffler struct {
	rng *rand.Rand
}

// New returns a Shuffler seeded with seed.
func New(seed int64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Apply returns a reordered copy of set. Questions are shuffled first, then
// the choices of each question in ascending (post-shuffle) order.
func (s *Shuffler) Apply(set model.ExamSet, opts Options) model.ExamSet {
	out := set.Clone()
	if opts.Questions {
		qs := out.Questions
		s.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}
	if opts.Choices {
		for i := range out.Questions {
			cs := out.Questions[i].Choices
			s.rng.Shuffle(len(cs), func(a, b int) { cs[a], cs[b] = cs[b], cs[a] })
		}
	}
	return out
}
