package synth

import (
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gsynth/internal/sat"
	"gsynth/internal/topo"
)

// SynthesizeParallel searches one step-count generation at a time,
// fanning the generation's fences across workers. All workers of a
// generation terminate before the next is dispatched, so a published
// solution always has the minimal step count; on a success the cancel
// flag is set and remaining workers exit at their next poll. Ties
// within a generation go to the lowest worker id.
func SynthesizeParallel(spec *Spec, workers int) (*Chain, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if err := spec.prepare(); err != nil {
		return nil, err
	}
	if c, ok := spec.trivial(); ok {
		return c, nil
	}
	if err := spec.checkSynthesizable(); err != nil {
		return nil, err
	}

	sawTimeout := false
	for s := 1; s <= spec.MaxSteps; s++ {
		fences := fencesOf(s, spec.arity())
		spec.nrSteps = s
		if spec.Verbosity > 0 {
			log.Infof("generation %d: %d fences across %d workers", s, len(fences), workers)
		}

		var (
			mu       sync.Mutex
			next     int
			cancel   atomic.Bool
			timedOut atomic.Bool
			results  = make([]*Chain, workers)
		)
		var eg errgroup.Group
		for w := 0; w < workers; w++ {
			w := w
			eg.Go(func() error {
				solver := sat.New()
				for {
					if cancel.Load() {
						return nil
					}
					mu.Lock()
					if next >= len(fences) {
						mu.Unlock()
						return nil
					}
					f := fences[next]
					next++
					mu.Unlock()

					solver.Restart()
					enc := spec.newEncoder(solver)
					if !enc.encode(f) {
						continue
					}
					switch runCegar(enc, solver, spec, &cancel) {
					case attemptFound:
						results[w] = enc.extractChain()
						cancel.Store(true)
						if spec.Verbosity > 0 {
							log.Infof("worker %d found a %d-step chain", w, s)
						}
						return nil
					case attemptTimeout:
						timedOut.Store(true)
					}
				}
			})
		}
		_ = eg.Wait() // generation barrier

		for _, c := range results {
			if c != nil {
				return c, nil
			}
		}
		if timedOut.Load() {
			sawTimeout = true
		}
	}
	return nil, exhaustedErr(sawTimeout)
}

// fencesOf collects every fence with the given node count whose last
// level fits the root arity.
func fencesOf(nrNodes, arity int) []topo.Fence {
	gen := topo.NewPOFilter(topo.NewUnbounded(nrNodes), 1, arity)
	var out []topo.Fence
	for {
		f := gen.NextFence()
		if f.NrNodes() > nrNodes {
			return out
		}
		out = append(out, f)
	}
}
