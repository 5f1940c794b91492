package world

import (
	"context"
	"sync"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Builder creates the world for run idx.
type Builder func(idx int) (*World, error)

// Ensemble runs independent worlds in parallel, one goroutine per world.
// Worlds share nothing, so each keeps the single-threaded tick model.
type Ensemble struct {
	build   Builder
	numRuns int
}

func NewEnsemble(build Builder, numRuns int) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, duration float64) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			defer w.Close()

			results[idx], errs[idx] = w.Run(ctx, duration)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
