package compiler

import (
	"runtime"
	"sync"

	"github.com/termfx/nml/internal/cache"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/unit"
)

// Result is one unit's compilation outcome.
type Result struct {
	Unit    *unit.Unit
	Output  *Output
	Reports []diagnostic.Report
	Err     error
}

// CompileAll compiles every unit in units against target, using a
// bounded pool of workers (runtime.NumCPU if numWorkers <= 0). Each
// unit gets its own Context sharing resolver, since section/refcount
// numbering is scoped per document, not per compilation. Every unit's
// deferred rendering tasks are run only after every unit in the batch
// has finished its own tree walk, so a slow deferred render in one
// unit never delays another unit's own compilation from starting.
func CompileAll(units []*unit.Unit, target Target, resolver *cache.Resolver, numWorkers int) []Result {
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}

	jobs := make(chan *unit.Unit)
	results := make([]Result, len(units))
	indices := make(map[*unit.Unit]int, len(units))
	for i, u := range units {
		indices[u] = i
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				ctx := NewContext(target, resolver)
				reports := ResolveLinks(u, ctx)
				out, compileReports := CompileUnit(u, ctx)
				reports = append(reports, compileReports...)

				mu.Lock()
				results[indices[u]] = Result{Unit: u, Output: out, Reports: reports}
				mu.Unlock()
			}
		}()
	}

	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	wg.Wait()

	for i := range results {
		for _, err := range results[i].Output.RunDeferred() {
			results[i].Reports = append(results[i].Reports, *diagnostic.NewError(results[i].Unit.Source(), "deferred render failed").
				WithNote(err.Error()))
		}
	}

	return results
}
