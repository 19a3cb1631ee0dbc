package assay

import (
	"runtime"
	"sync"

	"github.com/openmrm/assaygen/internal/experiment"
)

// annotateItem is one transition queued for reannotation, paired with its
// resolved peptide so workers never touch the experiment's peptide index.
type annotateItem struct {
	seq        int
	transition experiment.Transition
	peptide    *experiment.Peptide
}

// annotateResult is the outcome for a single transition. keep is false when
// the transition deviates from the fragmentation model beyond the thresholds.
type annotateResult struct {
	seq        int
	transition experiment.Transition
	keep       bool
	err        error
}

// annotateWorkers runs fn over items using a pool of workers. Results are
// sent in completion order, not queue order; use collectInOrder to consume
// them in sequence-number order. If workers is 0, runtime.NumCPU() is used.
func annotateWorkers(items <-chan annotateItem, workers int, fn func(annotateItem) annotateResult) <-chan annotateResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan annotateResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- fn(item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// collectInOrder calls fn for each result in sequence-number order. It
// buffers out-of-order results in a pending map and emits them as soon as
// the next expected sequence number is available. Blocks until the results
// channel is closed.
func collectInOrder(results <-chan annotateResult, fn func(annotateResult) error) error {
	pending := make(map[int]annotateResult)
	nextSeq := 0

	for r := range results {
		pending[r.seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
