package transfer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cleverdata/haul/internal/config"
)

// ProgressFunc receives one human-readable message per completed operation.
// Fire-and-forget; there is no structured payload and no backpressure.
type ProgressFunc func(message string)

// ExecuteOperations dispatches every operation for parallel execution on a
// worker pool sized to the available CPUs, resolving each operation's
// effective rate limit against the global one. It blocks until all
// operations have run to completion; there is no cancellation. The returned
// collection holds exactly one result per input operation, in completion
// order, not input order.
func ExecuteOperations(operations []config.FileOperation, global config.RateLimit, progress ProgressFunc) []OperationResult {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]OperationResult, 0, len(operations))
	)

	for _, op := range operations {
		wg.Add(1)
		go func(op config.FileOperation) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := executeOperation(op, global)

			// The lock guards only the append; the transfer itself ran
			// outside it.
			mu.Lock()
			results = append(results, res)
			mu.Unlock()

			if progress != nil {
				progress(fmt.Sprintf("Completed: %s", op.Name))
			}
		}(op)
	}

	wg.Wait()
	return results
}
