package params

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single expression evaluation.
// Dimension expressions are tiny; anything that runs this long is a
// runaway loop in user code.
const EvalTimeout = 2 * time.Second

// evalResult is the internal type used to pass evaluation results through
// channels.
type evalResult struct {
	value float64
	err   error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds EvalTimeout. It uses a generation counter to
// discard stale results from superseded evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (float64, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return 0, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.value, res.err

	case <-timer.C:
		return 0, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
