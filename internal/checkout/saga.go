package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Step is one forward action of the order saga. Compensate undoes it and may be nil.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepObserver receives the outcome of every executed action.
type StepObserver func(step string, elapsed time.Duration, err error)

// SagaError reports the failed step and the outcome of the rollback.
type SagaError struct {
	Step            string
	Err             error
	Compensated     []string
	CompensationErr error
}

func (e *SagaError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("step %s failed: %v (compensation failed: %v)", e.Step, e.Err, e.CompensationErr)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

// RunSaga executes steps in order. When one fails, the compensations of the
// steps that already succeeded run in reverse order; their errors are
// collected on the returned *SagaError and do not stop the rollback.
func RunSaga(ctx context.Context, steps []Step, observe StepObserver) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		start := time.Now()
		err := step.Action(ctx)
		if observe != nil {
			observe(step.Name, time.Since(start), err)
		}
		if err == nil {
			done = append(done, step)
			continue
		}

		sagaErr := &SagaError{Step: step.Name, Err: err}
		rollbackCtx := context.WithoutCancel(ctx)
		for i := len(done) - 1; i >= 0; i-- {
			if done[i].Compensate == nil {
				continue
			}
			if cerr := done[i].Compensate(rollbackCtx); cerr != nil {
				sagaErr.CompensationErr = multierr.Append(sagaErr.CompensationErr, fmt.Errorf("%s: %w", done[i].Name, cerr))
				continue
			}
			sagaErr.Compensated = append(sagaErr.Compensated, done[i].Name)
		}
		return sagaErr
	}
	return nil
}
