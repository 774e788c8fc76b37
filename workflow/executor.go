// ABOUTME: Runs workflow steps strictly in order and merges their updates
// ABOUTME: Failures either continue to the next step or halt the run, per policy
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrorPolicy decides what happens after a step fails.
type ErrorPolicy string

const (
	ContinueOnError ErrorPolicy = "continue"
	HaltOnError     ErrorPolicy = "halt"
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ContinueOnError):
		return ContinueOnError, nil
	case string(HaltOnError):
		return HaltOnError, nil
	}
	return "", fmt.Errorf("unknown error policy %q", s)
}

// StepError is returned by a halted run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	Name     string        `json:"name" yaml:"name"`
	Status   StepStatus    `json:"status" yaml:"status"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Run is the record of one pass through the workflow.
type Run struct {
	ID         string       `json:"id" yaml:"id"`
	Policy     ErrorPolicy  `json:"policy" yaml:"policy"`
	State      State        `json:"state" yaml:"state"`
	Steps      []StepResult `json:"steps" yaml:"steps"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Halted     bool         `json:"halted" yaml:"halted"`
}

// Failed reports whether any step failed.
func (r *Run) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

type Executor struct {
	steps  []Step
	policy ErrorPolicy
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Executor)

func WithPolicy(p ErrorPolicy) Option {
	return func(e *Executor) {
		if p != "" {
			e.policy = p
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(steps []Step, opts ...Option) *Executor {
	e := &Executor{
		steps:  steps,
		policy: ContinueOnError,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("workflow")
	return e
}

func (e *Executor) Policy() ErrorPolicy { return e.policy }

// StepNames returns the step names in execution order.
func (e *Executor) StepNames() []string {
	names := make([]string, len(e.steps))
	for i, s := range e.steps {
		names[i] = s.Name()
	}
	return names
}

// Run executes every step once, in order. Under HaltOnError the first failure
// stops the run and is returned as *StepError; the partial run is returned too.
func (e *Executor) Run(ctx context.Context) (*Run, error) {
	started := e.now()
	run := &Run{
		ID:        ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()).String(),
		Policy:    e.policy,
		StartedAt: started,
	}
	log := e.logger.With(zap.String("run_id", run.ID))
	log.Info("workflow started", zap.String("policy", string(e.policy)), zap.Int("steps", len(e.steps)))

	for i, step := range e.steps {
		stepStart := e.now()
		update, err := step.Run(ctx, run.State)
		if mergeErr := run.State.Merge(update); mergeErr != nil && err == nil {
			err = mergeErr
		}

		result := StepResult{Name: step.Name(), Status: StepOK, Duration: e.now().Sub(stepStart)}
		if err != nil {
			result.Status = StepFailed
			result.Error = err.Error()
			log.Warn("step failed", zap.String("step", step.Name()), zap.Error(err))
		} else {
			log.Debug("step completed", zap.String("step", step.Name()))
		}
		run.Steps = append(run.Steps, result)

		if err != nil && e.policy == HaltOnError {
			for _, rest := range e.steps[i+1:] {
				run.Steps = append(run.Steps, StepResult{Name: rest.Name(), Status: StepSkipped})
			}
			run.Halted = true
			run.FinishedAt = e.now()
			log.Info("workflow halted", zap.String("step", step.Name()))
			return run, &StepError{Step: step.Name(), Err: err}
		}
	}

	run.FinishedAt = e.now()
	log.Info("workflow finished", zap.Bool("failed", run.Failed()))
	return run, nil
}
