// Package supervisor runs long-lived tasks side by side and stops all of them
// as soon as any one returns.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"github.com/oklog/run"
)

const (
	ErrTaskExited   = errors.ErrorCode("task_exited")
	ErrTaskPanicked = errors.ErrorCode("task_panicked")
)

func init() {
	errors.RegisterMessage(ErrTaskExited, "Task exited unexpectedly")
	errors.RegisterMessage(ErrTaskPanicked, "Task panicked")
}

// Task is a unit of work expected to run until its context is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// TaskExit describes the task whose completion stopped the group.
type TaskExit struct {
	Task  string
	Cause error
}

func (e TaskExit) String() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s returned", e.Task)
	}
	return fmt.Sprintf("%s: %v", e.Task, e.Cause)
}

type Supervisor struct {
	tasks   []Task
	signals []os.Signal
	logger  logger.Logger
}

// New returns a supervisor for the given tasks that also stops cleanly on
// SIGINT and SIGTERM.
func New(log logger.Logger, tasks ...Task) *Supervisor {
	return &Supervisor{
		tasks:   tasks,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		logger:  log,
	}
}

// Run starts every task and blocks until the first one returns, then
// cancels the rest and waits for them. A task returning for any reason,
// including a panic, is reported as ErrTaskExited. Run returns nil only when
// shutdown was requested by a signal or by cancelling ctx.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	for _, task := range s.tasks {
		task := task
		g.Add(func() error {
			err := s.execute(ctx, task)
			if ctx.Err() != nil {
				return nil
			}
			return errors.New().Wrap(ErrTaskExited, err).WithData(TaskExit{Task: task.Name, Cause: err})
		}, func(error) {
			cancel()
		})
	}

	if len(s.signals) > 0 {
		g.Add(run.SignalHandler(ctx, s.signals...))
	}

	err := g.Run()

	var sig run.SignalError
	switch {
	case errors.As(err, &sig):
		s.logger.Info().Str("signal", sig.Signal.String()).Msg("Received termination signal")
		return nil
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	default:
		s.logger.Error().Err(err).Msg("Supervised task completed unexpectedly")
		return err
	}
}

func (s *Supervisor) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(ErrTaskPanicked, fmt.Sprintf("%s: %v", task.Name, r))
		}
	}()

	s.logger.Debug().Str("task", task.Name).Msg("Task started")
	return task.Run(ctx)
}
