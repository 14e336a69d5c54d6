// Package jobs launches commands as builtins or child processes, supervises
// them in the foreground or background and reaps them when they terminate.
package jobs

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/josephlewis42/minsh/core/logger"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Recorder stores job lifecycle events.
type Recorder interface {
	Record(eventType string, fields map[string]any) error
}

type nopRecorder struct{}

func (nopRecorder) Record(string, map[string]any) error { return nil }

// ShutdownPolicy decides what happens to background jobs still running when
// the interpreter exits.
type ShutdownPolicy string

const (
	// ShutdownOrphan leaves background jobs running.
	ShutdownOrphan ShutdownPolicy = "orphan"
	// ShutdownWait waits for background jobs to finish.
	ShutdownWait ShutdownPolicy = "wait"
	// ShutdownTerminate sends SIGTERM to background jobs, then waits.
	ShutdownTerminate ShutdownPolicy = "terminate"
)

// ParseShutdownPolicy converts a configuration value to a policy.
func ParseShutdownPolicy(s string) (ShutdownPolicy, error) {
	switch p := ShutdownPolicy(s); p {
	case ShutdownOrphan, ShutdownWait, ShutdownTerminate:
		return p, nil
	case "":
		return ShutdownOrphan, nil
	default:
		return "", zerr.With(zerr.New("unknown shutdown policy"), "policy", s)
	}
}

// Options configure an Engine.
type Options struct {
	Builtins map[string]Builtin
	// Env is the environment for new processes, nil means inherit.
	Env []string
	// NullStdin gives background jobs /dev/null as stdin.
	NullStdin bool
	Recorder  Recorder

	Shutdown ShutdownPolicy
	// ShutdownGrace bounds how long Shutdown waits, zero waits forever.
	ShutdownGrace time.Duration
}

// Engine runs commands and supervises the resulting jobs.
type Engine struct {
	launcher *Launcher
	registry *Registry
	queue    *Queue
	reaper   *Reaper
	recorder Recorder
	shutdown ShutdownPolicy
	grace    time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates an engine and installs its child reaper. Only one engine
// should exist per process since the reaper collects every child.
func New(opts Options) (*Engine, error) {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Shutdown == "" {
		opts.Shutdown = ShutdownOrphan
	}

	e := &Engine{
		launcher: &Launcher{
			Builtins:  opts.Builtins,
			Env:       opts.Env,
			NullStdin: opts.NullStdin,
		},
		registry: NewRegistry(),
		queue:    NewQueue(),
		recorder: opts.Recorder,
		shutdown: opts.Shutdown,
		grace:    opts.ShutdownGrace,
	}
	e.reaper = NewReaper(e.registry, e.queue, e.recordExit)

	if err := e.reaper.Start(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reports holds a termination report for every reaped child.
func (e *Engine) Reports() *Queue {
	return e.queue
}

// Live returns the jobs still running, oldest first.
func (e *Engine) Live() []*Job {
	return e.registry.Live()
}

// Foreground runs cmd and waits for it to finish. Builtins run in the
// calling goroutine. If ctx ends first the child keeps running and will be
// reported when it's reaped.
func (e *Engine) Foreground(ctx context.Context, cmd Command, stdio Stdio) (Termination, error) {
	cmd.Background = false
	plan, err := e.prepare(cmd)
	if err != nil {
		return Termination{}, err
	}

	if plan.Builtin != nil {
		return e.runBuiltin(cmd, plan, stdio)
	}

	job, err := e.spawn(cmd, plan, stdio)
	if err != nil {
		return Termination{}, err
	}
	return job.Wait(ctx)
}

// Background starts cmd and returns without waiting. Builtins that may run
// in the background finish before Background returns and yield a nil job.
//
// When a redirection target is a named pipe the process is created once the
// pipe opens, and the returned job's Launched channel is still open.
func (e *Engine) Background(cmd Command, stdio Stdio) (*Job, error) {
	cmd.Background = true
	plan, err := e.prepare(cmd)
	if err != nil {
		return nil, err
	}

	if plan.Builtin != nil {
		_, err := e.runBuiltin(cmd, plan, stdio)
		return nil, err
	}

	if plan.Redirects.MayBlock() {
		return e.spawnDeferred(cmd, plan, stdio), nil
	}
	return e.spawn(cmd, plan, stdio)
}

// Shutdown applies the shutdown policy to background jobs that are still
// running.
func (e *Engine) Shutdown(ctx context.Context) error {
	var background []*Job
	for _, j := range e.registry.Live() {
		if j.Background {
			background = append(background, j)
		}
	}
	if len(background) == 0 || e.shutdown == ShutdownOrphan {
		return nil
	}

	if e.shutdown == ShutdownTerminate {
		if err := e.registry.Signal(unix.SIGTERM, func(j *Job) bool { return j.Background }); err != nil {
			return zerr.Wrap(err, "terminating background jobs")
		}
	}

	if e.grace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.grace)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range background {
		g.Go(func() error {
			_, err := j.Wait(gctx)
			return err
		})
	}
	return g.Wait()
}

// Close stops the reaper. Jobs still running are no longer tracked.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.reaper.Stop()
	})
	return nil
}

func (e *Engine) prepare(cmd Command) (*Plan, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	plan, err := e.launcher.Prepare(cmd)
	if err != nil {
		e.recordFailure(cmd, err)
		return nil, err
	}
	return plan, nil
}

func (e *Engine) runBuiltin(cmd Command, plan *Plan, stdio Stdio) (Termination, error) {
	status, err := e.launcher.RunBuiltin(plan, stdio)
	if err != nil {
		e.recordFailure(cmd, err)
		return Termination{}, err
	}

	e.record(logger.EventBuiltin, map[string]any{
		logger.FieldCommand:  cmd.String(),
		logger.FieldName:     plan.Argv[0],
		logger.FieldExitCode: status,
	})
	return Termination{ExitCode: status, Builtin: true}, nil
}

func (e *Engine) spawn(cmd Command, plan *Plan, stdio Stdio) (*Job, error) {
	bound, opened, err := e.launcher.Bind(plan, stdio)
	if err != nil {
		e.recordFailure(cmd, err)
		return nil, err
	}
	defer opened.Close()

	job, err := e.registry.Spawn(plan.Argv, plan.Background, e.starter(plan, bound), e.onStarted(cmd, plan))
	if err != nil {
		e.recordFailure(cmd, err)
		return nil, err
	}
	e.reaper.Kick()
	return job, nil
}

// spawnDeferred reserves a job and creates its process from another
// goroutine once the redirection targets are open.
func (e *Engine) spawnDeferred(cmd Command, plan *Plan, stdio Stdio) *Job {
	job := e.registry.Reserve(plan.Argv, plan.Background)

	go func() {
		bound, opened, err := e.launcher.Bind(plan, stdio)
		if err != nil {
			e.recordFailure(cmd, err)
			job.fail(err)
			return
		}
		defer opened.Close()

		if e.closed.Load() {
			job.fail(ErrEngineClosed)
			return
		}
		if err := e.registry.Launch(job, e.starter(plan, bound), e.onStarted(cmd, plan)); err != nil {
			e.recordFailure(cmd, err)
			return
		}
		e.reaper.Kick()
	}()

	return job
}

func (e *Engine) starter(plan *Plan, bound Stdio) func() (*os.Process, error) {
	return func() (*os.Process, error) {
		return e.launcher.Start(plan, bound)
	}
}

func (e *Engine) onStarted(cmd Command, plan *Plan) func(*Job) {
	return func(job *Job) {
		e.record(logger.EventJobStarted, map[string]any{
			logger.FieldJobID:      job.ID,
			logger.FieldPid:        job.Pid,
			logger.FieldCommand:    cmd.String(),
			logger.FieldName:       plan.Argv[0],
			logger.FieldPath:       plan.Path,
			logger.FieldBackground: job.Background,
		})
	}
}

func (e *Engine) recordExit(t Termination, job *Job) {
	fields := map[string]any{
		logger.FieldPid:        t.Pid,
		logger.FieldJobID:      t.JobID,
		logger.FieldExitCode:   t.ExitCode,
		logger.FieldSignaled:   t.Signaled,
		logger.FieldBackground: t.Background,
	}
	if t.Signaled {
		fields[logger.FieldSignal] = t.SignalName()
	}
	if job != nil {
		fields[logger.FieldCommand] = job.String()
		fields[logger.FieldName] = job.Args[0]
		fields[logger.FieldDurationMillis] = time.Since(job.Started).Milliseconds()
	}
	e.record(logger.EventJobExited, fields)
}

func (e *Engine) recordFailure(cmd Command, err error) {
	e.record(logger.EventCommandFailed, map[string]any{
		logger.FieldCommand: cmd.String(),
		logger.FieldName:    cmd.Name(),
		logger.FieldKind:    Kind(err),
		logger.FieldError:   err.Error(),
	})
}

func (e *Engine) record(eventType string, fields map[string]any) {
	if err := e.recorder.Record(eventType, fields); err != nil {
		log.Printf("recording %s event: %v", eventType, err)
	}
}
