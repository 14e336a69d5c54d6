package jobs

import (
	"context"
	"sync"
	"time"
)

// Job is a child process launched by the engine. Its completion is fulfilled
// exactly once, by the reaper.
//
// Pid and Started are valid once the Launched channel is closed. Jobs that
// don't wait on their redirection targets are launched before the engine
// returns them.
type Job struct {
	ID         int
	Pid        int
	Args       []string
	Background bool
	Started    time.Time

	once sync.Once
	done chan struct{}
	term Termination

	launched  chan struct{}
	launchErr error
}

func newJob(id, pid int, args []string, background bool) *Job {
	j := reservedJob(id, args, background)
	j.setLaunched(pid)
	return j
}

// reservedJob is a job whose process hasn't been created yet.
func reservedJob(id int, args []string, background bool) *Job {
	return &Job{
		ID:         id,
		Args:       args,
		Background: background,
		done:       make(chan struct{}),
		launched:   make(chan struct{}),
	}
}

func (j *Job) setLaunched(pid int) {
	j.Pid = pid
	j.Started = time.Now()
	close(j.launched)
}

// fail ends a job whose process could never be created.
func (j *Job) fail(err error) {
	j.launchErr = err
	close(j.launched)
	j.once.Do(func() {
		close(j.done)
	})
}

// Launched is closed once the process exists or its launch failed.
func (j *Job) Launched() <-chan struct{} {
	return j.launched
}

// LaunchErr is why the process couldn't be created. It's only meaningful
// after Launched is closed.
func (j *Job) LaunchErr() error {
	select {
	case <-j.launched:
		return j.launchErr
	default:
		return nil
	}
}

// Done is closed once the job has been reaped.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Termination returns the final status, ok is false while the job runs.
func (j *Job) Termination() (t Termination, ok bool) {
	select {
	case <-j.done:
		return j.term, j.launchErr == nil
	default:
		return Termination{}, false
	}
}

// Wait blocks until the job is reaped or ctx is done. Cancelling ctx doesn't
// affect the child, it will still be reaped and reported. A job that could
// not be launched returns its launch error.
func (j *Job) Wait(ctx context.Context) (Termination, error) {
	select {
	case <-j.done:
		if j.launchErr != nil {
			return Termination{}, j.launchErr
		}
		return j.term, nil
	case <-ctx.Done():
		return Termination{}, ctx.Err()
	}
}

// String renders the job the way it was typed.
func (j *Job) String() string {
	return Command{Args: j.Args, Background: j.Background}.String()
}

func (j *Job) complete(t Termination) error {
	delivered := false
	j.once.Do(func() {
		j.term = t
		close(j.done)
		delivered = true
	})
	if !delivered {
		return ErrWaitRace
	}
	return nil
}
