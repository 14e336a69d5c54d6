package jobs

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// Reaper collects every terminated child of the process. It wakes on
// SIGCHLD, drains all ready statuses and publishes one report per child.
type Reaper struct {
	registry *Registry
	queue    *Queue
	wait     waitFunc
	// onExit runs outside the registry lock for every collected child.
	onExit func(Termination, *Job)

	sigs     chan os.Signal
	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewReaper creates a reaper feeding registry and queue. It does nothing
// until Start is called.
func NewReaper(registry *Registry, queue *Queue, onExit func(Termination, *Job)) *Reaper {
	if onExit == nil {
		onExit = func(Termination, *Job) {}
	}
	return &Reaper{
		registry: registry,
		queue:    queue,
		wait:     wait4Any,
		onExit:   onExit,
		sigs:     make(chan os.Signal, 1),
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start installs the SIGCHLD handler and begins reaping.
func (r *Reaper) Start() error {
	if r.started {
		return ErrReaperInstall
	}
	select {
	case <-r.stop:
		return ErrReaperInstall
	default:
	}

	r.started = true
	signal.Notify(r.sigs, unix.SIGCHLD)
	go r.loop()

	// Children may have exited before the handler existed.
	r.Kick()
	return nil
}

// Kick asks the reaper to check for terminated children now.
func (r *Reaper) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Stop removes the handler and waits for the reaper to finish its last pass.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		if !r.started {
			close(r.done)
			return
		}
		signal.Stop(r.sigs)
		<-r.done
	})
}

func (r *Reaper) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			r.reap()
			return
		case <-r.sigs:
		case <-r.kick:
		}
		r.reap()
	}
}

// reap collects statuses until none are ready.
func (r *Reaper) reap() {
	for {
		t, job, ok := r.registry.collect(r.wait, r.queue.Push)
		if !ok {
			return
		}
		r.onExit(t, job)
	}
}
