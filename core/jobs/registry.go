package jobs

import (
	"errors"
	"os"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// waitFunc collects one terminated child without blocking. A pid <= 0 means
// nothing was ready.
type waitFunc func() (pid int, ws unix.WaitStatus, err error)

func wait4Any() (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return pid, ws, err
	}
}

// Registry maps live child pids to their jobs.
//
// Process creation, job insertion and status collection all happen under the
// same lock, so a status can never be collected before its job is recorded
// and a pid can't be reused while it's still in the table.
type Registry struct {
	mu     sync.Mutex
	jobs   map[int]*Job
	nextID int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[int]*Job)}
}

// Spawn calls start and records the process it creates as a new job.
// onSpawn, if set, sees the job before its status can be collected.
//
// start runs under the registry lock, so it must not block: anything that
// can wait, like opening the redirection targets, happens before Spawn.
func (r *Registry) Spawn(args []string, background bool, start func() (*os.Process, error), onSpawn func(*Job)) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proc, err := start()
	if err != nil {
		return nil, err
	}

	r.nextID++
	job := reservedJob(r.nextID, args, background)
	r.insertLocked(job, proc, onSpawn)
	return job, nil
}

// Reserve numbers a job whose process will be created later by Launch.
func (r *Registry) Reserve(args []string, background bool) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	return reservedJob(r.nextID, args, background)
}

// Launch creates the process for a reserved job. If start fails the job is
// completed with the error and never enters the table.
func (r *Registry) Launch(job *Job, start func() (*os.Process, error), onSpawn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	proc, err := start()
	if err != nil {
		job.fail(err)
		return err
	}
	r.insertLocked(job, proc, onSpawn)
	return nil
}

func (r *Registry) insertLocked(job *Job, proc *os.Process, onSpawn func(*Job)) {
	// Statuses are collected with wait4, never through the handle.
	pid := proc.Pid
	_ = proc.Release()

	job.setLaunched(pid)
	r.jobs[pid] = job
	if onSpawn != nil {
		onSpawn(job)
	}
}

// collect reaps at most one child, hands its status to publish and then
// completes its job, so anyone woken by the job sees the report already
// published. ok is false once no terminated child remains.
func (r *Registry) collect(wait waitFunc, publish func(Termination)) (t Termination, job *Job, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ws, err := wait()
	if err != nil || pid <= 0 {
		return Termination{}, nil, false
	}

	t = newTermination(pid, ws)
	job, found := r.jobs[pid]
	if !found {
		publish(t)
		return t, nil, true
	}
	delete(r.jobs, pid)

	t.JobID = job.ID
	t.Background = job.Background
	publish(t)
	if err := job.complete(t); err != nil {
		// Unreachable while entries are removed on completion.
		return t, nil, true
	}
	return t, job, true
}

// Live returns the jobs that haven't been reaped yet, oldest first.
func (r *Registry) Live() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len is the number of live jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Signal delivers sig to every live job accepted by filter. Holding the lock
// guarantees none of the pids has been collected and reused.
func (r *Registry) Signal(sig unix.Signal, filter func(*Job) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for pid, j := range r.jobs {
		if filter != nil && !filter(j) {
			continue
		}
		if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
			lastErr = err
		}
	}
	return lastErr
}
