package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/minsh/core/config"
	"github.com/josephlewis42/minsh/core/jobs"
	"github.com/josephlewis42/minsh/core/logger"
	"github.com/josephlewis42/minsh/core/workdir"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	EnvHome = "HOME"
	EnvUser = "USER"
)

// Options configure a Shell. Nil streams default to the process's own.
type Options struct {
	Config *config.Configuration
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Shell is the interactive read loop: it reads a line, runs it through the
// job engine and prints termination reports.
type Shell struct {
	Config   *config.Configuration
	Engine   *jobs.Engine
	WorkDir  *workdir.State
	Readline *readline.Instance
	Events   *logger.SessionLogger

	stdio       jobs.Stdio
	stdin       *readline.CancelableStdin
	interactive bool
	terminated  TerminationFlag
	prompt      *promptRenderer
	toClose     listCloser
}

// NewShell creates a shell and its job engine. An error means the shell
// can't supervise children and must not run.
func NewShell(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default(".")
	}
	stdio := jobs.Stdio{Stdin: opts.Stdin, Stdout: opts.Stdout, Stderr: opts.Stderr}
	if stdio.Stdin == nil {
		stdio.Stdin = os.Stdin
	}
	if stdio.Stdout == nil {
		stdio.Stdout = os.Stdout
	}
	if stdio.Stderr == nil {
		stdio.Stderr = os.Stderr
	}

	shell := &Shell{
		Config:      cfg,
		stdio:       stdio,
		interactive: term.IsTerminal(int(stdio.Stdin.Fd())),
	}

	wd, err := workdir.New()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, workdirMessage(err))
	}
	shell.WorkDir = wd

	if err := shell.openEvents(); err != nil {
		shell.Close()
		return nil, err
	}

	policy, err := jobs.ParseShutdownPolicy(cfg.Background.ShutdownPolicy)
	if err != nil {
		shell.Close()
		return nil, err
	}

	engine, err := jobs.New(jobs.Options{
		Builtins:      shell.builtins(),
		NullStdin:     cfg.Background.NullStdin(),
		Recorder:      shell.Events,
		Shutdown:      policy,
		ShutdownGrace: cfg.Background.ShutdownGrace(),
	})
	if err != nil {
		shell.Close()
		return nil, err
	}
	shell.Engine = engine
	shell.toClose = append(shell.toClose, engine)

	shell.prompt = newPromptRenderer(cfg, isTerminal(stdio.Stdout))

	shell.stdin = readline.NewCancelableStdin(stdio.Stdin)
	rlConfig := &readline.Config{
		Stdin:  shell.stdin,
		Stdout: stdio.Stdout,
		Stderr: stdio.Stderr,
		FuncGetWidth: func() int {
			width, _, err := term.GetSize(int(stdio.Stdout.Fd()))
			if err != nil {
				return 80
			}
			return width
		},
		FuncIsTerminal: func() bool {
			return shell.interactive
		},
	}
	if shell.interactive {
		rlConfig.HistoryFile = cfg.HistoryPath()
		rlConfig.HistoryLimit = cfg.HistoryLimit
	} else {
		rlConfig.HistoryLimit = -1
	}

	if err := rlConfig.Init(); err != nil {
		shell.Close()
		return nil, err
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		shell.Close()
		return nil, err
	}
	shell.Readline = rl
	shell.toClose = append(shell.toClose, rl)

	return shell, nil
}

func (s *Shell) openEvents() error {
	if s.Config.EventLogPath() == "" {
		s.Events = logger.NewNopLogger().NewSession()
		return nil
	}

	fd, err := s.Config.OpenEventLog()
	if err != nil {
		return err
	}
	s.toClose = append(s.toClose, fd)
	s.Events = logger.NewJSONLinesLogRecorder(fd).NewSession()
	return nil
}

// Terminated reports whether SIGTERM has been received.
func (s *Shell) Terminated() bool {
	return s.terminated.IsSet()
}

// Run reads and executes lines until input ends or SIGTERM arrives. It
// returns the interpreter's exit status.
func (s *Shell) Run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, os.Interrupt)
	defer signal.Stop(sigs)
	go s.watchSignals(ctx, sigs)

	if s.interactive {
		go s.printReportsAsync(ctx)
	}

	s.record(logger.EventSessionStarted, map[string]any{
		logger.FieldWorkDir:     s.WorkDir.Dir(),
		logger.FieldInteractive: s.interactive,
	})
	defer s.record(logger.EventSessionEnded, nil)

	for !s.terminated.IsSet() {
		s.printReports()
		s.Readline.SetPrompt(s.Prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			s.finish(ctx)
			return 0 // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue // Discard the line being edited.

		case err != nil:
			log.Printf("Error readline: %v", err)
			continue

		case len(line) == 0:
			continue // empty line

		default:
			s.Execute(ctx, line)
		}
	}

	s.finish(ctx)
	return 0
}

// Execute runs a single line.
func (s *Shell) Execute(ctx context.Context, line string) {
	cmd, ok, err := ParseLine(line)
	switch {
	case err != nil:
		s.diagnose(cmd, err)
		return
	case !ok:
		return
	}

	if cmd.Background {
		job, err := s.Engine.Background(cmd, s.stdio)
		if err != nil {
			s.diagnose(cmd, err)
			return
		}
		if job == nil {
			return
		}
		select {
		case <-job.Launched():
			s.announce(cmd, job)
		default:
			// Waiting on a named pipe, announce it once it opens.
			go func() {
				<-job.Launched()
				s.announce(cmd, job)
			}()
		}
		return
	}

	if _, err := s.Engine.Foreground(ctx, cmd, s.stdio); err != nil {
		s.diagnose(cmd, err)
	}
	s.printReports()
}

// announce prints the launch line of a background job.
func (s *Shell) announce(cmd jobs.Command, job *jobs.Job) {
	if err := job.LaunchErr(); err != nil {
		s.diagnose(cmd, err)
		return
	}
	fmt.Fprintf(s.Readline, "[%d] %d\n", job.ID, job.Pid)
}

// finish applies the background shutdown policy and flushes reports.
func (s *Shell) finish(ctx context.Context) {
	if err := s.Engine.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("shutting down background jobs: %v", err)
	}
	s.printReports()
}

// printReports writes every queued termination report.
func (s *Shell) printReports() {
	for _, t := range s.Engine.Reports().Drain() {
		if !t.Background && t.JobID != 0 && !s.Config.Reports.Foreground {
			continue
		}
		fmt.Fprintln(s.Readline, t.String())
	}
}

// printReportsAsync prints reports as they arrive so background jobs are
// reported while the prompt waits for input.
func (s *Shell) printReportsAsync(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Engine.Reports().Ready():
			s.printReports()
		}
	}
}

func (s *Shell) watchSignals(ctx context.Context, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig != unix.SIGTERM {
				// Interrupts belong to the foreground job, which gets its
				// own copy from the terminal.
				continue
			}
			s.terminated.Set()
			// Unblock a pending prompt; the loop checks the flag first.
			s.stdin.Close()
		}
	}
}

func (s *Shell) diagnose(cmd jobs.Command, err error) {
	name := cmd.Name()
	if name == "" {
		fmt.Fprintf(s.stdio.Stderr, "minsh: %v\n", err)
		return
	}
	fmt.Fprintf(s.stdio.Stderr, "%s: %v\n", name, err)
}

func (s *Shell) record(eventType string, fields map[string]any) {
	if err := s.Events.Record(eventType, fields); err != nil {
		log.Printf("recording %s event: %v", eventType, err)
	}
}

// Close releases the engine, the line editor and the event log.
func (s *Shell) Close() error {
	return s.toClose.Close()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for i := len(lc) - 1; i >= 0; i-- {
		if err := lc[i].Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
