package executor

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"streampack/internal/failure"
)

// DefaultStopGrace is how long a cancelled process gets to honour "q" on
// stdin before it is killed.
const DefaultStopGrace = 5 * time.Second

type Executor struct {
	logger    *log.Entry
	stopGrace time.Duration
}

func NewExecutor(logger *log.Entry) *Executor {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Executor{logger: logger, stopGrace: DefaultStopGrace}
}

// WithStopGrace returns a copy of e using the given grace period.
func (e *Executor) WithStopGrace(d time.Duration) *Executor {
	c := *e
	c.stopGrace = d
	return &c
}

// Result is what is left of a process once it has exited. A non-zero
// ExitCode is not an error at this level; callers decide what it means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// LineFunc receives each stderr line as soon as it is read.
type LineFunc func(line string)

// Run spawns the command, streams its stderr line by line to onLine, and
// waits for it to exit. Errors are returned only when the process could not
// be started: ToolNotFound when the binary cannot be resolved, SpawnFailure
// for anything else. Cancelling ctx asks the process to quit and kills it
// after the grace period; the resulting exit code is reported as usual.
func (e *Executor) Run(ctx context.Context, command *Cmd, onLine LineFunc) (*Result, error) {
	binary, err := exec.LookPath(command.Binary)

	if err != nil {
		return nil, failure.New(failure.ToolNotFound, command.Binary, err)
	}

	e.logger.Debug("> " + command.Binary + " " + strings.Join(command.args, " "))

	proc := exec.Command(binary, command.args...)
	proc.Env = append(os.Environ(), command.envs...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout

	errStream, err := proc.StderrPipe()

	if err != nil {
		return nil, failure.New(failure.SpawnFailure, command.Binary, errors.Wrap(err, "stderr pipe"))
	}

	// Used to stop the process gracefully
	stdin, err := proc.StdinPipe()

	if err != nil {
		return nil, failure.New(failure.SpawnFailure, command.Binary, errors.Wrap(err, "stdin pipe"))
	}

	start := time.Now()

	if err = proc.Start(); err != nil {
		return nil, failure.New(failure.SpawnFailure, command.Binary, err)
	}

	exited := make(chan struct{})
	defer close(exited)

	go e.watch(ctx, proc, stdin, exited)

	scanner := bufio.NewScanner(errStream)
	scanner.Split(ScanLines)
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			continue
		}

		stderr.WriteString(line)
		stderr.WriteByte('\n')

		if onLine != nil {
			onLine(line)
		}
	}

	// Drain whatever is left so Wait does not block on a full pipe
	_, _ = io.Copy(&stderr, errStream)

	err = proc.Wait()
	_ = stdin.Close()

	if err != nil {
		var exitErr *exec.ExitError

		if !errors.As(err, &exitErr) || proc.ProcessState == nil {
			return nil, failure.New(failure.SpawnFailure, command.Binary, err)
		}
	}

	res := &Result{
		ExitCode: proc.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Elapsed:  time.Since(start),
	}

	e.logger.WithFields(log.Fields{
		"exit":    res.ExitCode,
		"elapsed": res.Elapsed.String(),
	}).Debug("process exited")

	return res, nil
}

func (e *Executor) watch(ctx context.Context, proc *exec.Cmd, stdin io.Writer, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}

	e.logger.WithField("pid", proc.Process.Pid).Warn("context cancelled, stopping process")
	_, _ = stdin.Write([]byte("q\n"))

	timer := time.NewTimer(e.stopGrace)
	defer timer.Stop()

	select {
	case <-exited:
	case <-timer.C:
		e.logger.WithField("pid", proc.Process.Pid).Warnf("process still running after %s, killing it", e.stopGrace)
		_ = proc.Process.Kill()
	}
}

// ScanLines splits on either '\n' or '\r' so that ffmpeg's carriage-return
// stats lines are delivered one at a time.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

type Cmd struct {
	Binary string
	args   []string
	envs   []string
}

func (c *Cmd) Add(args ...string) {
	c.args = append(c.args, args...)
}

func (c *Cmd) Env(env string) {
	c.envs = append(c.envs, env)
}

func (c *Cmd) Command() []string {
	return c.args
}

func (c *Cmd) String() string {
	return c.Binary + " " + strings.Join(c.args, " ")
}
