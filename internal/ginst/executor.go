package ginst

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// CommandResult captures one external command invocation. Output is the
// merged stdout/stderr stream, newline-joined; it is retained for
// logging only, never parsed for return values.
type CommandResult struct {
	Cmd      string
	ExitCode int
	Output   string
}

func (r *CommandResult) Succeeded() bool { return r.ExitCode == 0 }

func (r *CommandResult) Failed() bool { return !r.Succeeded() }

// Executor runs external commands with structured argument lists.
// Commands never pass through a shell, so nothing in the arguments is
// subject to word splitting or interpretation.
type Executor struct {
	Context context.Context // cancellation kills the running process group
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes name with args in the current directory.
func (e *Executor) Run(name string, args ...string) *CommandResult {
	return e.RunIn("", name, args...)
}

// RunIn executes name with args inside dir. It blocks until the
// command exits; there is no timeout, a hung command hangs the caller.
// Stderr is merged into stdout and every line is echoed at debug level.
func (e *Executor) RunIn(dir string, name string, args ...string) *CommandResult {
	res := &CommandResult{Cmd: strings.Join(append([]string{name}, args...), " ")}
	debugf("About to call %s\n", res.Cmd)

	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	// Own process group so cancellation can reap children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw, err := os.Pipe()
	if err != nil {
		res.ExitCode = -1
		res.Output = err.Error()
		return res
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		res.ExitCode = -1
		res.Output = err.Error()
		debugf("| %s\n", err.Error())
		return res
	}
	pw.Close()

	// Kill the whole group if the context is cancelled mid-run.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		case <-done:
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		debugf("| %s\n", line)
		lines = append(lines, line)
	}
	pr.Close()

	waitErr := cmd.Wait()
	close(done)

	res.Output = strings.Join(lines, "\n")
	if waitErr == nil {
		res.ExitCode = 0
	} else if state := cmd.ProcessState; state != nil {
		res.ExitCode = state.ExitCode()
	} else {
		res.ExitCode = -1
	}
	if err := ctx.Err(); err != nil && res.ExitCode != 0 {
		debugf("... command cancelled: %v\n", err)
	}
	debugf("... return code: %d\n", res.ExitCode)
	return res
}
