// Package e2etests drives a built hotticket binary end to end: a real
// server process over a sandbox data directory, exercised through the
// client commands.
package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Runner executes hotticket commands against a sandbox.
type Runner struct {
	Bin string // path to hotticket binary
}

// Sandbox is a data directory with a running server.
type Sandbox struct {
	DataDir string
	URL     string
	server  *exec.Cmd
	logs    bytes.Buffer
}

// StartSandbox initializes a data dir under parent and starts a server on
// a free port, waiting until it answers /alive.
func (r *Runner) StartSandbox(parent string) (*Sandbox, error) {
	sb := &Sandbox{DataDir: filepath.Join(parent, "data")}
	if res := r.run(sb, "init"); res.ExitCode != 0 {
		return nil, fmt.Errorf("init failed: %s", res.Stderr)
	}

	port, err := freePort()
	if err != nil {
		return nil, err
	}
	sb.URL = "http://127.0.0.1:" + strconv.Itoa(port)

	sb.server = exec.Command(r.Bin, "serve", "--data-dir", sb.DataDir, "-p", strconv.Itoa(port), "-d")
	sb.server.Env = r.env()
	sb.server.Stderr = &sb.logs
	if err := sb.server.Start(); err != nil {
		return nil, fmt.Errorf("starting server: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if res := r.Run(sb, "alive"); res.ExitCode == 0 {
			return sb, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	r.StopSandbox(sb)
	return nil, fmt.Errorf("server did not come up; logs:\n%s", sb.logs.String())
}

// StopSandbox interrupts the server and waits for it to exit.
func (r *Runner) StopSandbox(sb *Sandbox) error {
	if sb.server == nil || sb.server.Process == nil {
		return nil
	}
	_ = sb.server.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- sb.server.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		_ = sb.server.Process.Kill()
		return fmt.Errorf("server did not stop")
	}
}

// RunResult holds the output of a command execution.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes a client command against the sandbox server.
func (r *Runner) Run(sb *Sandbox, args ...string) RunResult {
	return r.run(sb, append(args, "--server", sb.URL)...)
}

// RunJSON executes a client command with --json and decodes its output.
func (r *Runner) RunJSON(sb *Sandbox, out any, args ...string) RunResult {
	res := r.Run(sb, append(args, "--json")...)
	if res.ExitCode == 0 && out != nil {
		if err := json.Unmarshal([]byte(res.Stdout), out); err != nil {
			res.ExitCode = -1
			res.Stderr = fmt.Sprintf("decoding output %q: %v", res.Stdout, err)
		}
	}
	return res
}

func (r *Runner) run(sb *Sandbox, args ...string) RunResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Bin, append(args, "--data-dir", sb.DataDir)...)
	cmd.Env = r.env()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// env strips HT_* overrides inherited from the caller's environment.
func (r *Runner) env() []string {
	var out []string
	for _, kv := range os.Environ() {
		if len(kv) >= 3 && kv[:3] == "HT_" {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
