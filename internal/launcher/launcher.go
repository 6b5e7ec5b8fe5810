// Package launcher starts external model front-ends (ComfyUI, web UIs,
// local servers) from named presets.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/suggest"
)

var (
	ErrUnknownPreset = errors.New("launcher: unknown preset")
	ErrInvalidPreset = errors.New("launcher: invalid preset")
	ErrInvalidEnv    = errors.New("launcher: invalid env entry")
)

// DefaultGrace is how long Stop waits after an interrupt before killing.
const DefaultGrace = 5 * time.Second

// Preset is one launchable program. Command, Args and Dir may reference
// ${VAR}; Env is resolved first, then the process environment.
type Preset struct {
	Name    string
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
}

// ParseEnv turns KEY=VALUE entries into a map.
func ParseEnv(entries []string) (map[string]string, error) {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, e)
		}
		env[k] = v
	}
	return env, nil
}

// Launcher resolves presets and runs them.
type Launcher struct {
	presets map[string]Preset
	stdout  io.Writer
	stderr  io.Writer
	environ func() []string
	grace   time.Duration
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithOutput sends child output to the given writers instead of the logger.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithEnviron replaces os.Environ as the base environment.
func WithEnviron(fn func() []string) Option {
	return func(l *Launcher) { l.environ = fn }
}

// WithGrace sets the interrupt-to-kill delay.
func WithGrace(d time.Duration) Option {
	return func(l *Launcher) { l.grace = d }
}

// New validates presets and builds a Launcher.
func New(presets []Preset, opts ...Option) (*Launcher, error) {
	l := &Launcher{
		presets: make(map[string]Preset, len(presets)),
		environ: os.Environ,
		grace:   DefaultGrace,
	}
	for _, p := range presets {
		if p.Name == "" || p.Command == "" {
			return nil, fmt.Errorf("%w: %q needs a name and a command", ErrInvalidPreset, p.Name)
		}
		if _, dup := l.presets[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidPreset, p.Name)
		}
		l.presets[p.Name] = p
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Names lists presets in sorted order.
func (l *Launcher) Names() []string {
	return slices.Sorted(maps.Keys(l.presets))
}

// Preset returns the named preset.
func (l *Launcher) Preset(name string) (Preset, error) {
	p, ok := l.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q%s", ErrUnknownPreset, name, suggest.Hint(name, l.Names()))
	}
	return p, nil
}

// Command builds the exec.Cmd for a preset with extraArgs appended.
// Cancelling ctx interrupts the child and kills it after the grace period.
func (l *Launcher) Command(ctx context.Context, name string, extraArgs ...string) (*exec.Cmd, error) {
	p, err := l.Preset(name)
	if err != nil {
		return nil, err
	}

	base := l.environ()
	lookup := func(key string) string {
		if v, ok := p.Env[key]; ok {
			return v
		}
		return envValue(base, key)
	}
	expand := func(s string) string { return os.Expand(s, lookup) }

	args := make([]string, 0, len(p.Args)+len(extraArgs))
	for _, a := range p.Args {
		args = append(args, expand(a))
	}
	args = append(args, extraArgs...)

	cmd := exec.CommandContext(ctx, expand(p.Command), args...)
	cmd.Dir = expand(p.Dir)
	cmd.Env = slices.Clone(base)
	for _, k := range slices.Sorted(maps.Keys(p.Env)) {
		cmd.Env = append(cmd.Env, k+"="+os.Expand(p.Env[k], func(key string) string { return envValue(base, key) }))
	}
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = l.grace
	return cmd, nil
}

// Start launches a preset and returns immediately.
func (l *Launcher) Start(ctx context.Context, name string, extraArgs ...string) (*Process, error) {
	cmd, err := l.Command(ctx, name, extraArgs...)
	if err != nil {
		return nil, err
	}

	p := &Process{Name: name, cmd: cmd, grace: l.grace, done: make(chan struct{})}
	log := studio.Logger().With("preset", name)

	if l.stdout != nil {
		cmd.Stdout = l.stdout
	} else {
		cmd.Stdout = p.logTo(log, "stdout")
	}
	if l.stderr != nil {
		cmd.Stderr = l.stderr
	} else {
		cmd.Stderr = p.logTo(log, "stderr")
	}

	if err := cmd.Start(); err != nil {
		p.closePipes()
		return nil, fmt.Errorf("launcher: start %s: %w", name, err)
	}
	log.Info("launcher: started", "pid", cmd.Process.Pid, "command", cmd.Path, "args", cmd.Args[1:])

	go p.reap(log)
	return p, nil
}

// Run launches a preset and waits for it to exit.
func (l *Launcher) Run(ctx context.Context, name string, extraArgs ...string) error {
	p, err := l.Start(ctx, name, extraArgs...)
	if err != nil {
		return err
	}
	return p.Wait()
}

// Process is a running preset.
type Process struct {
	Name string

	cmd     *exec.Cmd
	grace   time.Duration
	pipes   []*io.PipeWriter
	streams sync.WaitGroup
	done    chan struct{}
	err     error
	stop    sync.Once
}

// PID returns the operating system process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process exits. A non-zero exit is returned as a
// wrapped *exec.ExitError.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Stop interrupts the process and kills it if it is still running after
// the grace period. It returns the exit error, if any.
func (p *Process) Stop() error {
	p.stop.Do(func() {
		if err := interrupt(p.cmd.Process); err != nil {
			return
		}
		select {
		case <-p.done:
		case <-time.After(p.grace):
			_ = p.cmd.Process.Kill()
		}
	})
	return p.Wait()
}

// logTo returns a writer whose lines are logged until the process exits.
func (p *Process) logTo(log *slog.Logger, stream string) io.Writer {
	r, w := io.Pipe()
	p.pipes = append(p.pipes, w)
	p.streams.Add(1)
	go func() {
		defer p.streams.Done()
		logLines(log, stream, r)
	}()
	return w
}

func (p *Process) closePipes() {
	for _, w := range p.pipes {
		_ = w.Close()
	}
	p.streams.Wait()
}

func (p *Process) reap(log *slog.Logger) {
	err := p.cmd.Wait()
	p.closePipes()
	if err != nil {
		p.err = fmt.Errorf("launcher: %s: %w", p.Name, err)
		log.Warn("launcher: exited", "err", err)
	} else {
		log.Info("launcher: exited")
	}
	close(p.done)
}

// interrupt asks the process to exit, falling back to kill where
// interrupts are unsupported.
func interrupt(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	if err := proc.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return err
		}
		return proc.Kill()
	}
	return nil
}

func logLines(log *slog.Logger, stream string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		log.Info("launcher: output", "stream", stream, "line", sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Debug("launcher: output stream closed", "stream", stream, "err", err)
	}
}

// envValue returns the last value of key in a KEY=VALUE list.
func envValue(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
			return v
		}
	}
	return ""
}
