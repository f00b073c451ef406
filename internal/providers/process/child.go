package process

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Environment passed to every child.
const (
	EnvScript   = "SCRIPTHOST_SCRIPT"
	EnvSettings = "SCRIPTHOST_SETTINGS"
)

const maxLine = 1 << 20

// ErrExited is returned when the child stops before answering.
var ErrExited = errors.New("process exited")

// child is a running script process.
type child struct {
	m      *Manifest
	cmd    *exec.Cmd
	cancel context.CancelFunc
	grace  time.Duration
	logger *slog.Logger

	wmu   sync.Mutex
	stdin io.WriteCloser
	enc   *json.Encoder

	msgs    chan message
	readers sync.WaitGroup
	once    sync.Once
}

func start(ctx context.Context, rt ports.Runtime, m *Manifest, grace time.Duration) (*child, error) {
	// The process outlives the constructing call; Close and abort stop it.
	procCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := exec.CommandContext(procCtx, m.Command, m.Args...)
	cmd.Dir = m.Dir
	cmd.Env = append(cmd.Environ(), environ(m, rt)...)

	c := &child{
		m:      m,
		cmd:    cmd,
		cancel: cancel,
		grace:  grace,
		logger: rt.Logger(),
		msgs:   make(chan message, 64),
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %w", m.Command, err)
	}
	c.stdin = stdin
	c.enc = json.NewEncoder(stdin)

	c.readers.Add(2)
	go c.readMessages(stdout)
	go c.readStderr(stderr)

	if m.Interval > 0 {
		rt.SetInterval(time.Duration(m.Interval) * time.Millisecond)
	}
	c.logger.Debug("Process started", "command", m.Command, "pid", cmd.Process.Pid)
	return c, nil
}

// environ returns the manifest env in a stable order plus the host variables.
func environ(m *Manifest, rt ports.Runtime) []string {
	keys := make([]string, 0, len(m.Env))
	for k := range m.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys)+2)
	for _, k := range keys {
		env = append(env, k+"="+m.Env[k])
	}
	env = append(env, EnvScript+"="+rt.Name())
	if s := rt.Settings(); s != nil && s.Path() != "" {
		env = append(env, EnvSettings+"="+s.Path())
	}
	return env
}

func (c *child) readMessages(r io.Reader) {
	defer c.readers.Done()
	defer close(c.msgs)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg message
		if err := json.Unmarshal(line, &msg); err != nil || msg.Type == "" {
			// Plain output is kept as a log line.
			c.logger.Info(string(line))
			continue
		}
		msg.Args = normalize(msg.Args)
		c.msgs <- msg
	}
}

func (c *child) readStderr(r io.Reader) {
	defer c.readers.Done()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		c.logger.Warn(sc.Text(), "stream", "stderr")
	}
}

// normalize turns integral JSON numbers into int64 so natives see the same
// values they get from Lua.
func normalize(args []any) []any {
	for i, a := range args {
		if f, ok := a.(float64); ok && f == float64(int64(f)) {
			args[i] = int64(f)
		}
	}
	return args
}

func (c *child) send(msg message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.enc == nil {
		return ErrExited
	}
	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("write to %s: %w", c.m.Name, err)
	}
	return nil
}

func (c *child) Tick(ctx context.Context, rt ports.Runtime) error {
	return c.exchange(ctx, rt, message{Type: msgTick})
}

func (c *child) KeyDown(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	return c.exchange(ctx, rt, keyMessage(ev))
}

func (c *child) KeyUp(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	return c.exchange(ctx, rt, keyMessage(ev))
}

// Aborted notifies the child. It may already be gone.
func (c *child) Aborted(_ context.Context, _ ports.Runtime) {
	_ = c.send(message{Type: msgAbort})
}

// exchange sends msg and serves the child's requests until it reports done.
func (c *child) exchange(ctx context.Context, rt ports.Runtime, msg message) error {
	if err := c.send(msg); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			c.cancel()
			return fmt.Errorf("%s: %w", c.m.Name, domain.ErrAborted)
		case in, ok := <-c.msgs:
			if !ok {
				return fmt.Errorf("%s: %w", c.m.Name, ErrExited)
			}
			done, err := c.handle(ctx, rt, in)
			if err != nil || done {
				return err
			}
		}
	}
}

func (c *child) handle(ctx context.Context, rt ports.Runtime, in message) (bool, error) {
	switch in.Type {
	case msgDone:
		if in.Error != "" {
			return true, fmt.Errorf("%s: %s", c.m.Name, in.Error)
		}
		return true, nil
	case msgCall:
		v, err := rt.Call(ctx, in.Name, in.Args...)
		reply := message{Type: msgResult, Value: v}
		if err != nil {
			if errors.Is(err, domain.ErrAborted) {
				return true, err
			}
			reply.Error = err.Error()
		}
		return false, c.send(reply)
	case msgKeyPressed:
		if in.Key == "" && (in.Code < 1 || in.Code > int(domain.MaxKey)) {
			return false, c.send(message{Type: msgResult, Error: fmt.Sprintf("key code out of range: %d", in.Code)})
		}
		k := domain.Key(in.Code)
		if in.Key != "" {
			parsed, err := domain.ParseKey(in.Key)
			if err != nil {
				return false, c.send(message{Type: msgResult, Error: err.Error()})
			}
			k = parsed
		}
		return false, c.send(message{Type: msgResult, Value: rt.IsKeyPressed(k)})
	case msgYield:
		if err := rt.Yield(ctx); err != nil {
			return true, err
		}
		return false, c.send(message{Type: msgContinue})
	case msgWait:
		if err := rt.Wait(ctx, time.Duration(in.MS*float64(time.Millisecond))); err != nil {
			return true, err
		}
		return false, c.send(message{Type: msgContinue})
	case msgLog:
		rt.Logger().Log(ctx, logging.ParseLevel(in.Level), in.Msg)
	case msgInterval:
		rt.SetInterval(time.Duration(in.MS * float64(time.Millisecond)))
	case msgPause:
		rt.Pause()
	case msgResume:
		rt.Resume()
	case msgAbort:
		rt.Abort()
	default:
		rt.Logger().Warn("Unknown message from process", "type", in.Type)
	}
	return false, nil
}

// Close stops the child: stdin is closed, and after the grace period the
// process is killed.
func (c *child) Close() error {
	var err error
	c.once.Do(func() {
		c.wmu.Lock()
		c.enc = nil
		_ = c.stdin.Close()
		c.wmu.Unlock()

		go func() {
			for range c.msgs {
			}
		}()

		exited := make(chan struct{})
		go func() {
			c.readers.Wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(c.grace):
			c.cancel()
			<-exited
		}
		err = c.cmd.Wait()
		c.cancel()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.logger.Debug("Process exited", "code", exitErr.ExitCode())
			err = nil
		}
	})
	return err
}
