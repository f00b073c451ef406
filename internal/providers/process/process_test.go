package process_test

import (
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"
	"time"

	"github.com/aretw0/scripthost/internal/providers/process"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
script "child" {
  command  = "/bin/sh"
  args     = ["${script_dir}/child.sh"]
  requires = ["base"]
  env      = { GREETING = "hi" }
  interval = 40
}
`

func skipOnWindows(t *testing.T) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("process tests drive /bin/sh children")
	}
}

// spawn writes a shell child whose main loop handles tick lines with onTick
// and key lines with onKey, then instantiates it.
func spawn(t *testing.T, onTick, onKey string) (ports.Script, *tests.FakeRuntime) {
	t.Helper()
	skipOnWindows(t)

	dir := t.TempDir()
	child := `while IFS= read -r line; do
  case "$line" in
    *'"type":"tick"'*)
` + onTick + `
      ;;
    *'"type":"key"'*)
` + onKey + `
      ;;
    *'"type":"abort"'*) exit 0 ;;
  esac
done
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "child.sh"), []byte(child), 0o644))
	path := filepath.Join(dir, "child.hcl")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	mod, err := process.New(process.WithGracePeriod(200*time.Millisecond)).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, mod.Types, 1)

	rt := tests.NewFakeRuntime()
	s, err := mod.Types[0].New(context.Background(), rt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.(interface{ Close() error }).Close() })
	return s, rt
}

func TestProvider_Contract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
script "first" { command = "true" }
script "second" {
  command  = "true"
  requires = ["first"]
}
`), 0o644))

	p := process.New()
	tests.KindIs(t, p, domain.ModulePrebuilt)
	tests.ProviderContractTest(t, p, path, []string{"first", "second"})
}

func TestParseManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "child.hcl")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	ms, err := process.ParseManifest(path)
	require.NoError(t, err)
	require.Len(t, ms, 1)

	abs, _ := filepath.Abs(dir)
	m := ms[0]
	assert.Equal(t, "child", m.Name)
	assert.Equal(t, "/bin/sh", m.Command)
	assert.Equal(t, []string{abs + "/child.sh"}, m.Args)
	assert.Equal(t, []string{"base"}, m.Requires)
	assert.Equal(t, map[string]string{"GREETING": "hi"}, m.Env)
	assert.Equal(t, dir, m.Dir)
	assert.Equal(t, 40, m.Interval)
}

func TestParseManifest_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, src := range map[string]string{
		"syntax.hcl":    `script "x" {`,
		"missing.hcl":   `script "x" { args = [] }`,
		"empty.hcl":     `script "x" { command = "" }`,
		"duplicate.hcl": `script "x" { command = "a" } script "x" { command = "b" }`,
		"unknown.hcl":   `script "x" { command = "${nope}" }`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		_, err := process.ParseManifest(path)
		assert.Error(t, err, name)
	}
}

func TestChild_TickServesCalls(t *testing.T) {
	s, rt := spawn(t, `
      echo "plain output is logged"
      echo '{"type":"log","level":"debug","msg":"ticking"}'
      echo '{"type":"call","name":"record","args":["'"$SCRIPTHOST_SCRIPT"'","'"$GREETING"'",3,1.5]}'
      IFS= read -r reply
      case "$reply" in
        *'"value":"ok"'*) echo '{"type":"done"}' ;;
        *) echo '{"type":"done","error":"unexpected reply"}' ;;
      esac`, `echo '{"type":"done"}'`)
	rt.Results["record"] = "ok"

	assert.Equal(t, 40*time.Millisecond, rt.Interval())
	require.NoError(t, s.Tick(context.Background(), rt))
	require.NoError(t, s.Tick(context.Background(), rt))

	calls := rt.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, tests.Call{Name: "record", Args: []any{"fake", "hi", int64(3), 1.5}}, calls[0])
}

func TestChild_NativeErrorIsReported(t *testing.T) {
	s, rt := spawn(t, `
      echo '{"type":"call","name":"fail"}'
      IFS= read -r reply
      case "$reply" in
        *'"error":"native failed"'*) echo '{"type":"done","error":"call rejected"}' ;;
        *) echo '{"type":"done"}' ;;
      esac`, `echo '{"type":"done"}'`)

	err := s.Tick(context.Background(), rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call rejected")
}

func TestChild_ControlMessages(t *testing.T) {
	s, rt := spawn(t, `
      echo '{"type":"yield"}'
      IFS= read -r reply
      echo '{"type":"wait","ms":10}'
      IFS= read -r reply
      echo '{"type":"key_pressed","key":"Enter"}'
      IFS= read -r reply
      case "$reply" in
        *'"value":true'*) echo '{"type":"interval","ms":250}' ;;
      esac
      echo '{"type":"abort"}'
      echo '{"type":"done"}'`, `
      echo '{"type":"pause"}'
      echo '{"type":"done"}'`)
	rt.Pressed[domain.KeyEnter] = true

	kh, ok := s.(ports.KeyHandler)
	require.True(t, ok)
	require.NoError(t, kh.KeyDown(context.Background(), rt, domain.KeyEvent{Key: domain.KeyA, Down: true}))
	assert.True(t, rt.IsPaused())

	require.NoError(t, s.Tick(context.Background(), rt))
	assert.Equal(t, 2, rt.Yields())
	assert.Equal(t, 250*time.Millisecond, rt.Interval())
	assert.True(t, rt.Aborted())
}

func TestChild_KeyCodeOutOfRange(t *testing.T) {
	s, rt := spawn(t, `
      echo '{"type":"key_pressed","code":301}'
      IFS= read -r reply
      case "$reply" in
        *'out of range'*) ;;
        *) echo '{"type":"done","error":"301 accepted"}'; continue ;;
      esac
      echo '{"type":"key_pressed","code":45}'
      IFS= read -r reply
      case "$reply" in
        *'"value":true'*) echo '{"type":"done"}' ;;
        *) echo '{"type":"done","error":"45 not pressed"}' ;;
      esac`, `echo '{"type":"done"}'`)
	rt.Pressed[domain.KeyInsert] = true

	require.NoError(t, s.Tick(context.Background(), rt))
}

func TestChild_ExitBeforeDone(t *testing.T) {
	s, rt := spawn(t, `exit 3`, `echo '{"type":"done"}'`)
	err := s.Tick(context.Background(), rt)
	assert.ErrorIs(t, err, process.ErrExited)
}

func TestChild_CancelledContextKillsHungProcess(t *testing.T) {
	s, rt := spawn(t, `while :; do :; done`, `echo '{"type":"done"}'`)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Tick(ctx, rt) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("hung process was not stopped")
	}

	closed := make(chan error, 1)
	go func() { closed <- s.(interface{ Close() error }).Close() }()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the process was killed")
	}
}

func TestChild_MissingCommand(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`script "ghost" { command = "./definitely-not-here" }`), 0o644))

	mod, err := process.New().Load(context.Background(), path)
	require.NoError(t, err)
	_, err = mod.Types[0].New(context.Background(), tests.NewFakeRuntime())
	assert.Error(t, err)
}
