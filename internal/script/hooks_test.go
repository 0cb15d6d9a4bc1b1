package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gdbmi/internal/integration/debug"
)

type lineWriter struct {
	lines []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

const stopRecord = `*stopped,reason="breakpoint-hit",bkptno="1",thread-id="2",frame={level="0",addr="0x401136",func="main",file="main.c",line="7"}` + "\n"

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func newHookEngine(t *testing.T, opts ...Option) (*debug.Engine, *lineWriter, *Hooks, *[]error) {
	t.Helper()
	w := &lineWriter{}
	var errs []error
	eng := debug.New(w,
		debug.WithFrameTracking(false),
		debug.WithErrorHandler(func(err error) { errs = append(errs, err) }))
	h, err := New(eng, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return eng, w, h, &errs
}

func TestHooks_OnStopSendsCommands(t *testing.T) {
	eng, w, h, errs := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `
function on_stop(ev)
  if ev.reason ~= "breakpoint-hit" then return nil end
  return {
    "-stack-list-locals --thread " .. ev.thread .. " --frame 0 --simple-values",
    "-data-evaluate-expression " .. ev.func .. ":" .. ev.line,
  }
end
`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Empty(t, *errs)
	assert.Equal(t, []string{
		"1-stack-list-locals --thread 2 --frame 0 --simple-values\n",
		"2-data-evaluate-expression main:7\n",
	}, w.lines)
}

func TestHooks_StringResult(t *testing.T) {
	eng, w, h, _ := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) return "-exec-continue" end`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Equal(t, []string{"1-exec-continue\n"}, w.lines)
}

func TestHooks_IgnoresOtherSignals(t *testing.T) {
	eng, w, h, _ := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) return "-exec-continue" end`)))

	require.NoError(t, eng.Feed([]byte(`=breakpoint-created,bkpt={number="1"}`+"\n")))
	assert.Empty(t, w.lines)
}

func TestHooks_NoScriptLoaded(t *testing.T) {
	eng, w, h, errs := newHookEngine(t)
	assert.Empty(t, h.Path())
	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Empty(t, w.lines)
	assert.Empty(t, *errs)
}

func TestHooks_BadResultReported(t *testing.T) {
	eng, w, h, errs := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) return { "-exec-next", 42 } end`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Empty(t, w.lines)
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], ErrBadResult)
}

func TestHooks_RuntimeErrorReported(t *testing.T) {
	eng, _, h, errs := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) error("boom") end`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	require.Len(t, *errs, 1)
	var herr *HookError
	require.ErrorAs(t, (*errs)[0], &herr)
	assert.Equal(t, "on_stop", herr.Hook)
	assert.Contains(t, herr.Error(), "boom")
}

func TestHooks_ErrorReplyReported(t *testing.T) {
	var replyErrs []error
	eng, _, h, _ := newHookEngine(t, WithErrorHandler(func(err error) { replyErrs = append(replyErrs, err) }))
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) return "-bogus" end`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	require.NoError(t, eng.Feed([]byte(`1^error,msg="Undefined MI command: bogus"`+"\n")))
	require.Len(t, replyErrs, 1)
	assert.Contains(t, replyErrs[0].Error(), "Undefined MI command")
}

func TestHooks_LoadFailureKeepsPrevious(t *testing.T) {
	eng, w, h, _ := newHookEngine(t)
	good := writeScript(t, `function on_stop(ev) return "-exec-continue" end`)
	require.NoError(t, h.Load(good))

	err := h.Load(writeScript(t, `function on_stop(ev) return`))
	var herr *HookError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "load", herr.Hook)
	assert.Equal(t, good, h.Path())

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Equal(t, []string{"1-exec-continue\n"}, w.lines)
}

func TestHooks_Unload(t *testing.T) {
	eng, w, h, _ := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) return "-exec-continue" end`)))
	require.NoError(t, h.Load(""))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	assert.Empty(t, w.lines)
}

func TestHooks_ModuleState(t *testing.T) {
	eng, w, h, _ := newHookEngine(t)
	require.NoError(t, h.Load(writeScript(t, `
function on_stop(ev)
  local s = gdbmi.state()
  gdbmi.log("stopped in " .. s.func)
  return "-echo " .. s.status .. " " .. s.generation
end
`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	require.Len(t, w.lines, 1)
	assert.True(t, strings.HasPrefix(w.lines[0], "1-echo stopped "), w.lines[0])
}

func TestHooks_UnsafeLibrariesMissing(t *testing.T) {
	_, _, h, _ := newHookEngine(t)
	err := h.Load(writeScript(t, `os.execute("true")`))
	assert.Error(t, err)

	err = h.Load(writeScript(t, `io.open("/etc/passwd")`))
	assert.Error(t, err)
}

func TestHooks_Timeout(t *testing.T) {
	eng, _, h, errs := newHookEngine(t, WithCallTimeout(50*time.Millisecond))
	require.NoError(t, h.Load(writeScript(t, `function on_stop(ev) while true do end end`)))

	require.NoError(t, eng.Feed([]byte(stopRecord)))
	require.Len(t, *errs, 1)
	assert.ErrorAs(t, (*errs)[0], new(*HookError))
}
