package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestState_Call(t *testing.T) {
	st := NewState(0)
	defer st.Close()

	require.NoError(t, st.DoString(`
function add(a, b) return a + b end
answer = 42
`))
	assert.True(t, st.HasFunction("add"))
	assert.False(t, st.HasFunction("answer"))

	ret, err := st.Call("add", lua.LNumber(2), lua.LNumber(3))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(5), ret)

	ret, err = st.Call("missing")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	_, err = st.Call("answer")
	assert.ErrorIs(t, err, ErrNotFunction)
}

func TestState_LoadersRemoved(t *testing.T) {
	st := NewState(0)
	defer st.Close()
	for _, name := range []string{"dofile", "loadfile", "loadstring", "require", "os", "io"} {
		assert.Equal(t, lua.LNil, st.L.GetGlobal(name), name)
	}
	assert.Equal(t, lua.LTTable, st.L.GetGlobal("string").Type())
}

func TestState_Closed(t *testing.T) {
	st := NewState(0)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	assert.ErrorIs(t, st.DoString("x = 1"), ErrStateClosed)
	_, err := st.Call("f")
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.False(t, st.HasFunction("f"))
}

func TestCommandsOf(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	got, err := commandsOf(lua.LNil)
	require.NoError(t, err)
	assert.Empty(t, got)

	tbl := L.NewTable()
	tbl.Append(lua.LString("-exec-next"))
	tbl.Append(lua.LString("-exec-step"))
	got, err = commandsOf(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"-exec-next", "-exec-step"}, got)

	_, err = commandsOf(lua.LBool(true))
	assert.ErrorIs(t, err, ErrBadResult)
}
