package views

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

type fakeGDB struct {
	lines []string
}

func (f *fakeGDB) Write(p []byte) (int, error) {
	f.lines = append(f.lines, string(p))
	return len(p), nil
}

func newEngine(t *testing.T) (*debug.Engine, *fakeGDB) {
	t.Helper()
	gdb := &fakeGDB{}
	return debug.New(gdb, debug.WithFrameTracking(false)), gdb
}

func feed(t *testing.T, e *debug.Engine, s string) {
	t.Helper()
	require.NoError(t, e.Feed([]byte(s)))
}

const stopped = `*stopped,reason="breakpoint-hit",disp="keep",bkptno="1",frame={addr="0x0000000000401136",func="main",args=[],file="hello.c",fullname="/tmp/hello.c",line="7"},thread-id="1",stopped-threads="all"` + "\n"

const threadInfo = `1^done,threads=[{id="2",target-id="Thread 0x7ffff7d8a640 (LWP 4243)",name="worker",frame={level="0",addr="0x0000000000401200",func="work",args=[],file="hello.c",fullname="/tmp/hello.c",line="20"},state="stopped",core="1"},{id="1",target-id="Thread 0x7ffff7d8b740 (LWP 4242)",name="hello",frame={level="0",addr="0x0000000000401136",func="main",args=[],file="hello.c",fullname="/tmp/hello.c",line="7"},state="stopped",core="0"}],current-thread-id="1"` + "\n"

func TestThreadsView(t *testing.T) {
	e, gdb := newEngine(t)
	var got []ThreadList
	v, err := NewThreads(e, func(l ThreadList) { got = append(got, l) })
	require.NoError(t, err)
	assert.True(t, e.Bus().Has(v.ID()))

	feed(t, e, stopped)
	assert.Equal(t, []string{"1-thread-info\n"}, gdb.lines)

	feed(t, e, threadInfo)
	want := ThreadList{
		Current: 1,
		Threads: []ThreadInfo{
			{ID: 2, TargetID: "Thread 0x7ffff7d8a640 (LWP 4243)", Name: "worker", State: "stopped", Core: "1",
				Frame: Frame{Addr: "0x0000000000401200", Func: "work", File: "hello.c", Line: 20}},
			{ID: 1, TargetID: "Thread 0x7ffff7d8b740 (LWP 4242)", Name: "hello", State: "stopped", Core: "0",
				Frame: Frame{Addr: "0x0000000000401136", Func: "main", File: "hello.c", Line: 7}},
		},
	}
	require.Len(t, got, 1)
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("thread list mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoThreadViewsShareOneCommand(t *testing.T) {
	e, gdb := newEngine(t)
	renders := 0
	for i := 0; i < 2; i++ {
		_, err := NewThreads(e, func(ThreadList) { renders++ })
		require.NoError(t, err)
	}

	feed(t, e, stopped)
	assert.Equal(t, []string{"1-thread-info\n"}, gdb.lines)
	feed(t, e, threadInfo)
	assert.Equal(t, 2, renders)
}

func TestViewClosedIgnoresLateReply(t *testing.T) {
	e, gdb := newEngine(t)
	renders := 0
	v, err := NewThreads(e, func(ThreadList) { renders++ })
	require.NoError(t, err)

	feed(t, e, stopped)
	require.Len(t, gdb.lines, 1)
	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	assert.True(t, v.Closed())
	assert.Zero(t, e.Bus().Len())

	feed(t, e, threadInfo)
	assert.Zero(t, renders)
	assert.Zero(t, e.Pending().Len())

	feed(t, e, stopped)
	assert.Len(t, gdb.lines, 1)
}

func TestThreadsViewExit(t *testing.T) {
	e, gdb := newEngine(t)
	var got []ThreadList
	_, err := NewThreads(e, func(l ThreadList) { got = append(got, l) })
	require.NoError(t, err)

	_, err = e.Send("-gdb-exit", nil)
	require.NoError(t, err)
	feed(t, e, "1^exit\n")
	assert.Equal(t, []ThreadList{{}}, got)
	assert.Len(t, gdb.lines, 1)
}

func TestViewSkipsRefreshWhileRunning(t *testing.T) {
	e, gdb := newEngine(t)
	v, err := NewStack(e, func([]Frame) {})
	require.NoError(t, err)
	feed(t, e, "*running,thread-id=\"all\"\n")
	require.NoError(t, v.Refresh())
	assert.Empty(t, gdb.lines)
}

func TestViewErrorHandler(t *testing.T) {
	e, _ := newEngine(t)
	var errs []error
	rendered := false
	_, err := NewLocals(e, func([]Variable) { rendered = true }, WithErrorHandler(func(err error) { errs = append(errs, err) }))
	require.NoError(t, err)

	feed(t, e, stopped)
	feed(t, e, "1^error,msg=\"No frame selected.\"\n")
	assert.False(t, rendered)
	require.Len(t, errs, 1)
	var cerr *mi.CommandError
	require.True(t, errors.As(errs[0], &cerr))
	assert.Equal(t, "No frame selected.", cerr.Msg)
}

func TestBreakpointsView(t *testing.T) {
	e, gdb := newEngine(t)
	var got [][]Breakpoint
	_, err := NewBreakpoints(e, func(bps []Breakpoint) { got = append(got, bps) })
	require.NoError(t, err)

	feed(t, e, "*running,thread-id=\"all\"\n")
	feed(t, e, `=breakpoint-created,bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x0000000000401150",func="work",file="hello.c",line="20",times="0"}`+"\n")
	assert.Equal(t, []string{"1-break-list\n"}, gdb.lines)

	feed(t, e, `1^done,BreakpointTable={nr_rows="2",nr_cols="6",hdr=[{width="7",alignment="-1",col_name="number",colhdr="Num"}],body=[`+
		`bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="<MULTIPLE>",times="3",cond="i > 2",original-location="add"},`+
		`{number="1.1",enabled="y",addr="0x0000000000401126",func="add<int>",file="t.cc",line="3"},`+
		`{number="1.2",enabled="n",addr="0x0000000000401140",func="add<long>",file="t.cc",line="3"},`+
		`bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x0000000000401150",func="work",file="hello.c",line="20",times="0"}]}`+"\n")

	want := []Breakpoint{
		{
			Number: "1", Type: "breakpoint", Disp: "keep", Enabled: true, Addr: "<MULTIPLE>", Times: 3,
			Condition: "i > 2", OriginalLocation: "add",
			Locations: []Location{
				{Number: "1.1", Enabled: true, Addr: "0x0000000000401126", Func: "add<int>", File: "t.cc", Line: 3},
				{Number: "1.2", Enabled: false, Addr: "0x0000000000401140", Func: "add<long>", File: "t.cc", Line: 3},
			},
		},
		{Number: "2", Type: "breakpoint", Disp: "keep", Enabled: true, Addr: "0x0000000000401150", Func: "work", File: "hello.c", Line: 20},
	}
	require.Len(t, got, 1)
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("breakpoints mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBkptNestedLocations(t *testing.T) {
	res, err := mi.Decode(`bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="<MULTIPLE>",times="0",original-location="add",locations=[{number="1.1",enabled="y",addr="0x1",func="add<int>",file="t.cc",line="3"},{number="1.2",enabled="y",addr="0x2",func="add<long>",file="t.cc",line="3"}]}`)
	require.NoError(t, err)
	bps := DecodeBkpt(res)
	require.Len(t, bps, 1)
	require.Len(t, bps[0].Locations, 2)
	assert.Equal(t, "1.2", bps[0].Locations[1].Number)
	assert.Equal(t, "add<long>", bps[0].Locations[1].Func)
}

func TestDecodeBkptRepeatedTuples(t *testing.T) {
	res, err := mi.Decode(`bkpt={number="1",type="breakpoint",addr="<MULTIPLE>"},{number="1.1",addr="0x1",func="f",file="a.c",line="1"},{number="1.2",addr="0x2",func="g",file="a.c",line="2"}`)
	require.NoError(t, err)
	bps := DecodeBkpt(res)
	require.Len(t, bps, 1)
	assert.Equal(t, []string{"1.1", "1.2"}, []string{bps[0].Locations[0].Number, bps[0].Locations[1].Number})
}

func TestStackView(t *testing.T) {
	e, gdb := newEngine(t)
	var got []Frame
	_, err := NewStack(e, func(f []Frame) { got = f }, WithDepth(10))
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{"1-stack-list-frames --thread 1 0 9\n"}, gdb.lines)

	feed(t, e, `1^done,stack=[frame={level="0",addr="0x0000000000401136",func="main",file="hello.c",line="7"},frame={level="1",addr="0x00007ffff7829d90",func="__libc_start_call_main",from="/lib/x86_64-linux-gnu/libc.so.6"}]`+"\n")
	want := []Frame{
		{Level: 0, Addr: "0x0000000000401136", Func: "main", File: "hello.c", Line: 7},
		{Level: 1, Addr: "0x00007ffff7829d90", Func: "__libc_start_call_main", From: "/lib/x86_64-linux-gnu/libc.so.6"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestStackViewsWithDifferentDepths(t *testing.T) {
	e, gdb := newEngine(t)
	var short, long []Frame
	_, err := NewStack(e, func(f []Frame) { short = f }, WithDepth(1))
	require.NoError(t, err)
	_, err = NewStack(e, func(f []Frame) { long = f }, WithDepth(10))
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{
		"1-stack-list-frames --thread 1 0 0\n",
		"2-stack-list-frames --thread 1 0 9\n",
	}, gdb.lines)
	assert.Equal(t, []string{"stack --thread 1 depth=1", "stack --thread 1 depth=10"}, e.Pending().Kinds())

	feed(t, e, `1^done,stack=[frame={level="0",func="main"}]`+"\n"+
		`2^done,stack=[frame={level="0",func="main"},frame={level="1",func="__libc_start_call_main"}]`+"\n")
	assert.Len(t, short, 1)
	assert.Len(t, long, 2)
}

func TestDisassemblyViewsWithDifferentWindows(t *testing.T) {
	e, gdb := newEngine(t)
	_, err := NewDisassembly(e, func([]Instruction) {}, WithWindow(16))
	require.NoError(t, err)
	_, err = NewDisassembly(e, func([]Instruction) {}, WithWindow(64))
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{
		"1-data-disassemble --thread 1 --frame 0 -s $pc-16 -e $pc+16 -- 0\n",
		"2-data-disassemble --thread 1 --frame 0 -s $pc-64 -e $pc+64 -- 0\n",
	}, gdb.lines)
}

func TestLocalsView(t *testing.T) {
	e, gdb := newEngine(t)
	var got []Variable
	_, err := NewLocals(e, func(v []Variable) { got = v })
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{"1-stack-list-locals --thread 1 --frame 0 --simple-values\n"}, gdb.lines)

	feed(t, e, `1^done,locals=[{name="i",type="int",value="3"},{name="buf",type="char [16]"}]`+"\n")
	assert.Equal(t, []Variable{{Name: "i", Type: "int", Value: "3"}, {Name: "buf", Type: "char [16]"}}, got)
}

func TestDisassemblyView(t *testing.T) {
	e, gdb := newEngine(t)
	var got []Instruction
	_, err := NewDisassembly(e, func(in []Instruction) { got = in }, WithWindow(16))
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{"1-data-disassemble --thread 1 --frame 0 -s $pc-16 -e $pc+16 -- 0\n"}, gdb.lines)

	feed(t, e, `1^done,asm_insns=[{address="0x0000000000401132",func-name="main",offset="4",inst="sub    $0x10,%rsp"},{address="0x0000000000401136",func-name="main",offset="8",inst="movl   $0x0,-0x4(%rbp)"}]`+"\n")
	want := []Instruction{
		{Address: "0x0000000000401132", Func: "main", Offset: 4, Inst: "sub    $0x10,%rsp"},
		{Address: "0x0000000000401136", Func: "main", Offset: 8, Inst: "movl   $0x0,-0x4(%rbp)", Current: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s", diff)
	}
}

func TestViewsShareStopBatch(t *testing.T) {
	e, gdb := newEngine(t)
	_, err := NewThreads(e, func(ThreadList) {})
	require.NoError(t, err)
	_, err = NewStack(e, func([]Frame) {})
	require.NoError(t, err)
	_, err = NewBreakpoints(e, func([]Breakpoint) {})
	require.NoError(t, err)

	feed(t, e, stopped)
	assert.Equal(t, []string{
		"1-thread-info\n",
		"2-stack-list-frames --thread 1\n",
		"3-break-list\n",
	}, gdb.lines)
	assert.Equal(t, []string{"break-list", "stack --thread 1", "thread-info"}, e.Pending().Kinds())
}

func TestFormat(t *testing.T) {
	threads := FormatThreads(ThreadList{Current: 1, Threads: []ThreadInfo{
		{ID: 1, TargetID: "process 42", Frame: Frame{Func: "main", File: "a.c", Line: 3}},
		{ID: 2, TargetID: "Thread 2", Name: "w"},
	}})
	assert.Equal(t, "* 1 process 42 main at a.c:3\n  2 Thread 2 \"w\"\n", threads)

	assert.Equal(t, "#0  main at a.c:3\n#1  start from libc.so\n", FormatStack([]Frame{
		{Func: "main", File: "a.c", Line: 3},
		{Level: 1, Func: "start", From: "libc.so"},
	}))

	assert.Equal(t, "int i = 3\nchar [4] s\n", FormatLocals([]Variable{
		{Name: "i", Type: "int", Value: "3"},
		{Name: "s", Type: "char [4]"},
	}))

	assert.Equal(t, "=> 0x10 <main+4>\tnop\n", FormatDisassembly([]Instruction{
		{Address: "0x10", Func: "main", Offset: 4, Inst: "nop", Current: true},
	}))

	assert.Equal(t, "1    breakpoint y a.c:3 hits=2\n", FormatBreakpoints([]Breakpoint{
		{Number: "1", Type: "breakpoint", Enabled: true, File: "a.c", Line: 3, Times: 2},
	}))
}
