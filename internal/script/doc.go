// Package script runs user Lua hooks against a debugging session.
//
// A hook script may define a global on_stop function. After every stop it
// is called with a table describing where the debuggee stopped:
//
//	function on_stop(ev)
//	  -- ev.reason, ev.thread, ev.file, ev.line, ev.func, ev.addr
//	  if ev.reason == "breakpoint-hit" then
//	    return { "-stack-list-locals --simple-values" }
//	  end
//	end
//
// The return value is a command string, a list of command strings, or nil.
// Each command is sent to gdb in order; error replies are reported but do
// not stop the remaining commands.
//
// Scripts run with the base, table, string and math libraries only. The
// gdbmi module adds gdbmi.log(msg) and gdbmi.state().
package script
