// Package views implements the consumers of debugger state: thread list,
// breakpoints, call stack, locals and disassembly.
//
// Each view subscribes to the engine's invalidation bus when created and
// unsubscribes on Close. On a relevant signal it refreshes through
// debug.Engine.Query, decodes the reply into typed data and passes it to a
// render callback. Rendering itself is up to the caller.
//
// Replies arriving after Close are ignored.
package views
