// Package debug drives a debugger that speaks the GDB Machine Interface.
//
// The Engine owns one debugger session. Output bytes from the debugger are
// handed to Engine.Feed in whatever chunks they arrive; commands go out
// through Engine.Send with a continuation that fires once their result
// record comes back.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                          Engine.Feed                            │
//	│  bytes → mi.Demuxer → ordered records → router                  │
//	└─────────────────────────────────────────────────────────────────┘
//	        │                      │                       │
//	        ▼                      ▼                       ▼
//	  execution state        sink text (User /       token resolution
//	  (status, thread,       Internal scratch)       (mi.Registry)
//	  frame, generation)
//	        │
//	        ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│  end of batch: frame query, then each pending signal once       │
//	│  on the event.Bus → views → Engine.Query (coalesced)            │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Sinks
//
// Console and log text goes to the User sink (the display callback) unless
// a capture command is in flight, in which case it accumulates in a scratch
// buffer and is handed to that command's continuation as Reply.Output.
// A token-less result always switches back to the User sink.
//
// # Background Queries
//
// Views refresh through Engine.Query. Requests are deduplicated globally per
// query kind: while a query of a kind is in flight, further requests of that
// kind only register their owner as a waiter, and every waiter receives the
// single reply. Kinds that depend on the selected thread or frame should
// fold the qualifier into the kind string.
//
// A reply that arrives after the execution state moved on (see
// State.Generation) is not delivered. The query is re-issued once if the
// debuggee is stopped and dropped otherwise.
//
// # Concurrency
//
// Engine is not safe for concurrent use. All calls, including Feed, must
// happen on one goroutine; gdb.Host provides such a loop. Continuations and
// bus handlers run on that goroutine and may call Send and Query, but not
// Feed.
package debug
