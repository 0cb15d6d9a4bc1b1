// Package mi implements the wire layer of the GDB Machine Interface.
//
// GDB in MI mode writes a single output stream that interleaves console
// text, log text, command results and unsolicited notifications. The
// package splits that stream into typed records, decodes the bracketed
// key=value payload grammar, and correlates results to commands through
// integer tokens.
//
// # Records
//
// Every complete output line becomes one Record:
//
//	~"text"                      console stream
//	@"text"                      target stream
//	&"text"                      log stream
//	N^done,key=value,...         command result (token N is optional)
//	N*stopped,key=value,...      exec async
//	N+download,key=value,...     status async
//	N=thread-created,...         notify async
//	(gdb)                        prompt
//
// Lines matching none of these shapes become KindUnrecognized records
// carrying a DesyncError. They are never dropped.
//
// # Demultiplexing
//
// Demuxer.Feed accepts chunks of arbitrary size. Only complete lines are
// matched, so a record split across two chunks stays buffered until its
// newline arrives:
//
//	d := mi.NewDemuxer()
//	d.Feed([]byte("5^don"))          // no records
//	d.Feed([]byte("e,value=\"1\"\n")) // one KindResult, token 5
//
// # Payloads
//
// Decode converts a payload into a Result, a JSON document queried with
// gjson paths. Repeated keys at one nesting level become arrays:
//
//	res, _ := mi.Decode(`value="5"`)
//	res.Get("value").String() // "5"
//
// # Tokens
//
// Registry hands out strictly increasing tokens and resolves exactly one
// Continuation per token. Resolving an unknown token is a benign no-op
// reported as ErrUnknownToken.
package mi
