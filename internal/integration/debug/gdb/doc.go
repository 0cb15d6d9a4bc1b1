// Package gdb hosts a debug.Engine connected to a gdb process.
//
// Host owns the single goroutine on which the engine runs. A reader
// goroutine copies stdout chunks into an unbounded channel so that gdb is
// never blocked by a slow engine; the loop feeds them to the engine in
// order and runs calls submitted through Host.Do in between batches.
//
//	sup := process.NewSupervisor()
//	h, err := gdb.Launch(ctx, sup, gdb.LaunchConfig{Program: "./a.out"},
//	    gdb.WithEngineOptions(debug.WithDisplay(func(s string) { fmt.Print(s) })))
//	if err != nil {
//	    return err
//	}
//	defer h.Close(ctx)
//
//	reply, err := h.Exec(ctx, "-break-insert main")
package gdb
