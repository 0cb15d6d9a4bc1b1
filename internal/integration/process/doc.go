// Package process supervises debugger subprocesses.
//
// A Spec describes the command line; Supervisor.Launch starts it with its
// standard streams piped and tracks it until it exits:
//
//	sup := process.NewSupervisor(process.WithLogger(log))
//	defer sup.Shutdown(5 * time.Second)
//
//	proc, err := sup.Launch(process.Spec{
//	    Name: "gdb",
//	    Path: "gdb",
//	    Args: []string{"--interpreter=mi2", "--quiet", "./a.out"},
//	})
//	if err != nil {
//	    return err
//	}
//	<-proc.Done()
//	fmt.Println(proc.ExitCode())
//
// Shutdown sends SIGTERM to every process still running, waits for the
// grace period and kills whatever is left.
//
// Supervisor and Process are safe for concurrent use.
package process
