package process

import (
	"os"
	"os/exec"
)

// Spec describes a subprocess to launch.
type Spec struct {
	// Name is a human readable name used in logs.
	Name string

	// Path is the program to run, resolved through PATH.
	Path string

	// Args are the program arguments.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the current
	// environment.
	Env []string
}

// Command builds the exec.Cmd for the spec.
func (s Spec) Command() (*exec.Cmd, error) {
	if s.Path == "" {
		return nil, ErrEmptyPath
	}
	cmd := exec.Command(s.Path, s.Args...)
	cmd.Dir = s.Dir
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	return cmd, nil
}

func (s Spec) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Path
}
