package service

import (
	"fmt"
	"os/exec"
)

type Lister interface {
	// pong
	Ping() string

	// run the management command and capture its combined output
	List() *ListResult
}

// NewLister returns a Lister that runs args on every call. The child
// inherits the working directory and environment of this process.
func NewLister(args []string) Lister {
	return &lister{args: append([]string(nil), args...)}
}

type lister struct {
	args []string
}

func (l *lister) Ping() string {
	return "PONG"
}

func (l *lister) List() *ListResult {
	if len(l.args) == 0 {
		return &ListResult{Code: -1, Err: fmt.Errorf("no command provided")}
	}

	cmd := exec.Command(l.args[0], l.args[1:]...)
	out, err := cmd.CombinedOutput()

	res := &ListResult{
		Output: out,
		Code:   -1,
		Err:    err,
		args:   l.args,
	}
	if cmd.ProcessState != nil {
		res.Code = cmd.ProcessState.ExitCode()
	}

	if err != nil && cmd.ProcessState == nil {
		res.Err = fmt.Errorf("error starting command: %w", err)
	}
	return res
}
