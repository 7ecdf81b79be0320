package service

import (
	"fmt"
	"strings"
)

// ListResult is the outcome of one run of the management command.
type ListResult struct {
	// stdout and stderr, merged in the order the child wrote them
	Output []byte
	// -1 when the process never started
	Code int
	Err  error

	args []string
}

func (r *ListResult) OK() bool {
	return r.Err == nil
}

// Body is the text returned to callers: the command output when there is
// any, otherwise a description of the failure. Invalid UTF-8 is replaced
// with U+FFFD.
func (r *ListResult) Body() []byte {
	if len(r.Output) > 0 || r.OK() {
		return []byte(strings.ToValidUTF8(string(r.Output), "�"))
	}
	return []byte(r.Description())
}

// Description names the command and why it failed.
func (r *ListResult) Description() string {
	if r.OK() {
		return ""
	}
	return fmt.Sprintf("command \"%s\" failed: %s", strings.Join(r.args, " "), r.Err)
}
