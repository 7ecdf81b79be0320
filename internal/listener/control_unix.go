//go:build unix

package listener

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// control runs before bind. It enables address reuse on every socket and
// turns off IPV6_V6ONLY on IPv6 sockets so IPv4 clients are accepted too.
func control(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			sockErr = errors.Wrap(sockErr, "setsockopt SO_REUSEADDR")
			return
		}
		if network == "tcp6" {
			sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
			if sockErr != nil {
				sockErr = errors.Wrap(sockErr, "setsockopt IPV6_V6ONLY")
			}
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
