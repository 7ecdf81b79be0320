// Package listener opens the single listening socket the server runs on.
package listener

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

type Family string

const (
	DualStack Family = "dual-stack"
	IPv4      Family = "ipv4"
)

type listenFunc func(ctx context.Context, network, address string) (net.Listener, error)

// Bound is a listening socket together with the address family it was
// opened on.
type Bound struct {
	net.Listener
	Family Family
}

type binder struct {
	listen listenFunc
}

func newBinder() *binder {
	lc := &net.ListenConfig{Control: control}
	return &binder{listen: lc.Listen}
}

// Listen binds [::]:port with IPv4-mapped addresses accepted. If that fails
// for any reason it makes one attempt on 0.0.0.0:port.
func Listen(ctx context.Context, port int) (*Bound, error) {
	return newBinder().bind(ctx, port)
}

func (b *binder) bind(ctx context.Context, port int) (*Bound, error) {
	p := strconv.Itoa(port)

	ln, dualErr := b.listen(ctx, "tcp6", net.JoinHostPort("::", p))
	if dualErr == nil {
		return &Bound{Listener: ln, Family: DualStack}, nil
	}
	dualErr = errors.Wrapf(dualErr, "listen tcp6 [::]:%s", p)

	ln, err := b.listen(ctx, "tcp4", net.JoinHostPort("0.0.0.0", p))
	if err != nil {
		return nil, fmt.Errorf("%s; fallback: %w", dualErr, errors.Wrapf(err, "listen tcp4 0.0.0.0:%s", p))
	}
	return &Bound{Listener: ln, Family: IPv4}, nil
}
