package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type listenCall struct {
	network string
	address string
}

func stubBinder(calls *[]listenCall, fail map[string]error) *binder {
	return &binder{
		listen: func(ctx context.Context, network, address string) (net.Listener, error) {
			*calls = append(*calls, listenCall{network: network, address: address})
			if err, ok := fail[network]; ok {
				return nil, err
			}
			return net.Listen("tcp", "127.0.0.1:0")
		},
	}
}

func TestBindPrefersDualStack(t *testing.T) {
	var calls []listenCall
	b := stubBinder(&calls, nil)

	bound, err := b.bind(context.Background(), 18080)
	require.NoError(t, err)
	defer bound.Close()

	require.Equal(t, DualStack, bound.Family)
	require.Equal(t, []listenCall{{network: "tcp6", address: "[::]:18080"}}, calls)
}

func TestBindFallsBackToIPv4(t *testing.T) {
	var calls []listenCall
	b := stubBinder(&calls, map[string]error{
		"tcp6": errors.New("address family not supported by protocol"),
	})

	bound, err := b.bind(context.Background(), 18080)
	require.NoError(t, err)
	defer bound.Close()

	require.Equal(t, IPv4, bound.Family)
	require.Equal(t, []listenCall{
		{network: "tcp6", address: "[::]:18080"},
		{network: "tcp4", address: "0.0.0.0:18080"},
	}, calls)
}

func TestBindBothFail(t *testing.T) {
	var calls []listenCall
	inUse := errors.New("address already in use")
	b := stubBinder(&calls, map[string]error{
		"tcp6": errors.New("address family not supported by protocol"),
		"tcp4": inUse,
	})

	bound, err := b.bind(context.Background(), 80)
	require.Nil(t, bound)
	require.ErrorIs(t, err, inUse)
	require.EqualError(t, err,
		"listen tcp6 [::]:80: address family not supported by protocol; fallback: listen tcp4 0.0.0.0:80: address already in use")
	require.Len(t, calls, 2)
}

func TestListenAcceptsIPv4Clients(t *testing.T) {
	bound, err := Listen(context.Background(), 0)
	require.NoError(t, err)
	defer bound.Close()

	port := bound.Addr().(*net.TCPAddr).Port
	require.NotZero(t, port)

	done := make(chan string, 1)
	go func() {
		conn, err := bound.Accept()
		if err != nil {
			done <- err.Error()
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		done <- string(b)
	}()

	conn, err := net.Dial("tcp4", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Equal(t, "hello", <-done)
}

func TestListenRebindsAfterClose(t *testing.T) {
	first, err := Listen(context.Background(), 0)
	require.NoError(t, err)
	port := first.Addr().(*net.TCPAddr).Port
	require.NoError(t, first.Close())

	second, err := Listen(context.Background(), port)
	require.NoError(t, err)
	defer second.Close()
	require.Equal(t, port, second.Addr().(*net.TCPAddr).Port)
}
