package service

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go/micro"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	micro.Request

	subject string
	data    []byte

	errCode string
	errDesc string
	errData []byte

	respondErr error
}

func (f *fakeRequest) Subject() string {
	return f.subject
}

func (f *fakeRequest) Respond(data []byte, _ ...micro.RespondOpt) error {
	f.data = data
	return f.respondErr
}

func (f *fakeRequest) Error(code, description string, data []byte, _ ...micro.RespondOpt) error {
	f.errCode = code
	f.errDesc = description
	f.errData = data
	return f.respondErr
}

func TestMicroPing(t *testing.T) {
	log, logs := observedLogger()
	req := &fakeRequest{subject: "NODEINFO.PING"}

	microHandler(NewLister(nil), log, ping).Handle(req)

	require.Equal(t, "PONG", string(req.data))
	require.Zero(t, logs.Len())
}

func TestMicroList(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		data    string
		errCode string
		errDesc string
		errData string
	}{
		{
			name: "success",
			args: []string{"sh", "-c", `printf 'node-1 running\n'`},
			data: "node-1 running\n",
		},
		{
			name:    "failure with output",
			args:    []string{"sh", "-c", "printf 'docker: connection refused' >&2; exit 1"},
			errCode: "500",
			errDesc: `command "sh -c printf 'docker: connection refused' >&2; exit 1" failed: exit status 1`,
			errData: "docker: connection refused",
		},
		{
			name:    "failure without output",
			args:    []string{"false"},
			errCode: "500",
			errDesc: `command "false" failed: exit status 1`,
			errData: `command "false" failed: exit status 1`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			log, logs := observedLogger()
			req := &fakeRequest{subject: "NODEINFO.LIST"}

			microHandler(NewLister(test.args), log, list).Handle(req)

			require.Equal(t, test.data, string(req.data))
			require.Equal(t, test.errCode, req.errCode)
			require.Equal(t, test.errDesc, req.errDesc)
			require.Equal(t, test.errData, string(req.errData))
			require.Zero(t, logs.Len())
		})
	}
}

func TestMicroRespondErrorLogged(t *testing.T) {
	log, logs := observedLogger()
	req := &fakeRequest{subject: "NODEINFO.PING", respondErr: errors.New("nats: connection closed")}

	microHandler(NewLister(nil), log, ping).Handle(req)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "nats response error", entries[0].Message)
	require.Equal(t, "NODEINFO.PING", entries[0].ContextMap()["subject"])
}
