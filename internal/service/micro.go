package service

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.uber.org/zap"
)

const (
	Name   = "NodeInfo"
	Prefix = "NODEINFO"
)

// StartNATSMicro exposes the node listing as a NATS micro service. The
// caller owns the returned service and must Stop it.
func StartNATSMicro(nc *nats.Conn, lister Lister, log *zap.SugaredLogger) (micro.Service, error) {
	svc, err := micro.AddService(nc, micro.Config{
		Name:        Name,
		Description: "NATS micro service listing the containers managed on this node.",
		Version:     "0.0.1",
	})
	if err != nil {
		return nil, fmt.Errorf("error creating nats micro service: %s", err)
	}

	err = svc.AddEndpoint(
		"PING",
		microHandler(lister, log, ping),
		micro.WithEndpointSubject(fmt.Sprintf("%s.PING", Prefix)),
		micro.WithEndpointMetadata(map[string]string{
			"request": "",
		}),
	)
	if err != nil {
		svc.Stop()
		return nil, fmt.Errorf("error adding PING endpoint: %s", err)
	}

	err = svc.AddEndpoint(
		"LIST",
		microHandler(lister, log, list),
		micro.WithEndpointSubject(fmt.Sprintf("%s.LIST", Prefix)),
		micro.WithEndpointMetadata(map[string]string{
			"request":  "",
			"response": "text/plain",
		}),
	)
	if err != nil {
		svc.Stop()
		return nil, fmt.Errorf("error adding LIST endpoint: %s", err)
	}

	return svc, nil
}

// Only failures to reply are logged; requests themselves are not.
func microHandler(lister Lister, log *zap.SugaredLogger, fn func(r micro.Request, lister Lister) error) micro.Handler {
	return micro.HandlerFunc(func(r micro.Request) {
		if err := fn(r, lister); err != nil {
			log.Warnw("nats response error", "subject", r.Subject(), "error", err)
		}
	})
}

func ping(r micro.Request, lister Lister) error {
	return r.Respond([]byte(lister.Ping()))
}

func list(r micro.Request, lister Lister) error {
	res := lister.List()
	if !res.OK() {
		return r.Error("500", res.Description(), res.Body())
	}
	return r.Respond(res.Body())
}
