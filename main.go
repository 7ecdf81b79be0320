package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/synadia-labs/node-info-server/internal/config"
	"github.com/synadia-labs/node-info-server/internal/listener"
	"github.com/synadia-labs/node-info-server/internal/logger"
	"github.com/synadia-labs/node-info-server/internal/service"
	"go.uber.org/zap"
)

func main() {
	log, err := logger.New()
	if err != nil {
		os.Stderr.WriteString("error creating logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	// pre-flight checks, before any socket is opened
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	lister := service.NewLister(cfg.Command)

	// optional nats transport
	if cfg.Nats.Enabled() {
		nc, err := connectNats(cfg.Nats, log)
		if err != nil {
			log.Fatalw("error connecting to nats", "url", cfg.Nats.Url, "error", err)
		}
		defer nc.Close()

		svc, err := service.StartNATSMicro(nc, lister, log)
		if err != nil {
			log.Fatalw("error starting nats micro service", "error", err)
		}
		defer svc.Stop()
		log.Infow("nats micro service started", "name", service.Name, "prefix", service.Prefix)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := listener.Listen(ctx, cfg.Http.Port)
	if err != nil {
		log.Fatalw("error binding listener", "port", cfg.Http.Port, "error", err)
	}

	srv := service.NewHTTPServer(cfg.Http, lister, log)

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ln)
	}()
	log.Infow("http server started",
		"addr", ln.Addr().String(),
		"family", ln.Family,
		"command", cfg.Command,
		"access_log", cfg.Http.AccessLog,
	)

	select {
	case err := <-served:
		log.Fatalw("http server stopped", "error", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("error shutting down http server", "error", err)
	}
	log.Infow("http server stopped")
}

func connectNats(cfg config.NatsConfig, log *zap.SugaredLogger) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name(service.Name)}
	if cfg.Jwt != "" {
		opts = append(opts, nats.UserJWTAndSeed(cfg.Jwt, cfg.Nkey))
		pub, err := cfg.PublicKey()
		if err != nil {
			return nil, err
		}
		log.Infow("using nats user credentials", "public_key", pub)
	}
	return nats.Connect(cfg.Url, opts...)
}
