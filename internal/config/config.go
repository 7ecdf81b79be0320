package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/nats-io/nkeys"
)

const (
	DefaultPort = 18080

	// DefaultCommand lists the containers managed on this node.
	DefaultCommand = "/bin/bash /app/managedocker.sh list"
)

type NatsConfig struct {
	Url  string
	Nkey string
	Jwt  string
}

// Enabled reports whether the NATS transport should be started.
func (n NatsConfig) Enabled() bool {
	return n.Url != ""
}

type HttpConfig struct {
	Port      int
	AccessLog bool
}

type Config struct {
	Http    HttpConfig
	Nats    NatsConfig
	Command []string
}

// LoadConfig reads the process environment, after merging an optional .env
// file from the working directory. Variables already set in the environment
// take precedence over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %s", err)
	}
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	port, err := parsePort()
	if err != nil {
		return nil, err
	}

	accessLog := false
	if raw, ok := os.LookupEnv("NODEINFO_ACCESS_LOG"); ok {
		accessLog, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("NODEINFO_ACCESS_LOG is not a boolean: %q", raw)
		}
	}

	command, err := ParseCommand(DefaultCommand)
	if err != nil {
		return nil, err
	}

	natsCfg, err := parseNats()
	if err != nil {
		return nil, err
	}

	return &Config{
		Http: HttpConfig{
			Port:      port,
			AccessLog: accessLog,
		},
		Nats:    natsCfg,
		Command: command,
	}, nil
}

// Only an absent PORT0 falls back to the default; a present but malformed
// value is an error.
func parsePort() (int, error) {
	raw, ok := os.LookupEnv("PORT0")
	if !ok {
		return DefaultPort, nil
	}

	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("PORT0 is not a number: %q", raw)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("PORT0 is out of range: %d", port)
	}
	return port, nil
}

// ParseCommand splits a shell-style command line into an argument vector.
func ParseCommand(command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("error parsing command \"%s\": %s", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	return args, nil
}

func parseNats() (NatsConfig, error) {
	natsUrl := os.Getenv("NODEINFO_NATS_URL")
	if natsUrl == "" {
		return NatsConfig{}, nil
	}

	natsNkey := strings.TrimSpace(os.Getenv("NODEINFO_NATS_NKEY"))
	natsJwtB64 := os.Getenv("NODEINFO_NATS_B64_JWT")

	if natsNkey == "" && natsJwtB64 == "" {
		return NatsConfig{Url: natsUrl}, nil
	}
	if natsNkey == "" {
		return NatsConfig{}, fmt.Errorf("missing NODEINFO_NATS_NKEY")
	}
	if natsJwtB64 == "" {
		return NatsConfig{}, fmt.Errorf("missing NODEINFO_NATS_B64_JWT")
	}

	if _, err := nkeys.FromSeed([]byte(natsNkey)); err != nil {
		return NatsConfig{}, fmt.Errorf("NODEINFO_NATS_NKEY is not a valid seed: %s", err)
	}

	natsJwtBytes, err := base64.StdEncoding.DecodeString(natsJwtB64)
	if err != nil {
		return NatsConfig{}, fmt.Errorf("NODEINFO_NATS_B64_JWT is invalid base64: %s", err)
	}

	return NatsConfig{
		Url:  natsUrl,
		Nkey: natsNkey,
		Jwt:  strings.TrimSpace(string(natsJwtBytes)),
	}, nil
}

// PublicKey returns the user public key derived from the configured seed.
func (n NatsConfig) PublicKey() (string, error) {
	if n.Nkey == "" {
		return "", nil
	}
	kp, err := nkeys.FromSeed([]byte(n.Nkey))
	if err != nil {
		return "", fmt.Errorf("error reading nkey seed: %s", err)
	}
	defer kp.Wipe()
	return kp.PublicKey()
}
