// Package tomlconfig loads the server's TOML configuration file.
//
// The teacher's own config loader (github.com/horgh/config) reads flat
// "key = value" files and cannot express the nested [server] table and
// [[oper]] array of tables this format calls for, so this package reads
// TOML instead, using github.com/BurntSushi/toml — the standard
// decoding library for the format in the Go ecosystem. It otherwise
// follows the teacher's checkAndParseConfig shape: defaults filled in
// for missing keys, then returned as a plain struct.
package tomlconfig

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Oper is a single configured server-operator credential.
type Oper struct {
	Name     string `toml:"name"`
	Password string `toml:"password"`
}

// Server holds the [server] table.
type Server struct {
	Name     string
	Host     string
	Port     int
	MOTDPath string `toml:"motd_path"`
}

// Config is the top level of the configuration file.
type Config struct {
	Server Server
	Oper   []Oper
}

const (
	defaultName     = "ayame"
	defaultHost     = "127.0.0.1"
	defaultPort     = 6667
	defaultMOTDPath = "motd.txt"
)

// rawConfig lets us distinguish "key present but zero value" from "key
// absent" for the port, since 0 is not a valid default to fall back from
// via the zero value alone once a user explicitly wants ephemeral-port-ish
// behavior. In practice we just apply defaults for the zero value, which
// matches spec: nobody configures port 0 for an IRC server.
type rawConfig struct {
	Server struct {
		Name     *string `toml:"name"`
		Host     *string `toml:"host"`
		Port     *int    `toml:"port"`
		MOTDPath *string `toml:"motd_path"`
	} `toml:"server"`
	Oper []Oper `toml:"oper"`
}

// Load reads and validates the configuration file at path, applying
// documented defaults for any absent [server] keys.
func Load(path string) (*Config, error) {
	var raw rawConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Wrapf(err, "unable to decode config file %s", path)
	}

	cfg := &Config{
		Server: Server{
			Name:     defaultName,
			Host:     defaultHost,
			Port:     defaultPort,
			MOTDPath: defaultMOTDPath,
		},
		Oper: raw.Oper,
	}

	if raw.Server.Name != nil && *raw.Server.Name != "" {
		cfg.Server.Name = *raw.Server.Name
	}
	if raw.Server.Host != nil && *raw.Server.Host != "" {
		cfg.Server.Host = *raw.Server.Host
	}
	if raw.Server.Port != nil && *raw.Server.Port != 0 {
		cfg.Server.Port = *raw.Server.Port
	}
	if raw.Server.MOTDPath != nil && *raw.Server.MOTDPath != "" {
		cfg.Server.MOTDPath = *raw.Server.MOTDPath
	}

	for i, op := range cfg.Oper {
		if op.Name == "" {
			return nil, errors.Errorf("oper entry %d is missing a name", i)
		}
	}

	return cfg, nil
}
