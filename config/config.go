// Package config holds the configuration a wampcore session and its
// demo CLI are constructed from, split the way the teacher agent splits
// wire-level connection settings from process-level CLI settings.
package config

import (
	"crypto/tls"
	"time"

	"github.com/BurntSushi/toml"
)

// SessionConfig is everything the demo CLI needs to dial a router and open
// a session: the realm to join, the router's WebSocket endpoint, and the
// operational timeouts/TLS material governing the connection. It carries
// no protocol state — that lives on the session itself.
type SessionConfig struct {
	Realm           string        `toml:"realm"`
	RouterURL       string        `toml:"router_url"`
	ResponseTimeout time.Duration `toml:"-"`
	TLSConfig       *tls.Config   `toml:"-"`
}

// fileConfig is the on-disk TOML shape for SessionConfig, following the
// fileConfig/meta.IsDefined pattern used to decode CLI configs elsewhere in
// the ecosystem: durations and TLS material aren't representable directly
// in TOML, so they're parsed from plain fields and translated.
type fileConfig struct {
	Realm               string `toml:"realm"`
	RouterURL           string `toml:"router_url"`
	ResponseTimeoutMS   int64  `toml:"response_timeout_ms"`
	InsecureSkipVerify  bool   `toml:"insecure_skip_verify"`
}

// DefaultResponseTimeout mirrors the teacher's 3-second nexus client
// default when a config file doesn't specify one.
const DefaultResponseTimeout = 3 * time.Second

// Load decodes a SessionConfig from a TOML file at path, applying defaults
// for any field the file leaves undefined.
func Load(path string) (*SessionConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, err
	}

	cfg := &SessionConfig{
		Realm:           raw.Realm,
		RouterURL:       raw.RouterURL,
		ResponseTimeout: DefaultResponseTimeout,
	}

	if meta.IsDefined("response_timeout_ms") && raw.ResponseTimeoutMS > 0 {
		cfg.ResponseTimeout = time.Duration(raw.ResponseTimeoutMS) * time.Millisecond
	}

	if meta.IsDefined("insecure_skip_verify") && raw.InsecureSkipVerify {
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return cfg, nil
}

// CLIArguments carries the demo CLI's own process-level flags, distinct
// from the wire-level SessionConfig they're used alongside.
type CLIArguments struct {
	ConfigFile    string
	LogFile       string
	Debug         bool
	PrettyLogging bool
}
