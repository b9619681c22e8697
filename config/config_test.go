package config

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
)

func TestDefaultIsValid(t *testing.T) {
	qt.Assert(t, Default().Validate(), qt.IsNil)
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"bls curve", func(cfg *Config) { cfg.Curve = curves.CurveTypeBLS12_381 }, ""},
		{"ask policy", func(cfg *Config) { cfg.InvalidPolicy = PolicyAsk }, ""},
		{"javascript", func(cfg *Config) { cfg.Format = "js" }, ""},
		{"memory db", func(cfg *Config) { cfg.DBType = "memory" }, ""},
		{"curve", func(cfg *Config) { cfg.Curve = "secp256k1" }, `unsupported curve "secp256k1".*`},
		{"format", func(cfg *Config) { cfg.Format = "yaml" }, `unknown output format "yaml"`},
		{"log level", func(cfg *Config) { cfg.LogLevel = "trace" }, `invalid log level "trace"`},
		{"db type", func(cfg *Config) { cfg.DBType = "mongodb" }, `invalid database type "mongodb".*`},
		{"port", func(cfg *Config) { cfg.Port = 70000 }, "invalid port: 70000"},
		{"time window", func(cfg *Config) { cfg.BatchTimeWindow = 0 }, "batch time window must be positive"},
		{"batch size", func(cfg *Config) { cfg.BatchSize = -1 }, "batch size cannot be negative: -1"},
		{"policy", func(cfg *Config) { cfg.InvalidPolicy = "retry" }, `unknown invalid ballot policy "retry".*`},
	} {
		c.Run(tc.name, func(c *qt.C) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.err == "" {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorMatches, tc.err)
		})
	}
}

func TestDefaultTimeWindow(t *testing.T) {
	qt.Assert(t, Default().BatchTimeWindow, qt.Equals, 30*time.Second)
}
