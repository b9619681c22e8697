// Package config holds the settings shared by the batravot tools and the
// node, with their defaults and validation.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage/db/metadb"
	"go.vocdoni.io/dvote/db"
)

// PolicyAsk is the interactive invalid ballot policy, only available in the
// command line tool.
const PolicyAsk = "ask"

var (
	ErrInvalidPort       = errors.New("invalid port")
	ErrInvalidTimeWindow = errors.New("batch time window must be positive")
)

// Config is the configuration of the batravot tools and node.
type Config struct {
	// Curve is the pairing-friendly curve, see curves.Types.
	Curve string
	// Format is the rendering of curve points in reports.
	Format    string
	LogLevel  string
	LogOutput string
	DataDir   string
	DBType    string
	Host      string
	Port      int
	// BatchTimeWindow is the longest time a queued ballot waits for its
	// batch.
	BatchTimeWindow time.Duration
	BatchSize       int
	Workers         int
	// InvalidPolicy is the disposition of ballots with an invalid vote
	// proof: keep, drop, abort or ask.
	InvalidPolicy string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Curve:           curves.DefaultCurveType,
		Format:          string(format.Solidity),
		LogLevel:        log.LogLevelInfo,
		LogOutput:       "stdout",
		DataDir:         "$HOME/.batravot",
		DBType:          db.TypePebble,
		Host:            "0.0.0.0",
		Port:            9090,
		BatchTimeWindow: 30 * time.Second,
		BatchSize:       64,
		Workers:         0,
		InvalidPolicy:   "drop",
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if !slices.Contains(curves.Types(), c.Curve) {
		return fmt.Errorf("unsupported curve %q, expected one of %v", c.Curve, curves.Types())
	}
	if _, err := format.ParseFormat(c.Format); err != nil {
		return err
	}
	switch c.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError, log.LogLevelFatal:
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if !slices.Contains(metadb.Types(), c.DBType) {
		return fmt.Errorf("invalid database type %q, expected one of %v", c.DBType, metadb.Types())
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.BatchTimeWindow <= 0 {
		return ErrInvalidTimeWindow
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size cannot be negative: %d", c.BatchSize)
	}
	if c.InvalidPolicy != PolicyAsk {
		if _, err := batcher.PolicyByName(c.InvalidPolicy); err != nil {
			return err
		}
	}
	return nil
}
