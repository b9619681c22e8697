package main

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/api/client"
	"github.com/vocdoni/batravot/election"
)

func TestParseFlags(t *testing.T) {
	c := qt.New(t)
	cfg, err := parseFlags(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 9090)
	c.Assert(cfg.MonitorInterval, qt.Equals, time.Minute)

	cfg, err = parseFlags([]string{"--curve", "bls12_381", "-p", "0", "--batchTimeWindow", "5s", "--policy", "keep"})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Curve, qt.Equals, "bls12_381")
	c.Assert(cfg.BatchTimeWindow, qt.Equals, 5*time.Second)
	c.Assert(cfg.InvalidPolicy, qt.Equals, "keep")

	_, err = parseFlags([]string{"--policy", "ask"})
	c.Assert(err, qt.ErrorMatches, "the ask policy is only available in the command line tool")
	_, err = parseFlags([]string{"--dbType", "mongodb"})
	c.Assert(err, qt.ErrorMatches, `invalid database type "mongodb".*`)
	_, err = parseFlags([]string{"--monitorInterval", "0s"})
	c.Assert(err, qt.ErrorMatches, "monitor interval must be positive")
	_, err = parseFlags([]string{"--unknown"})
	c.Assert(err, qt.ErrorMatches, "unknown flag: --unknown")
}

func TestStartNode(t *testing.T) {
	c := qt.New(t)
	cfg, err := parseFlags([]string{"--dataDir", t.TempDir(), "--host", "127.0.0.1", "--port", "0", "--dbType", "memory"})
	c.Assert(err, qt.IsNil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := startNode(ctx, cfg)
	c.Assert(err, qt.IsNil)
	defer n.stop()

	cli, err := client.New(n.api.URL())
	c.Assert(err, qt.IsNil)
	_, err = cli.NewElection(election.NewID(1), "", uuid.Nil)
	c.Assert(err, qt.IsNil)
	agg, err := cli.Aggregate(election.NewID(1))
	c.Assert(err, qt.IsNil)
	c.Assert(agg.General, qt.IsTrue)
}
