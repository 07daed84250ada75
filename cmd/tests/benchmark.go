package main

import (
	"context"

	"github.com/ChizhovVadim/lazysmp/internal/tactic"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

// benchmarkHandler searches the test positions to a fixed depth one after
// another and reports the node rate.
func benchmarkHandler() error {
	var (
		path     = cliArgs.GetPath("testpath", defaultTestsPath)
		evalName = cliArgs.GetString("eval", "")
		depth    = cliArgs.GetInt("depth", 10)
		threads  = cliArgs.GetInt("threads", 1)
	)

	logger.Info().
		Str("path", path).
		Str("eval", evalName).
		Int("depth", depth).
		Int("threads", threads).
		Msg("benchmark-started")

	var tests, err = tactic.LoadEpd(path, logger)
	if err != nil {
		return err
	}
	if _, err := newEngine(evalName, threads); err != nil {
		return err
	}
	report, err := tactic.SolveTactic(context.Background(), tests, tactic.Config{
		Limits:  common.LimitsType{Depth: depth},
		Workers: 1,
		NewEngine: func() *engine.Engine {
			var eng, _ = newEngine(evalName, threads)
			return eng
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	logger.Info().
		Dur("time", report.Elapsed).
		Int64("nodes", report.Nodes).
		Int64("nps", report.NPS()).
		Msg("benchmark-finished")
	return nil
}
