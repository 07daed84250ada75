package main

import (
	"context"
	"os"

	"github.com/ChizhovVadim/lazysmp/internal/arena"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
)

// arenaHandler plays engine A against engine B. Both use the same
// evaluation and differ in thread count and root verification.
func arenaHandler() error {
	var (
		evalName     = cliArgs.GetString("eval", "")
		threadsA     = cliArgs.GetInt("threadsa", 4)
		threadsB     = cliArgs.GetInt("threadsb", 1)
		verifyA      = cliArgs.GetBool("verifya", true)
		verifyB      = cliArgs.GetBool("verifyb", true)
		nodes        = cliArgs.GetInt("nodes", 200_000)
		concurrency  = cliArgs.GetInt("concurrency", 2)
		openingsPath = cliArgs.GetPath("openings", "")
	)

	var openings = arena.DefaultOpenings()
	if openingsPath != "" {
		var text, err = os.ReadFile(openingsPath)
		if err != nil {
			return err
		}
		openings = arena.ReadOpenings(string(text))
	}
	if _, err := newEngine(evalName, 1); err != nil {
		return err
	}

	var newArenaEngine = func(threads int, verify bool) func() arena.IEngine {
		return func() arena.IEngine {
			var eng, _ = newEngine(evalName, threads)
			eng.Options.RootVerify.Enabled = verify
			eng.Prepare()
			return eng
		}
	}

	var stats, err = arena.Run(context.Background(), arena.Config{
		Openings:    openings,
		Limits:      common.LimitsType{Nodes: nodes},
		Concurrency: concurrency,
		MaxPlies:    400,
		NewEngineA:  newArenaEngine(threadsA, verifyA),
		NewEngineB:  newArenaEngine(threadsB, verifyB),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info().
		Int("games", stats.Games()).
		Float64("elo", stats.EloDifference).
		Msg("arena-finished")
	return nil
}
