package main

import (
	"context"
	"runtime"
	"time"

	"github.com/ChizhovVadim/lazysmp/internal/tactic"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

func tacticHandler() error {
	var (
		path     = cliArgs.GetPath("testpath", defaultTestsPath)
		evalName = cliArgs.GetString("eval", "")
		moveTime = cliArgs.GetMillis("movetime", 3000)
		threads  = cliArgs.GetInt("threads", 1)
		workers  = cliArgs.GetInt("workers", runtime.NumCPU()/common.Max(1, threads))
	)

	logger.Info().
		Str("path", path).
		Str("eval", evalName).
		Dur("movetime", time.Duration(moveTime)*time.Millisecond).
		Int("threads", threads).
		Int("workers", workers).
		Msg("solve-tactic-started")

	var tests, err = tactic.LoadEpd(path, logger)
	if err != nil {
		return err
	}
	if _, err := newEngine(evalName, threads); err != nil {
		return err
	}
	report, err := tactic.SolveTactic(context.Background(), tests, tactic.Config{
		Limits: common.LimitsType{TimeControl: common.TimeControl{
			Kind:     common.FixedTime,
			MoveTime: moveTime,
		}},
		Workers: workers,
		NewEngine: func() *engine.Engine {
			var eng, _ = newEngine(evalName, threads)
			eng.Options.MoveOverhead = 0
			return eng
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	for _, id := range report.Failed {
		logger.Info().Str("id", id).Msg("not-solved")
	}
	return nil
}
