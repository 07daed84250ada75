package main

import (
	"context"

	"github.com/pkg/profile"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

const profileFen = "r1bqkbnr/1ppp1ppp/p1n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 4"

// go tool pprof cpu.pprof
func profileHandler() error {
	var (
		evalName = cliArgs.GetString("eval", "")
		threads  = cliArgs.GetInt("threads", 1)
		moveTime = cliArgs.GetMillis("movetime", 5000)
		dir      = cliArgs.GetPath("dir", ".")
	)
	var eng, err = newEngine(evalName, threads)
	if err != nil {
		return err
	}
	game, err := board.NewGameFromFEN(profileFen)
	if err != nil {
		return err
	}

	var mode = profile.CPUProfile
	if cliArgs.GetString("mode", "cpu") == "mem" {
		mode = profile.MemProfile
	}
	defer profile.Start(mode, profile.ProfilePath(dir), profile.Quiet).Stop()

	var si = eng.Search(context.Background(), engine.SearchParams{
		Position: game,
		Limits: common.LimitsType{TimeControl: common.TimeControl{
			Kind:     common.FixedTime,
			MoveTime: moveTime,
		}},
	})
	logger.Info().
		Int("depth", si.Depth).
		Int64("nodes", si.Nodes).
		Dur("time", si.Time).
		Msg("profile-finished")
	return nil
}
