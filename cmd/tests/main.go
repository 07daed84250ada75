package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/internal/evalbuilder"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

var (
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	cliArgs = NewCommandArgs(os.Args)
)

const defaultTestsPath = "~/chess/tests/tests.epd"

func main() {
	var err = run()
	if err != nil {
		logger.Error().Err(err).Msg("command-failed")
		os.Exit(1)
	}
}

func run() error {
	logger = logger.Level(cliArgs.LogLevel())
	var handler = NewCommandHandler(logger)
	handler.Add("benchmark", benchmarkHandler)
	handler.Add("tactic", tacticHandler)
	handler.Add("profile", profileHandler)
	handler.Add("arena", arenaHandler)
	return handler.Execute(cliArgs.CommandName())
}

func newEngine(evalName string, threads int) (*engine.Engine, error) {
	var evalBuilder, err = evalbuilder.Get(evalName)
	if err != nil {
		return nil, err
	}
	var eng = engine.NewEngine(evalBuilder)
	eng.Options.Hash = cliArgs.GetInt("hash", 128)
	eng.Options.Threads = threads
	eng.Options.Logger = logger.Level(zerolog.WarnLevel)
	return eng, nil
}
