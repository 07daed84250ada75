package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/internal/evalbuilder"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
	"github.com/ChizhovVadim/lazysmp/pkg/uci"
)

/*
Counter Copyright (C) 2017-2023 Vadim Chizhov
This program is free software: you can redistribute it and/or modify it under the terms of the GNU General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
This program is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License for more details.
You should have received a copy of the GNU General Public License along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

const (
	name   = "Counter"
	author = "Vadim Chizhov"
)

var (
	versionName = "dev"
	buildDate   = "(null)"
	gitRevision = "(null)"
)

var (
	flgEval     string
	flgHash     int
	flgThreads  int
	flgLogLevel string
)

func main() {
	flag.StringVar(&flgEval, "eval", "", "specifies evaluation function")
	flag.IntVar(&flgHash, "hash", 16, "transposition table size in MB")
	flag.IntVar(&flgThreads, "threads", 1, "number of search threads")
	flag.StringVar(&flgLogLevel, "loglevel", "info", "log level")
	flag.Parse()

	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(flgLogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Err(err).Msg("bad log level")
	}

	logger.Info().
		Str("name", name).
		Str("version", versionName).
		Str("buildDate", buildDate).
		Str("gitRevision", gitRevision).
		Str("runtime", runtime.Version()).
		Str("goarch", runtime.GOARCH).
		Str("goos", runtime.GOOS).
		Int("numCPU", runtime.NumCPU()).
		Msg("engine-started")

	var evalBuilder, err = evalbuilder.Get(flgEval)
	if err != nil {
		logger.Fatal().Err(err).Msg("eval-failed")
	}

	var eng = engine.NewEngine(evalBuilder)
	eng.Options.Hash = flgHash
	eng.Options.Threads = flgThreads
	eng.Options.Logger = logger

	var variant = uci.VariantChess
	var protocol = uci.New(uci.Config{
		Name:    name,
		Author:  author,
		Version: versionName,
		Engine:  eng,
		Options: []uci.Option{
			&uci.IntOption{Name: "Hash", Min: 4, Max: 1 << 16, Value: &eng.Options.Hash},
			&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
			&uci.IntOption{Name: "MultiPV", Min: 1, Max: 32, Value: &eng.Options.MultiPV},
			&uci.DurationOption{Name: "MoveOverhead", Min: 0, Max: 5 * time.Second, Value: &eng.Options.MoveOverhead},
			&uci.ComboOption{Name: "UCI_Variant", Vars: []string{uci.VariantChess, uci.VariantCrazyhouse}, Value: &variant},
			&uci.BoolOption{Name: "RootVerify", Value: &eng.Options.RootVerify.Enabled},
		},
		Variant: &variant,
		Output:  os.Stdout,
		Logger:  logger,
	})
	if err := protocol.Run(context.Background(), os.Stdin); err != nil {
		logger.Error().Err(err).Msg("protocol-failed")
	}
}
