package uci

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
	material "github.com/ChizhovVadim/lazysmp/pkg/eval/material"
)

func TestParseLimits(t *testing.T) {
	var tests = []struct {
		args string
		kind common.TimeControlKind
	}{
		{"depth 5", common.TimeControlNone},
		{"movetime 1000", common.FixedTime},
		{"wtime 60000 btime 60000 winc 1000 binc 1000", common.Fischer},
		{"wtime 60000 btime 60000 byoyomi 5000", common.Byoyomi},
		{"infinite", common.Infinite},
		{"ponder wtime 1000 btime 1000", common.Ponder},
	}
	for _, test := range tests {
		var limits, err = parseLimits(strings.Fields(test.args))
		if err != nil {
			t.Fatal(test.args, err)
		}
		if limits.TimeControl.Kind != test.kind {
			t.Errorf("%v: got %v want %v", test.args, limits.TimeControl.Kind, test.kind)
		}
	}
}

func TestParseLimitsValues(t *testing.T) {
	is := is.New(t)
	var limits, err = parseLimits(strings.Fields(
		"wtime 1000 btime 2000 winc 10 binc 20 movestogo 30 depth 7 nodes 5000 qnodes 300 mate 2 multipv 3 periods 1"))
	is.NoErr(err)
	is.Equal(limits.TimeControl.MainTime, [2]int{1000, 2000})
	is.Equal(limits.TimeControl.Increment, [2]int{10, 20})
	is.Equal(limits.TimeControl.MovesToGo, 30)
	is.Equal(limits.TimeControl.Periods, 1)
	is.Equal(limits.Depth, 7)
	is.Equal(limits.Nodes, 5000)
	is.Equal(limits.QNodes, 300)
	is.Equal(limits.Mate, 2)
	is.Equal(limits.MultiPV, 3)

	_, err = parseLimits([]string{"depth"})
	is.True(err != nil)
	_, err = parseLimits([]string{"depth", "x"})
	is.True(err != nil)
}

func TestOptions(t *testing.T) {
	is := is.New(t)
	var hash = 16
	var overhead = 50 * time.Millisecond
	var variant = VariantChess
	var verify = true
	var options = []Option{
		&IntOption{Name: "Hash", Min: 4, Max: 1024, Value: &hash},
		&DurationOption{Name: "MoveOverhead", Min: 0, Max: time.Second, Value: &overhead},
		&ComboOption{Name: "UCI_Variant", Vars: []string{VariantChess, VariantCrazyhouse}, Value: &variant},
		&BoolOption{Name: "RootVerify", Value: &verify},
	}

	is.Equal(options[0].UciString(), "option name Hash type spin default 16 min 4 max 1024")
	is.Equal(options[1].UciString(), "option name MoveOverhead type spin default 50 min 0 max 1000")
	is.Equal(options[2].UciString(), "option name UCI_Variant type combo default chess var chess var crazyhouse")

	var option, found = findOption(options, "hash")
	is.True(found)
	is.NoErr(option.Set("64"))
	is.Equal(hash, 64)
	is.True(errors.Is(option.Set("2048"), errOutOfRange))

	is.NoErr(options[1].Set("120"))
	is.Equal(overhead, 120*time.Millisecond)
	is.NoErr(options[2].Set("Crazyhouse"))
	is.Equal(variant, VariantCrazyhouse)
	is.True(options[2].Set("atomic") != nil)
	is.NoErr(options[3].Set("false"))
	is.Equal(verify, false)

	_, found = findOption(options, "Threads")
	is.True(!found)
}

func TestParseSetOption(t *testing.T) {
	is := is.New(t)
	var name, value, err = parseSetOption(strings.Fields("name Move Overhead value 100"))
	is.NoErr(err)
	is.Equal(name, "Move Overhead")
	is.Equal(value, "100")
	_, _, err = parseSetOption([]string{"Hash"})
	is.True(err != nil)
}

func TestWithHoldings(t *testing.T) {
	is := is.New(t)
	is.Equal(withHoldings("8/8/8/8/8/8/8/4K2k w - - 0 1"), "8/8/8/8/8/8/8/4K2k[] w - - 0 1")
	is.Equal(withHoldings("8/8/8/8/8/8/8/4K2k[Q] w - - 0 1"), "8/8/8/8/8/8/8/4K2k[Q] w - - 0 1")
}

func newTestProtocol(out *bytes.Buffer) *Protocol {
	var e = engine.NewEngine(func() interface{} { return material.NewEvaluationService() })
	e.Options.Hash = 4
	e.Options.Threads = 1
	var variant = VariantChess
	return New(Config{
		Name:    "lazysmp",
		Author:  "test",
		Version: "dev",
		Engine:  e,
		Options: []Option{
			&IntOption{Name: "Hash", Min: 4, Max: 64, Value: &e.Options.Hash},
			&ComboOption{Name: "UCI_Variant", Vars: []string{VariantChess, VariantCrazyhouse}, Value: &variant},
		},
		Variant: &variant,
		Output:  out,
		Logger:  zerolog.Nop(),
	})
}

func TestRunSession(t *testing.T) {
	is := is.New(t)
	var out = &bytes.Buffer{}
	var protocol = newTestProtocol(out)
	var input = strings.Join([]string{
		"uci",
		"setoption name Hash value 8",
		"isready",
		"position startpos moves e2e4 e7e5",
		"go depth 2",
	}, "\n")
	is.NoErr(protocol.Run(context.Background(), strings.NewReader(input)))

	var text = out.String()
	is.True(strings.Contains(text, "id name lazysmp dev"))
	is.True(strings.Contains(text, "option name Hash type spin"))
	is.True(strings.Contains(text, "uciok"))
	is.True(strings.Contains(text, "readyok"))
	is.True(strings.Contains(text, "info string session "))
	is.True(strings.Contains(text, "bestmove "))
	is.True(!strings.Contains(text, "bestmove (none)"))
	is.Equal(strings.Count(text, "bestmove "), 1)
}

func TestPositionCommand(t *testing.T) {
	is := is.New(t)
	var protocol = newTestProtocol(&bytes.Buffer{})

	is.NoErr(protocol.handle("position startpos moves e2e4"))
	is.Equal(protocol.game.SideToMove(), common.SideBlack)

	is.NoErr(protocol.handle("position fen 4k3/8/8/8/8/8/8/4K2R w K - 0 1 moves e1g1"))
	is.True(protocol.handle("position fen 4k3/8/8/8/8/8/8/4K3 w - - 0 1 moves e1e3") != nil)
	is.True(protocol.handle("position nowhere") != nil)

	is.NoErr(protocol.handle("setoption name UCI_Variant value crazyhouse"))
	is.NoErr(protocol.handle("position startpos"))
	is.True(protocol.game.SupportsDrops())
}

func TestUnknownCommand(t *testing.T) {
	is := is.New(t)
	var protocol = newTestProtocol(&bytes.Buffer{})
	is.True(errors.Is(protocol.handle("fly"), ErrUnknownCommand))
}

func TestBestMoveNone(t *testing.T) {
	is := is.New(t)
	var out = &bytes.Buffer{}
	var protocol = newTestProtocol(out)
	var input = "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1\ngo depth 3\n"
	is.NoErr(protocol.Run(context.Background(), strings.NewReader(input)))
	is.True(strings.Contains(out.String(), "bestmove (none)"))
}

func TestCheckmatedRootInfo(t *testing.T) {
	is := is.New(t)
	var out = &bytes.Buffer{}
	var protocol = newTestProtocol(out)
	var input = "position fen R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1\ngo depth 3\n"
	is.NoErr(protocol.Run(context.Background(), strings.NewReader(input)))
	is.True(strings.Contains(out.String(), " score mate 0 "))
	is.True(!strings.Contains(out.String(), "score cp"))
	is.True(strings.Contains(out.String(), "bestmove (none)"))
}

func TestSearchInfoScore(t *testing.T) {
	is := is.New(t)
	var si = common.SearchInfo{Depth: 4}
	var text = func(score common.UciScore) string {
		return searchInfoToUci(si, common.SearchLine{Score: score, Depth: 4}, 0)
	}
	is.True(strings.Contains(text(common.UciScore{Centipawns: -35}), " score cp -35 "))
	is.True(strings.Contains(text(common.UciScore{Mate: 2}), " score mate 2 "))
	is.True(strings.Contains(text(common.UciScore{Mate: -1}), " score mate -1 "))
	is.True(strings.Contains(text(common.UciScore{Mated: true}), " score mate 0 "))
	is.True(strings.Contains(text(common.UciScore{}), " score cp 0 "))
}
