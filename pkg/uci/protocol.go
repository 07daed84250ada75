package uci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

var ErrUnknownCommand = errors.New("unknown command")

const (
	VariantChess      = "chess"
	VariantCrazyhouse = "crazyhouse"
)

type Engine interface {
	Prepare()
	Clear()
	PonderHit()
	Search(ctx context.Context, searchParams engine.SearchParams) common.SearchInfo
}

type Config struct {
	Name    string
	Author  string
	Version string
	Engine  Engine
	Options []Option
	// Variant points to the value of the UCI_Variant option.
	Variant *string
	Output  io.Writer
	Logger  zerolog.Logger
}

type Protocol struct {
	Config
	game         *board.Game
	thinking     bool
	engineOutput chan common.SearchInfo
	cancel       context.CancelFunc
	stop         *atomic.Bool
}

func New(config Config) *Protocol {
	if config.Variant == nil {
		var variant = VariantChess
		config.Variant = &variant
	}
	var game, err = board.NewGameFromFEN(board.InitialPositionFen)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		Config: config,
		game:   game,
	}
}

// Run serves commands from in until quit or end of input. A running search
// is stopped and its bestmove printed before Run returns.
func (uci *Protocol) Run(ctx context.Context, in io.Reader) error {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(in, commands)
	}()

	var searchResult common.SearchInfo
	for {
		select {
		case <-ctx.Done():
			uci.finish()
			return ctx.Err()
		case si, ok := <-uci.engineOutput:
			if ok {
				uci.printSearchInfo(si)
				searchResult = si
			} else {
				uci.printBestMove(searchResult)
				uci.thinking = false
				uci.cancel = nil
				uci.stop = nil
				uci.engineOutput = nil
				searchResult = common.SearchInfo{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				uci.finish()
				return nil
			}
			var err = uci.handle(commandLine)
			if err != nil {
				uci.Logger.Warn().Err(err).Str("command", commandLine).Msg("command-failed")
			}
		}
	}
}

// finish stops a running search and prints its result.
func (uci *Protocol) finish() {
	if !uci.thinking {
		return
	}
	uci.stop.Store(true)
	var last common.SearchInfo
	for si := range uci.engineOutput {
		last = si
	}
	uci.printSearchInfo(last)
	uci.printBestMove(last)
	uci.cancel()
	uci.thinking = false
}

func (uci *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if uci.thinking {
		switch commandName {
		case "stop":
			uci.stop.Store(true)
			return nil
		case "ponderhit":
			uci.Engine.PonderHit()
			return nil
		case "isready":
			fmt.Fprintln(uci.Output, "readyok")
			return nil
		}
		return errors.New("search still run")
	}

	var h func(fields []string) error

	switch commandName {
	case "uci":
		h = uci.uciCommand
	case "setoption":
		h = uci.setOptionCommand
	case "isready":
		h = uci.isReadyCommand
	case "position":
		h = uci.positionCommand
	case "go":
		h = uci.goCommand
	case "ucinewgame":
		h = uci.uciNewGameCommand
	case "stop", "ponderhit":
		return nil
	}

	if h == nil {
		return fmt.Errorf("%w: %v", ErrUnknownCommand, commandName)
	}

	return h(fields)
}

func (uci *Protocol) uciCommand(fields []string) error {
	fmt.Fprintf(uci.Output, "id name %s %s\n", uci.Name, uci.Version)
	fmt.Fprintf(uci.Output, "id author %s\n", uci.Author)
	for _, option := range uci.Options {
		fmt.Fprintln(uci.Output, option.UciString())
	}
	fmt.Fprintln(uci.Output, "uciok")
	return nil
}

func (uci *Protocol) setOptionCommand(fields []string) error {
	var name, value, err = parseSetOption(fields)
	if err != nil {
		return err
	}
	var option, found = findOption(uci.Options, name)
	if !found {
		return fmt.Errorf("unhandled option %v", name)
	}
	if err := option.Set(value); err != nil {
		return fmt.Errorf("option %v: %w", name, err)
	}
	uci.Logger.Debug().Str("name", name).Str("value", value).Msg("option-set")
	return nil
}

// parseSetOption splits "name <words> value <words>".
func parseSetOption(fields []string) (name, value string, err error) {
	if len(fields) < 2 || fields[0] != "name" {
		return "", "", errors.New("invalid setoption arguments")
	}
	var valueIndex = findIndexString(fields, "value")
	if valueIndex == -1 {
		return strings.Join(fields[1:], " "), "", nil
	}
	return strings.Join(fields[1:valueIndex], " "), strings.Join(fields[valueIndex+1:], " "), nil
}

func (uci *Protocol) isReadyCommand(fields []string) error {
	uci.Engine.Prepare()
	fmt.Fprintln(uci.Output, "readyok")
	return nil
}

func (uci *Protocol) positionCommand(fields []string) error {
	if len(fields) == 0 {
		return errors.New("empty position command")
	}
	var token = fields[0]
	var fen string
	var movesIndex = findIndexString(fields, "moves")
	if token == "startpos" {
		fen = board.InitialPositionFen
		if *uci.Variant == VariantCrazyhouse {
			fen = board.CrazyhouseInitialFen
		}
	} else if token == "fen" {
		if movesIndex == -1 {
			fen = strings.Join(fields[1:], " ")
		} else {
			fen = strings.Join(fields[1:movesIndex], " ")
		}
		if *uci.Variant == VariantCrazyhouse {
			fen = withHoldings(fen)
		}
	} else {
		return errors.New("unknown position command")
	}
	var game, err = board.NewGameFromFEN(fen)
	if err != nil {
		return err
	}
	if movesIndex >= 0 {
		for _, smove := range fields[movesIndex+1:] {
			if err := game.MakeMoveLAN(smove); err != nil {
				return err
			}
		}
	}
	uci.game = game
	return nil
}

// withHoldings adds empty holdings to a crazyhouse fen that has none.
func withHoldings(fen string) string {
	var tokens = strings.Fields(fen)
	if len(tokens) == 0 || strings.Contains(tokens[0], "[") {
		return fen
	}
	tokens[0] += "[]"
	return strings.Join(tokens, " ")
}

func (uci *Protocol) goCommand(fields []string) error {
	var limits, err = parseLimits(fields)
	if err != nil {
		return err
	}
	var ctx, cancel = context.WithCancel(context.Background())
	var sessionID = uuid.New()
	var stop = &atomic.Bool{}
	var output = make(chan common.SearchInfo, 3)
	uci.cancel = cancel
	uci.stop = stop
	uci.thinking = true
	uci.engineOutput = output
	uci.Logger.Info().
		Stringer("session", sessionID).
		Stringer("timecontrol", limits.TimeControl.Kind).
		Int("depth", limits.Depth).
		Int("nodes", limits.Nodes).
		Msg("search-started")
	fmt.Fprintf(uci.Output, "info string session %v\n", sessionID)
	var position = uci.game.Clone()
	go func() {
		defer cancel()
		var searchResult = uci.Engine.Search(ctx, engine.SearchParams{
			Position:  position,
			Limits:    limits,
			Stop:      stop,
			SessionID: sessionID,
			Progress: func(si common.SearchInfo) {
				select {
				case output <- si:
				default:
				}
			},
		})
		output <- searchResult
		close(output)
	}()
	return nil
}

func (uci *Protocol) uciNewGameCommand(fields []string) error {
	uci.Engine.Clear()
	return nil
}

func (uci *Protocol) printSearchInfo(si common.SearchInfo) {
	if len(si.Lines) == 0 {
		fmt.Fprintln(uci.Output, searchInfoToUci(si, common.SearchLine{
			Score:    si.Score,
			Depth:    si.Depth,
			MainLine: si.MainLine,
		}, 0))
		return
	}
	for i, line := range si.Lines {
		fmt.Fprintln(uci.Output, searchInfoToUci(si, line, i+1))
	}
}

func (uci *Protocol) printBestMove(si common.SearchInfo) {
	if len(si.MainLine) == 0 {
		fmt.Fprintln(uci.Output, "bestmove (none)")
		return
	}
	if len(si.MainLine) >= 2 {
		fmt.Fprintf(uci.Output, "bestmove %v ponder %v\n", si.MainLine[0], si.MainLine[1])
		return
	}
	fmt.Fprintf(uci.Output, "bestmove %v\n", si.MainLine[0])
}

func searchInfoToUci(si common.SearchInfo, line common.SearchLine, multiPV int) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v seldepth %v", line.Depth, si.SelDepth)
	if multiPV > 0 {
		fmt.Fprintf(sb, " multipv %v", multiPV)
	}
	if line.Score.Mate != 0 || line.Score.Mated {
		fmt.Fprintf(sb, " score mate %v", line.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", line.Score.Centipawns)
	}
	var timeMs = si.Time.Milliseconds()
	var nps = si.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(sb, " nodes %v time %v nps %v hashfull %v", si.Nodes, timeMs, nps, si.HashFull)
	if len(line.MainLine) != 0 {
		fmt.Fprintf(sb, " pv")
		for _, move := range line.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func parseLimits(args []string) (result common.LimitsType, err error) {
	var tc = &result.TimeControl
	var ponder, infinite bool
	for i := 0; i < len(args); i++ {
		var value = func() int {
			if i+1 >= len(args) {
				err = fmt.Errorf("missing value for %v", args[i])
				return 0
			}
			i++
			var v, convErr = strconv.Atoi(args[i])
			if convErr != nil {
				err = fmt.Errorf("bad value for %v: %w", args[i-1], convErr)
			}
			return v
		}
		switch args[i] {
		case "ponder":
			ponder = true
		case "infinite":
			infinite = true
		case "wtime":
			tc.MainTime[common.SideWhite] = value()
		case "btime":
			tc.MainTime[common.SideBlack] = value()
		case "winc":
			tc.Increment[common.SideWhite] = value()
		case "binc":
			tc.Increment[common.SideBlack] = value()
		case "movestogo":
			tc.MovesToGo = value()
		case "byoyomi":
			tc.Byoyomi = value()
		case "periods":
			tc.Periods = value()
		case "movetime":
			tc.MoveTime = value()
		case "depth":
			result.Depth = value()
		case "nodes":
			result.Nodes = value()
		case "qnodes":
			result.QNodes = value()
		case "mate":
			result.Mate = value()
		case "multipv":
			result.MultiPV = value()
		}
		if err != nil {
			return common.LimitsType{}, err
		}
	}
	switch {
	case ponder:
		tc.Kind = common.Ponder
	case infinite:
		tc.Kind = common.Infinite
	case tc.Byoyomi > 0:
		tc.Kind = common.Byoyomi
	case tc.MainTime != [2]int{} || tc.Increment != [2]int{}:
		tc.Kind = common.Fischer
	case tc.MoveTime > 0:
		tc.Kind = common.FixedTime
	}
	return result, nil
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
