package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
	material "github.com/ChizhovVadim/lazysmp/pkg/eval/material"
)

const (
	fenHangingQueen = "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1"
	fenBackRankMate = "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"
	fenStalemate    = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	fenOneReply     = "k5r1/8/8/8/8/8/8/6rK w - - 0 1"
	fenItalian      = "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"
	fenKiwipete     = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
)

func newTestEngine(options Options) *Engine {
	var e = NewEngine(func() interface{} {
		return material.NewEvaluationService()
	})
	options.Hash = 4
	e.Options = options
	return e
}

func mustGame(t *testing.T, fen string) *board.Game {
	t.Helper()
	var g, err = board.NewGameFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func search(e *Engine, g *board.Game, limits LimitsType) SearchInfo {
	return e.Search(context.Background(), SearchParams{
		Position: g,
		Limits:   limits,
	})
}

// minimax is a full width search with the same move generator, evaluator
// and terminal rules as the engine.
func minimax(p IPosition, eval *material.EvaluationService, depth, height int) int {
	if height > 0 && (p.IsDraw() || p.IsRepetition()) {
		return valueDraw
	}
	if depth <= 0 {
		return clampEval(eval.Evaluate(p))
	}
	var buffer [MaxMoves]OrderedMove
	var best = -valueInfinity
	for _, om := range p.GenerateMoves(buffer[:]) {
		if !p.DoMove(om.Move) {
			continue
		}
		var score = -minimax(p, eval, depth-1, height+1)
		p.UndoMove()
		best = Max(best, score)
	}
	if best == -valueInfinity {
		if p.IsCheck() {
			return lossIn(height)
		}
		return valueDraw
	}
	return best
}

func moveValue(t *testing.T, fen string, move Move, depth int) int {
	var p = mustGame(t, fen).Clone()
	if !p.DoMove(move) {
		t.Fatalf("illegal move %v", move)
	}
	return -minimax(p, material.NewEvaluationService(), depth-1, 1)
}

func TestSearchMatchesMinimax(t *testing.T) {
	var tests = []struct {
		fen   string
		depth int
	}{
		{board.InitialPositionFen, 3},
		{fenHangingQueen, 4},
		{fenBackRankMate, 3},
		{fenItalian, 3},
		{"7k/5Q2/6K1/8/8/8/8/8 w - - 0 1", 3},
		{"8/8/3k4/8/2n5/8/1P2K3/8 w - - 0 1", 4},
	}
	for _, test := range tests {
		t.Run(test.fen, func(t *testing.T) {
			is := is.New(t)
			var want = minimax(mustGame(t, test.fen).Clone(), material.NewEvaluationService(), test.depth, 0)
			var e = newTestEngine(ExactOptions())
			var result = search(e, mustGame(t, test.fen), LimitsType{Depth: test.depth})
			is.Equal(result.Depth, test.depth)
			is.Equal(result.Score, newUciScore(want))
			is.Equal(moveValue(t, test.fen, result.BestMove(), test.depth), want)
		})
	}
}

func TestAspirationDoesNotChangeResult(t *testing.T) {
	for _, fen := range []string{fenItalian, fenHangingQueen, fenKiwipete} {
		t.Run(fen, func(t *testing.T) {
			is := is.New(t)
			var full = search(newTestEngine(ExactOptions()), mustGame(t, fen), LimitsType{Depth: 4})
			var options = ExactOptions()
			options.UseAspiration = true
			var windowed = search(newTestEngine(options), mustGame(t, fen), LimitsType{Depth: 4})
			is.Equal(windowed.Score, full.Score)
			is.Equal(windowed.BestMove(), full.BestMove())
		})
	}
}

func TestStartPosition(t *testing.T) {
	is := is.New(t)
	var g = mustGame(t, board.InitialPositionFen)
	var result = search(newTestEngine(NewOptions()), g, LimitsType{Depth: 1})
	is.True(board.Unwrap(g).IsPseudoLegal(result.BestMove()))
	is.Equal(result.Score.Mate, 0)
	is.True(Abs(result.Score.Centipawns) < 100)
	is.Equal(result.Termination, TerminationDepth)
}

func TestCapturesHangingQueen(t *testing.T) {
	for _, depth := range []int{2, 4, 6} {
		is := is.New(t)
		var result = search(newTestEngine(NewOptions()), mustGame(t, fenHangingQueen), LimitsType{Depth: depth})
		is.Equal(result.BestMove().String(), "d2d5")
		is.True(result.Score.Centipawns > 300)
	}
}

func TestFindsMateInOne(t *testing.T) {
	for _, depth := range []int{1, 2, 5} {
		is := is.New(t)
		var result = search(newTestEngine(NewOptions()), mustGame(t, fenBackRankMate), LimitsType{Depth: depth})
		is.Equal(result.BestMove().String(), "a1a8")
		is.Equal(result.Score, UciScore{Mate: 1})
	}
}

func TestMateLimit(t *testing.T) {
	is := is.New(t)
	var result = search(newTestEngine(NewOptions()), mustGame(t, fenBackRankMate), LimitsType{Mate: 1})
	is.Equal(result.BestMove().String(), "a1a8")
	is.Equal(result.Termination, TerminationMate)
}

func TestStalemateRoot(t *testing.T) {
	is := is.New(t)
	var result = search(newTestEngine(NewOptions()), mustGame(t, fenStalemate), LimitsType{Depth: 5})
	is.Equal(result.BestMove(), MoveEmpty)
	is.Equal(result.Score, UciScore{})
	is.Equal(result.Termination, TerminationNoMoves)
}

func TestCheckmatedRoot(t *testing.T) {
	is := is.New(t)
	var result = search(newTestEngine(NewOptions()), mustGame(t, "R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1"), LimitsType{Depth: 5})
	is.Equal(result.BestMove(), MoveEmpty)
	is.Equal(result.Score, UciScore{Mated: true})
	is.Equal(result.Termination, TerminationNoMoves)
}

func TestSingleReply(t *testing.T) {
	is := is.New(t)
	var limits = LimitsType{TimeControl: TimeControl{Kind: FixedTime, MoveTime: 10_000}}
	var start = time.Now()
	var result = search(newTestEngine(NewOptions()), mustGame(t, fenOneReply), limits)
	is.True(time.Since(start) < time.Second)
	is.Equal(result.BestMove().String(), "h1h2")
	is.Equal(result.Termination, TerminationSingleMove)
}

func TestNodeLimit(t *testing.T) {
	for _, threads := range []int{1, 3} {
		is := is.New(t)
		var options = NewOptions()
		options.Threads = threads
		const limit = 20_000
		var result = search(newTestEngine(options), mustGame(t, board.InitialPositionFen), LimitsType{Nodes: limit})
		is.Equal(result.Termination, TerminationNodes)
		is.True(result.Nodes >= limit)
		is.True(result.Nodes <= limit+int64(threads)*(pollMaskDefault+1))
		is.True(result.BestMove() != MoveEmpty)
	}
}

func TestQNodeLimit(t *testing.T) {
	is := is.New(t)
	var options = NewOptions()
	options.Threads = 2
	var result = search(newTestEngine(options), mustGame(t, fenKiwipete), LimitsType{Depth: 5, QNodes: 300})
	is.True(result.QNodes <= 300)
	is.Equal(result.Depth, 5)
	is.True(board.Unwrap(mustGame(t, fenKiwipete)).IsPseudoLegal(result.BestMove()))
}

func TestStopFlag(t *testing.T) {
	is := is.New(t)
	var options = NewOptions()
	options.Threads = 2
	var e = newTestEngine(options)
	var stop atomic.Bool
	var stoppedAt atomic.Int64
	go func() {
		time.Sleep(100 * time.Millisecond)
		stoppedAt.Store(time.Now().UnixNano())
		stop.Store(true)
	}()
	var result = e.Search(context.Background(), SearchParams{
		Position: mustGame(t, fenKiwipete),
		Limits:   LimitsType{TimeControl: TimeControl{Kind: Infinite}},
		Stop:     &stop,
	})
	var latency = time.Since(time.Unix(0, stoppedAt.Load()))
	is.True(latency < 50*time.Millisecond)
	is.Equal(result.Termination, TerminationStopped)
	is.True(result.BestMove() != MoveEmpty)
}

func TestContextCancel(t *testing.T) {
	is := is.New(t)
	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	var result = newTestEngine(NewOptions()).Search(ctx, SearchParams{
		Position: mustGame(t, board.InitialPositionFen),
		Limits:   LimitsType{TimeControl: TimeControl{Kind: Infinite}},
	})
	is.Equal(result.Termination, TerminationStopped)
	is.True(result.BestMove() != MoveEmpty)
}

func TestFixedTime(t *testing.T) {
	is := is.New(t)
	var options = NewOptions()
	options.MoveOverhead = 0
	var start = time.Now()
	var result = search(newTestEngine(options), mustGame(t, fenKiwipete),
		LimitsType{TimeControl: TimeControl{Kind: FixedTime, MoveTime: 100}})
	is.True(time.Since(start) < 500*time.Millisecond)
	is.Equal(result.Termination, TerminationTime)
	is.True(result.Depth > 0)
}

func TestPonderHit(t *testing.T) {
	is := is.New(t)
	var e = newTestEngine(NewOptions())
	var g = mustGame(t, board.InitialPositionFen)
	var done = make(chan SearchInfo, 1)
	go func() {
		done <- search(e, g, LimitsType{TimeControl: TimeControl{Kind: Ponder, MoveTime: 50}})
	}()
	time.Sleep(200 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("ponder search ended before ponderhit")
	default:
	}
	e.PonderHit()
	select {
	case result := <-done:
		is.Equal(result.Termination, TerminationTime)
	case <-time.After(5 * time.Second):
		t.Fatal("search did not end after ponderhit")
	}
}

func TestParallelAgreesWithSingleThread(t *testing.T) {
	for _, fen := range []string{fenHangingQueen, fenBackRankMate} {
		t.Run(fen, func(t *testing.T) {
			is := is.New(t)
			var single = search(newTestEngine(NewOptions()), mustGame(t, fen), LimitsType{Depth: 6})
			var options = NewOptions()
			options.Threads = 4
			var parallel = search(newTestEngine(options), mustGame(t, fen), LimitsType{Depth: 6})
			is.Equal(parallel.BestMove(), single.BestMove())
			is.True(parallel.Depth >= 6)
		})
	}
}

func TestMultiPV(t *testing.T) {
	is := is.New(t)
	const depth = 3
	var result = search(newTestEngine(ExactOptions()), mustGame(t, board.InitialPositionFen),
		LimitsType{Depth: depth, MultiPV: 3})
	is.Equal(len(result.Lines), 3)
	is.Equal(result.MultiPV, 3)
	is.Equal(result.BestMove(), result.Lines[0].MainLine[0])
	var seen = map[Move]bool{}
	for i, line := range result.Lines {
		var move = line.MainLine[0]
		is.True(!seen[move])
		seen[move] = true
		is.Equal(line.Score, newUciScore(moveValue(t, board.InitialPositionFen, move, depth)))
		if i > 0 {
			is.True(line.Score.Centipawns <= result.Lines[i-1].Score.Centipawns)
		}
	}
}

func TestProgress(t *testing.T) {
	is := is.New(t)
	var depths []int
	var e = newTestEngine(NewOptions())
	e.Search(context.Background(), SearchParams{
		Position: mustGame(t, fenItalian),
		Limits:   LimitsType{Depth: 4},
		Progress: func(si SearchInfo) {
			depths = append(depths, si.Depth)
			is.True(len(si.MainLine) > 0)
		},
	})
	is.Equal(depths, []int{1, 2, 3, 4})
}

func TestProgressWithHelpers(t *testing.T) {
	for _, multiPV := range []int{1, 3} {
		is := is.New(t)
		var options = NewOptions()
		options.Threads = 4
		var e = newTestEngine(options)
		var infos []SearchInfo
		const depth = 6
		var result = e.Search(context.Background(), SearchParams{
			Position: mustGame(t, board.InitialPositionFen),
			Limits:   LimitsType{Depth: depth, MultiPV: multiPV},
			Progress: func(si SearchInfo) {
				infos = append(infos, si)
			},
		})
		is.Equal(len(infos), depth)
		for i, si := range infos {
			is.Equal(si.Depth, i+1)
			is.Equal(len(si.Lines), multiPV)
			is.Equal(si.MultiPV, multiPV)
			is.Equal(si.Lines[0].Depth, si.Depth)
			is.Equal(si.Lines[0].MainLine[0], si.BestMove())
		}
		is.True(result.Depth >= depth)
		is.Equal(len(result.Lines), multiPV)
		is.Equal(result.Lines[0].MainLine[0], result.BestMove())
	}
}

func TestZeroClock(t *testing.T) {
	var tests = []struct {
		name string
		tc   TimeControl
	}{
		{"fischer", TimeControl{Kind: Fischer, MainTime: [2]int{0, 5000}}},
		{"fischer-overhead", TimeControl{Kind: Fischer, MainTime: [2]int{100, 5000}}},
		{"fixed", TimeControl{Kind: FixedTime}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			is := is.New(t)
			var g = mustGame(t, fenKiwipete)
			var done = make(chan SearchInfo, 1)
			go func() {
				done <- search(newTestEngine(NewOptions()), g, LimitsType{TimeControl: test.tc})
			}()
			select {
			case result := <-done:
				is.Equal(result.Termination, TerminationTime)
				is.True(board.Unwrap(mustGame(t, fenKiwipete)).IsPseudoLegal(result.BestMove()))
			case <-time.After(3 * time.Second):
				t.Fatal("search with an empty clock did not stop")
			}
		})
	}
}

func TestClear(t *testing.T) {
	is := is.New(t)
	var e = newTestEngine(NewOptions())
	search(e, mustGame(t, fenItalian), LimitsType{Depth: 5})
	var stats = e.TTStats()
	is.True(stats.Used > 0)
	is.True(stats.Hits > 0)
	is.True(stats.Probes >= stats.Hits)
	e.Clear()
	stats = e.TTStats()
	is.Equal(stats.Used, 0)
	is.Equal(stats.Probes, uint64(0))
}

// faultyEvaluator panics the first time the search asks for a score.
type faultyEvaluator struct{}

func (faultyEvaluator) Init(p IPosition)             {}
func (faultyEvaluator) MakeMove(p IPosition, m Move) {}
func (faultyEvaluator) UnmakeMove()                  {}

func (faultyEvaluator) EvaluateQuick(p IPosition) int {
	panic("evaluator failure")
}

func TestHelperFaultIsContained(t *testing.T) {
	is := is.New(t)
	var builds = 0
	var e = NewEngine(func() interface{} {
		builds++
		if builds == 2 {
			return faultyEvaluator{}
		}
		return material.NewEvaluationService()
	})
	e.Options.Hash = 4
	e.Options.Threads = 2
	var limits = LimitsType{TimeControl: TimeControl{Kind: FixedTime, MoveTime: 100}}

	var result = search(e, mustGame(t, fenHangingQueen), limits)
	is.Equal(result.BestMove().String(), "d2d5")
	is.True(e.threads[1].faulted)

	var failed = e.threads[1]
	result = search(e, mustGame(t, fenHangingQueen), limits)
	is.Equal(result.BestMove().String(), "d2d5")
	is.True(e.threads[1] != failed)
	is.True(!e.threads[1].faulted)
	is.Equal(builds, 3)
}

func TestMainThreadFaultStillReturnsMove(t *testing.T) {
	is := is.New(t)
	var builds = 0
	var e = NewEngine(func() interface{} {
		builds++
		if builds == 1 {
			return faultyEvaluator{}
		}
		return material.NewEvaluationService()
	})
	e.Options.Hash = 4
	var g = mustGame(t, board.InitialPositionFen)
	var result = search(e, g, LimitsType{Depth: 4})
	is.True(board.Unwrap(g).IsPseudoLegal(result.BestMove()))
	is.True(e.threads[0].faulted)
}
