package engine

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

// White to move must deal with the back rank threat Rb1.
const fenBackRankThreat = "1r4k1/5ppp/8/8/8/8/R4PPP/6K1 w - - 0 1"

func parseMove(t *testing.T, g *board.Game, lan string) Move {
	t.Helper()
	var m = g.Current().ParseMoveLAN(lan)
	if m == MoveEmpty {
		t.Fatalf("bad move %v", lan)
	}
	return m
}

func TestEnemyMateInOne(t *testing.T) {
	is := is.New(t)
	var buffer, replies [MaxMoves]OrderedMove

	var g = mustGame(t, "1r4k1/R4ppp/8/8/8/8/5PPP/6K1 b - - 0 1")
	is.Equal(enemyMateInOne(g, buffer[:], replies[:]).String(), "b8b1")

	g = mustGame(t, "1r4k1/5ppp/8/8/8/8/5PPP/R5K1 b - - 0 1")
	is.Equal(enemyMateInOne(g, buffer[:], replies[:]), MoveEmpty)
}

func TestCanWinMajor(t *testing.T) {
	is := is.New(t)
	var buffer [MaxMoves]OrderedMove
	is.True(canWinMajor(mustGame(t, fenHangingQueen), 0, buffer[:]))
	is.True(!canWinMajor(mustGame(t, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1"), 0, buffer[:]))
	// the rook on d5 is defended, so taking it with the queen loses material
	var g = mustGame(t, "4k3/8/4p3/3r4/8/8/8/3QK3 w - - 0 1")
	is.True(!canWinMajor(g, 0, buffer[:]))
	is.True(canWinMajor(g, -1000, buffer[:]))
}

func prepareVerify(t *testing.T, fen string, options Options) (*Engine, *board.Game) {
	var e = newTestEngine(options)
	var g = mustGame(t, fen)
	e.Prepare()
	e.shared.reset(0)
	e.threads[0].reset(g, e.genRootMoves(g))
	return e, g
}

func TestVerifyReplacesBlunder(t *testing.T) {
	is := is.New(t)
	var options = NewOptions()
	options.RootVerify.MaxCandidates = MaxMoves
	options.RootVerify.MaxTime = time.Second
	var e, g = prepareVerify(t, fenBackRankThreat, options)

	var blunder = parseMove(t, g, "a2a7")
	e.shared.publish(&snapshot{depth: 6, score: 0, complete: true, mainLine: []Move{blunder}})
	var result = SearchInfo{MainLine: []Move{blunder}}
	e.verifyRoot(&result)

	is.True(result.Verified)
	var chosen = result.BestMove()
	is.True(chosen != blunder)
	is.True(g.DoMove(chosen))
	var buffer, replies [MaxMoves]OrderedMove
	is.Equal(enemyMateInOne(g, buffer[:], replies[:]), MoveEmpty)
	is.True(result.VerifyNodes > 0)
}

func TestVerifyKeepsSafeMove(t *testing.T) {
	is := is.New(t)
	var e, g = prepareVerify(t, fenBackRankThreat, NewOptions())
	var safe = parseMove(t, g, "a2a1")
	e.shared.publish(&snapshot{depth: 6, score: 0, complete: true, mainLine: []Move{safe}})
	var result = SearchInfo{MainLine: []Move{safe}}
	e.verifyRoot(&result)
	is.True(!result.Verified)
	is.Equal(result.BestMove(), safe)
}

func TestVerifySkipsProtectedWin(t *testing.T) {
	is := is.New(t)
	var e, g = prepareVerify(t, fenBackRankThreat, NewOptions())
	var blunder = parseMove(t, g, "a2a7")
	e.shared.publish(&snapshot{depth: 6, score: 1500, complete: true, mainLine: []Move{blunder}})
	var result = SearchInfo{MainLine: []Move{blunder}}
	e.verifyRoot(&result)
	is.True(!result.Verified)
	is.Equal(result.BestMove(), blunder)
}

func TestRootUnderThreat(t *testing.T) {
	is := is.New(t)
	var e, _ = prepareVerify(t, "4k3/8/8/3q4/8/8/3R4/4K3 b - - 0 1", NewOptions())
	is.True(e.threads[0].rootUnderThreat(0))
	e, _ = prepareVerify(t, fenBackRankThreat, NewOptions())
	is.True(!e.threads[0].rootUnderThreat(0))
}
