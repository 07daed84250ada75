package engine

import (
	"github.com/samber/lo"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	pollMaskDefault = 1<<10 - 1
	pollMaskStop    = 1<<6 - 1
)

type searchStack struct {
	moveList         [MaxMoves]OrderedMove
	quietsSearched   [MaxMoves]Move
	capturesSearched [MaxMoves]Move
	pv               pv
	previous         Move
	inCheck          bool
	staticEval       int
	killer1          Move
	killer2          Move
}

// thread owns everything one worker mutates during a search. Only the
// transposition table and sharedState are touched by several threads.
type thread struct {
	id        int
	engine    *Engine
	position  IPosition
	evaluator IUpdatableEvaluator
	history   *historyTables

	rootMoves    []Move
	excluded     []Move
	scoreHistory []int

	nodes     int64
	qnodes    int64
	pending   int64
	pendingQ  int64
	flushAt   int64
	pollMask  int64
	selDepth  int
	rootDepth int

	aborted      bool
	faulted      bool
	rootAssigned bool
	rootScore    int
	verify       *verifyBudget

	stack [stackSize + 1]searchStack
}

func newThread(e *Engine, id int) *thread {
	return &thread{
		id:        id,
		engine:    e,
		evaluator: e.buildEvaluator(),
		history:   &historyTables{},
	}
}

// reset prepares the thread for a new search from root.
func (t *thread) reset(root IPosition, rootMoves []Move) {
	t.position = root.Clone()
	t.rootMoves = cloneMoves(rootMoves)
	t.excluded = t.excluded[:0]
	t.scoreHistory = t.scoreHistory[:0]
	t.nodes = 0
	t.qnodes = 0
	t.pending = 0
	t.pendingQ = 0
	t.selDepth = 0
	t.rootDepth = 0
	t.aborted = false
	t.rootAssigned = false
	t.verify = nil
	t.pollMask = pollMaskDefault
	if t.engine.stopFlag != nil {
		t.pollMask = pollMaskStop
	}
	t.flushAt = flushThreshold(1)
	if t.engine.limits.Nodes > 0 {
		t.flushAt = 0
	}
	for h := range t.stack {
		t.stack[h].killer1 = MoveEmpty
		t.stack[h].killer2 = MoveEmpty
		t.stack[h].previous = MoveEmpty
		t.stack[h].pv.clear()
	}
	t.stack[0].previous = root.LastMove()
	t.history.Decay()
	t.evaluator.Init(t.position)
}

func flushThreshold(depth int) int64 {
	switch {
	case depth <= 6:
		return 25_000
	case depth <= 12:
		return 50_000
	case depth <= 20:
		return 100_000
	default:
		return 150_000
	}
}

func (t *thread) setRootDepth(depth int) {
	t.rootDepth = depth
	if t.engine.limits.Nodes == 0 {
		t.flushAt = flushThreshold(depth)
	}
}

// stopped caches the shared stop flag so an aborted search unwinds without
// touching the atomic again.
func (t *thread) stopped() bool {
	if !t.aborted && t.verify == nil && t.engine.shared.stopped.Load() {
		t.aborted = true
	}
	return t.aborted
}

func (t *thread) incNodes() {
	t.nodes++
	t.pending++
	if t.nodes&t.pollMask == 0 {
		t.poll()
	}
}

func (t *thread) poll() {
	if t.verify != nil {
		if t.verify.exhausted(t.nodes) {
			t.aborted = true
		}
		return
	}
	var e = t.engine
	if t.pending >= t.flushAt {
		t.flush()
	}
	if e.stopFlag != nil && e.stopFlag.Load() {
		e.timeManager.Stop(TerminationStopped)
	}
	e.timeManager.OnNodesChanged(e.shared.nodes.Load())
	if e.timeManager.IsDone() {
		e.shared.stop()
	}
}

func (t *thread) flush() {
	if t.pending != 0 {
		t.engine.shared.nodes.Add(t.pending)
		t.pending = 0
	}
	if t.pendingQ != 0 {
		t.engine.shared.qnodes.Add(t.pendingQ)
		t.pendingQ = 0
	}
}

// takeQNode counts a quiescence node. With a qnode limit the count goes
// straight to the shared counter and is refused once the limit is reached.
func (t *thread) takeQNode() bool {
	t.qnodes++
	var shared = &t.engine.shared
	if shared.qnodeLimit <= 0 || t.verify != nil {
		t.pendingQ++
		return true
	}
	if shared.qnodes.Add(1) > shared.qnodeLimit {
		shared.qnodes.Add(-1)
		t.qnodes--
		return false
	}
	return true
}

func (t *thread) qnodeBudgetSpent() bool {
	var shared = &t.engine.shared
	return shared.qnodeLimit > 0 && t.verify == nil &&
		shared.qnodes.Load() >= shared.qnodeLimit
}

func (t *thread) doMove(move Move, height int) bool {
	if !t.position.DoMove(move) {
		return false
	}
	t.stack[height+1].previous = move
	t.evaluator.MakeMove(t.position, move)
	t.incNodes()
	return true
}

func (t *thread) doNullMove(height int) {
	t.position.DoNullMove()
	t.stack[height+1].previous = MoveEmpty
	t.evaluator.MakeMove(t.position, MoveEmpty)
	t.incNodes()
}

func (t *thread) undoMove() {
	t.evaluator.UnmakeMove()
	t.position.UndoMove()
}

func (t *thread) evaluate() int {
	return clampEval(t.evaluator.EvaluateQuick(t.position))
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move Move) {
	t.stack[height].pv.assign(move, &t.stack[height+1].pv)
}

func (t *thread) updateKiller(move Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

func (t *thread) isExcluded(move Move) bool {
	return lo.Contains(t.excluded, move)
}

func (t *thread) mainLine() []Move {
	return t.stack[0].pv.toSlice()
}
