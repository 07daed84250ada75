package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/samber/lo"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

// Engine is a parallel alpha-beta searcher. Search must not be called
// concurrently; PonderHit may be called while a search runs.
type Engine struct {
	Options       Options
	evalBuilder   func() interface{}
	transTable    *transTable
	threads       []*thread
	sharedHistory sharedHistory
	shared        sharedState
	timeManager   TimeManager
	limits        LimitsType
	stopFlag      *atomic.Bool
	progress      func(SearchInfo)
	sessionID     uuid.UUID
	start         time.Time
	mu            sync.Mutex
}

type SearchParams struct {
	Position IPosition
	Limits   LimitsType
	Progress func(SearchInfo)
	// Stop is an optional flag the caller sets to end the search.
	Stop      *atomic.Bool
	SessionID uuid.UUID
}

type IEvaluator interface {
	Evaluate(p IPosition) int
}

// IUpdatableEvaluator follows the search: MakeMove is called after the move
// is made on p, UnmakeMove before it is taken back.
type IUpdatableEvaluator interface {
	Init(p IPosition)
	MakeMove(p IPosition, m Move)
	UnmakeMove()
	EvaluateQuick(p IPosition) int
}

func NewEngine(evalBuilder func() interface{}) *Engine {
	return &Engine{
		Options:     NewOptions(),
		evalBuilder: evalBuilder,
	}
}

func (e *Engine) Prepare() {
	var log = e.Options.Logger
	if e.transTable == nil || e.transTable.Size() != e.Options.Hash ||
		(isBucketSize(e.Options.TTBucketSize) && e.transTable.BucketSize() != e.Options.TTBucketSize) {
		if e.transTable != nil {
			e.transTable = nil
			runtime.GC()
		}
		e.transTable = newTransTable(Max(1, e.Options.Hash), e.Options.TTBucketSize)
		log.Debug().
			Int("hash", e.Options.Hash).
			Int("bucket", e.transTable.BucketSize()).
			Str("slots", humanize.Comma(int64(len(e.transTable.slots)))).
			Msg("transtable-allocated")
	}
	if e.Options.Lmr(63, 63) == 0 {
		e.Options.InitLmr(LmrMult)
	}
	for i, t := range e.threads {
		if t.faulted {
			log.Warn().Int("thread", i).Msg("search-thread-replaced")
			e.threads[i] = newThread(e, i)
		}
	}
	var threads = Max(1, e.Options.Threads)
	if len(e.threads) > threads {
		e.threads = e.threads[:threads]
	}
	for len(e.threads) < threads {
		e.threads = append(e.threads, newThread(e, len(e.threads)))
	}
}

func isBucketSize(n int) bool {
	return n == 4 || n == 8 || n == 16
}

func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()
	var log = e.Options.Logger
	var root = searchParams.Position
	e.limits = searchParams.Limits
	e.stopFlag = searchParams.Stop
	e.progress = searchParams.Progress
	e.sessionID = searchParams.SessionID
	if e.sessionID == uuid.Nil {
		e.sessionID = uuid.New()
	}
	e.shared.reset(int64(searchParams.Limits.QNodes))

	var tm = newTimeManager(ctx, e.start, e.limits, root.SideToMove(), e.Options.MoveOverhead)
	e.mu.Lock()
	e.timeManager = tm
	e.mu.Unlock()
	defer tm.Close()

	e.transTable.IncDate()

	var rootMoves = e.genRootMoves(root)
	if len(rootMoves) == 0 {
		var score = valueDraw
		if root.IsCheck() {
			score = lossIn(0)
		}
		return SearchInfo{
			Score:       newUciScore(score),
			Time:        time.Since(e.start),
			Termination: TerminationNoMoves,
			SessionID:   e.sessionID,
		}
	}
	if len(rootMoves) == 1 && tm.timed() {
		return SearchInfo{
			MainLine:    rootMoves[:1],
			MultiPV:     1,
			Time:        time.Since(e.start),
			Termination: TerminationSingleMove,
			SessionID:   e.sessionID,
		}
	}

	for _, t := range e.threads {
		t.reset(root, rootMoves)
	}
	if err := lazySmp(e); err != nil {
		log.Warn().Err(err).Msg("search-degraded")
	}

	var termination = tm.Reason()
	if termination == TerminationNone {
		termination = TerminationDepth
	}
	var result = e.currentSearchResult()
	result.Termination = termination
	if len(result.MainLine) == 0 {
		result.MainLine = rootMoves[:1]
	}
	e.verifyRoot(&result)

	log.Debug().
		Int("depth", result.Depth).
		Str("nodes", humanize.Comma(result.Nodes)).
		Str("qnodes", humanize.Comma(result.QNodes)).
		Str("ttprobes", humanize.Comma(int64(e.transTable.probes.Load()))).
		Str("tthits", humanize.Comma(int64(e.transTable.hits.Load()))).
		Dur("time", result.Time).
		Stringer("termination", result.Termination).
		Msg("search-finished")
	return result
}

func (e *Engine) PonderHit() {
	e.mu.Lock()
	var tm = e.timeManager
	e.mu.Unlock()
	if tm != nil {
		tm.PonderHit()
	}
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	for _, t := range e.threads {
		t.history.Clear()
	}
	e.sharedHistory.clear()
}

func (e *Engine) TTStats() TTStats {
	e.Prepare()
	return e.transTable.Stats()
}

func (e *Engine) maxDepth() int {
	if e.limits.Depth > 0 {
		return Min(e.limits.Depth, maxHeight)
	}
	return maxHeight
}

func (e *Engine) multiPV(rootMoves int) int {
	var n = e.Options.MultiPV
	if e.limits.MultiPV > 0 {
		n = e.limits.MultiPV
	}
	return Clamp(n, 1, rootMoves)
}

// genRootMoves returns the legal root moves, hash move first, then
// captures by MVV-LVA.
func (e *Engine) genRootMoves(root IPosition) []Move {
	var p = root.Clone()
	var transMove = MoveEmpty
	if e.Options.UseTT {
		_, _, _, transMove, _, _ = e.transTable.Read(p.Key())
	}
	var buffer [MaxMoves]OrderedMove
	var ml = p.GenerateMoves(buffer[:])
	var n = 0
	for i := range ml {
		var m = ml[i].Move
		if !p.DoMove(m) {
			continue
		}
		p.UndoMove()
		var key = 0
		if m == transMove {
			key = sortTableKeyImportant
		} else if m.IsCaptureOrPromotion() {
			key = 1000 + mvvlva(m)
		}
		ml[n] = OrderedMove{Move: m, Key: int32(key)}
		n++
	}
	sortMoves(ml[:n])
	return lo.Map(ml[:n], func(item OrderedMove, _ int) Move {
		return item.Move
	})
}

func (e *Engine) currentSearchResult() SearchInfo {
	return e.snapshotInfo(e.shared.result())
}

// snapshotInfo combines a published root result with the search totals.
func (e *Engine) snapshotInfo(snap *snapshot) SearchInfo {
	var result = SearchInfo{
		Nodes:     e.shared.nodes.Load(),
		QNodes:    e.shared.qnodes.Load(),
		Time:      time.Since(e.start),
		HashFull:  e.transTable.HashFull(),
		MultiPV:   1,
		SessionID: e.sessionID,
	}
	if snap != nil {
		result.Depth = snap.depth
		result.SelDepth = snap.selDepth
		result.Score = newUciScore(snap.score)
		result.MainLine = snap.mainLine
		result.Lines = snap.lines
		if len(result.Lines) == 0 && len(snap.mainLine) != 0 {
			result.Lines = []SearchLine{{Score: result.Score, Depth: snap.depth, MainLine: snap.mainLine}}
		}
		result.MultiPV = Max(1, len(result.Lines))
	}
	return result
}

// onIterationComplete is called by the main thread after each depth with
// the result of that depth.
func (e *Engine) onIterationComplete(snap *snapshot) {
	if e.progress != nil && e.shared.nodes.Load() >= int64(e.Options.ProgressMinNodes) {
		e.progress(e.snapshotInfo(snap))
	}
	e.timeManager.OnIterationComplete(snap.depth, snap.score)
	if e.timeManager.IsDone() {
		e.shared.stop()
	}
}

type EvaluatorAdapter struct {
	evaluator IEvaluator
}

func (e *EvaluatorAdapter) Init(p IPosition) {
}

func (e *EvaluatorAdapter) MakeMove(p IPosition, m Move) {
}

func (e *EvaluatorAdapter) UnmakeMove() {
}

func (e *EvaluatorAdapter) EvaluateQuick(p IPosition) int {
	return e.evaluator.Evaluate(p)
}

func (e *Engine) buildEvaluator() IUpdatableEvaluator {
	var evaluationService = e.evalBuilder()
	if ue, ok := evaluationService.(IUpdatableEvaluator); ok {
		return ue
	}
	if e, ok := evaluationService.(IEvaluator); ok {
		return &EvaluatorAdapter{evaluator: e}
	}
	panic(errors.New("bad eval builder"))
}
