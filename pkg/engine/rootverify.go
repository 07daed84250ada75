package engine

import (
	"time"

	"github.com/samber/lo"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

type verifyBudget struct {
	deadline   time.Time
	maxNodes   int64
	startNodes int64
}

func (b *verifyBudget) exhausted(nodes int64) bool {
	return nodes-b.startNodes >= b.maxNodes || !time.Now().Before(b.deadline)
}

type verifyFailure int

const (
	verifyPass verifyFailure = iota
	verifySelfSee
	verifyOppCapture
	verifyEvalDrop
	verifyMateInOne
)

func (f verifyFailure) String() string {
	switch f {
	case verifySelfSee:
		return "selfsee"
	case verifyOppCapture:
		return "oppcapture"
	case verifyEvalDrop:
		return "evaldrop"
	case verifyMateInOne:
		return "mateinone"
	}
	return "pass"
}

type candidateReport struct {
	move Move
	eval int
	fail verifyFailure
}

// verifyRoot checks the chosen root move for shallow blunders the main
// search may have missed and replaces it with a safer candidate. It runs on
// thread 0 after all workers have finished.
func (e *Engine) verifyRoot(result *SearchInfo) {
	var opts = e.Options.RootVerify
	if !opts.Enabled || len(result.MainLine) == 0 {
		return
	}
	var t = e.threads[0]
	if t.faulted {
		return
	}
	var snap = e.shared.result()
	if snap == nil {
		return
	}
	var bestScore = snap.score
	if isMateScore(bestScore) {
		return
	}
	if bestScore >= opts.WinProtectThreshold && snap.depth < opts.WinProtectMaxDepth {
		return
	}

	var best = result.MainLine[0]
	t.verify = &verifyBudget{
		deadline:   time.Now().Add(opts.MaxTime),
		maxNodes:   int64(opts.MaxNodes),
		startNodes: t.nodes,
	}
	t.aborted = false
	t.evaluator.Init(t.position)
	defer func() {
		result.VerifyNodes = t.nodes - t.verify.startNodes
		t.verify = nil
		t.pending = 0
		t.pendingQ = 0
	}()

	var maxCandidates = opts.MaxCandidates
	if t.rootUnderThreat(opts.OppSEEMin) {
		maxCandidates = opts.MaxCandidatesThreat
	}
	var candidates = []Move{best}
	candidates = append(candidates, lo.Map(result.Lines, func(line SearchLine, _ int) Move {
		return line.MainLine[0]
	})...)
	candidates = append(candidates, t.rootMoves...)
	candidates = lo.Uniq(candidates)
	if len(candidates) > Max(1, maxCandidates) {
		candidates = candidates[:Max(1, maxCandidates)]
	}

	var accepted, fallback *candidateReport
	for _, move := range candidates {
		var report, ok = t.verifyCandidate(move, bestScore)
		if !ok {
			break
		}
		if report.fail == verifyPass {
			accepted = &report
			break
		}
		e.Options.Logger.Debug().
			Stringer("move", move).
			Stringer("reason", report.fail).
			Int("eval", report.eval).
			Msg("root-verify-fail")
		if fallback == nil || report.eval > fallback.eval {
			fallback = &report
		}
	}

	var chosen = accepted
	if chosen == nil && opts.RequirePass {
		chosen = fallback
	}
	if chosen == nil || chosen.move == best {
		return
	}
	var line, found = lo.Find(result.Lines, func(line SearchLine) bool {
		return line.MainLine[0] == chosen.move
	})
	if found {
		result.MainLine = line.MainLine
	} else {
		result.MainLine = []Move{chosen.move}
	}
	result.Score = newUciScore(chosen.eval)
	result.Verified = true
	if len(result.Lines) <= 1 {
		result.Lines = []SearchLine{{Score: result.Score, Depth: result.Depth, MainLine: result.MainLine}}
	}
}

// verifyCandidate returns ok == false when the verification budget ran out
// before the candidate could be judged.
func (t *thread) verifyCandidate(move Move, bestScore int) (report candidateReport, ok bool) {
	var opts = &t.engine.Options.RootVerify
	var position = t.position
	report = candidateReport{move: move, eval: bestScore}

	if !move.IsDrop() && !position.SeeGE(move, 0) {
		report.fail = verifySelfSee
		return report, true
	}
	if !t.doMove(move, 0) {
		return report, false
	}
	defer t.undoMove()

	if enemyMateInOne(position, t.stack[2].moveList[:], t.stack[3].moveList[:]) != MoveEmpty {
		report.fail = verifyMateInOne
		return report, true
	}
	if canWinMajor(position, opts.OppSEEMin, t.stack[2].moveList[:]) {
		report.fail = verifyOppCapture
		return report, true
	}

	var score int
	if opts.CheckDepth > 1 {
		score = -t.alphaBeta(-valueInfinity, valueInfinity, opts.CheckDepth-1, 1)
	} else {
		score = -t.evaluate()
	}
	if t.aborted {
		return report, false
	}
	report.eval = score
	if score-bestScore <= -opts.MajorLossPenalty {
		report.fail = verifyEvalDrop
	}
	return report, true
}

// rootUnderThreat reports whether the side to move is in check or would
// lose a major piece if it passed.
func (t *thread) rootUnderThreat(seeMin int) bool {
	var position = t.position
	if position.IsCheck() {
		return true
	}
	position.DoNullMove()
	var result = canWinMajor(position, seeMin, t.stack[2].moveList[:])
	position.UndoMove()
	return result
}

func isMajorPiece(piece int) bool {
	return piece == Rook || piece == Queen
}

// canWinMajor reports a legal capture of a rook or queen by the side to move
// whose exchange value is at least seeMin.
func canWinMajor(p IPosition, seeMin int, buffer []OrderedMove) bool {
	for _, om := range p.GenerateCaptures(buffer) {
		var m = om.Move
		if !isMajorPiece(m.CapturedPiece()) || p.See(m) < seeMin {
			continue
		}
		if p.DoMove(m) {
			p.UndoMove()
			return true
		}
	}
	return false
}

// enemyMateInOne returns a move of the side to move that checkmates at once.
func enemyMateInOne(p IPosition, buffer, replies []OrderedMove) Move {
	for _, om := range p.GenerateMoves(buffer) {
		var m = om.Move
		if !p.GivesCheck(m) || !p.DoMove(m) {
			continue
		}
		var mated = !hasLegalMove(p, replies)
		p.UndoMove()
		if mated {
			return m
		}
	}
	return MoveEmpty
}

func hasLegalMove(p IPosition, buffer []OrderedMove) bool {
	for _, om := range p.GenerateMoves(buffer) {
		if p.DoMove(om.Move) {
			p.UndoMove()
			return true
		}
	}
	return false
}
