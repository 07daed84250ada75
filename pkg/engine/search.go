package engine

import (
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const pawnValue = 100

const (
	maxQPly         = 16
	maxCheckDropPly = 4
	maxCheckDrops   = 4
)

var deltaValues = [PIECE_NB]int{Empty: 0, Pawn: 100, Knight: 400, Bishop: 400, Rook: 600, Queen: 1200, King: 0}

func (t *thread) searchRoot(alpha, beta, depth int) int {
	t.evaluator.Init(t.position)
	return t.alphaBeta(alpha, beta, depth, 0)
}

// alphaBeta is a fail-soft principal variation search. When the search is
// stopped it returns 0 and the caller must check stopped before using it.
func (t *thread) alphaBeta(alpha, beta, depth, height int) int {
	if t.stopped() {
		return 0
	}
	var rootNode = height == 0
	var position = t.position
	var options = &t.engine.Options

	if !rootNode && (position.IsDraw() || position.IsRepetition()) {
		return valueDraw
	}
	if depth <= 0 {
		if options.UseQuiescence {
			return t.quiescence(alpha, beta, height, 0)
		}
		t.clearPV(height)
		return t.evaluate()
	}
	t.clearPV(height)
	if height >= maxHeight {
		return t.evaluate()
	}
	t.selDepth = Max(t.selDepth, height+1)

	var pvNode = beta != alpha+1
	var isCheck = position.IsCheck()
	t.stack[height].inCheck = isCheck

	if !rootNode && options.UsePruning {
		// mate distance pruning
		if winIn(height+1) <= alpha {
			return alpha
		}
		if lossIn(height+2) >= beta && !isCheck {
			return beta
		}
	}

	var (
		ttDepth, ttValue, ttBound int
		ttMove                    Move
		ttHit                     bool
	)
	if options.UseTT {
		ttDepth, ttValue, ttBound, ttMove, _, ttHit = t.engine.transTable.Read(position.Key())
	}
	if ttHit {
		ttValue = valueFromTT(ttValue, height)
		if ttDepth >= depth && !pvNode && position.LastMove() != MoveEmpty {
			if ttValue >= beta && (ttBound&boundLower) != 0 {
				if ttMove != MoveEmpty && !ttMove.IsCaptureOrPromotion() {
					t.updateKiller(ttMove, height)
				}
				return ttValue
			}
			if ttValue <= alpha && (ttBound&boundUpper) != 0 {
				return ttValue
			}
		}
	}

	var staticEval = t.evaluate()
	t.stack[height].staticEval = staticEval
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	if height+2 <= stackSize {
		t.stack[height+2].killer1 = MoveEmpty
		t.stack[height+2].killer2 = MoveEmpty
	}

	if !rootNode && !pvNode && !isCheck && options.UsePruning {
		// reverse futility pruning
		if depth <= 8 && staticEval-pawnValue*depth >= beta {
			return staticEval
		}

		// razoring
		if options.UseQuiescence && depth <= 2 && staticEval+3*pawnValue*depth <= alpha {
			var score = t.quiescence(alpha, alpha+1, height, 0)
			if t.stopped() {
				return 0
			}
			if score <= alpha {
				return score
			}
		}

		// null-move pruning
		if options.UseNullMove && depth >= 2 &&
			position.LastMove() != MoveEmpty &&
			(height == 0 || t.stack[height-1].previous != MoveEmpty) &&
			beta < valueWin &&
			!(ttHit && ttValue < beta && (ttBound&boundUpper) != 0) &&
			!position.IsLateEndgame(position.SideToMove()) &&
			staticEval >= beta {
			var reduction = 4 + depth/6 + Min(2, (staticEval-beta)/200)
			t.doNullMove(height)
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1)
			t.undoMove()
			if t.stopped() {
				return 0
			}
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}
	}

	var historyContext = t.getHistoryContext(height)
	var killer1 = t.stack[height].killer1
	var killer2 = t.stack[height].killer2

	var mi moveIterator
	var rootIndex = 0
	if !rootNode {
		mi = moveIterator{
			position:  position,
			buffer:    t.stack[height].moveList[:],
			history:   historyContext,
			transMove: ttMove,
			killer1:   killer1,
			killer2:   killer2,
		}
		mi.Init()
	}

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0
	var quietsSearched = t.stack[height].quietsSearched[:0]
	var capturesSearched = t.stack[height].capturesSearched[:0]

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	var best = -valueInfinity
	var bestMove = MoveEmpty
	var oldAlpha = alpha

	for {
		var move Move
		if rootNode {
			if rootIndex >= len(t.rootMoves) {
				break
			}
			move = t.rootMoves[rootIndex]
			rootIndex++
			if t.isExcluded(move) {
				continue
			}
		} else {
			move = mi.Next()
			if move == MoveEmpty {
				break
			}
		}

		var isNoisy = move.IsCaptureOrPromotion()
		if !isNoisy {
			quietsSeen++
		}

		if options.UsePruning && depth <= 8 && best > valueLoss &&
			hasLegalMove && !isCheck && !rootNode {
			var important = isNoisy || move == killer1 || move == killer2

			// late-move pruning
			if !important && quietsSeen > lmp {
				continue
			}

			// futility pruning
			if !important && staticEval+pawnValue+pawnValue*depth <= alpha {
				continue
			}

			// SEE pruning
			var seeMargin int
			if isNoisy {
				seeMargin = pawnValue * Max(depth, (staticEval+pawnValue-alpha)/pawnValue)
			} else {
				seeMargin = pawnValue * (depth / 2)
			}
			if !position.SeeGE(move, -seeMargin) {
				continue
			}
		}

		if !t.doMove(move, height) {
			continue
		}
		hasLegalMove = true
		movesSearched++
		var givesCheck = position.IsCheck()

		var extension, reduction int
		if options.UsePruning && givesCheck && depth >= 3 {
			extension = 1
		}

		if options.UseLMR && depth >= 3 && movesSearched > 1 && !isNoisy {
			reduction = options.Lmr(depth, movesSearched)
			if move == killer1 || move == killer2 {
				reduction--
			}
			if !isCheck {
				var history = historyContext.ReadTotal(move)
				reduction -= Clamp(history/5000, -2, 2)
				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || givesCheck {
				reduction--
			}
			reduction = Clamp(reduction, 0, Max(0, depth-2))
		}

		if isNoisy {
			capturesSearched = append(capturesSearched, move)
		} else {
			quietsSearched = append(quietsSearched, move)
		}

		var newDepth = depth - 1 + extension
		var score int
		if movesSearched == 1 {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1)
		} else {
			score = alpha + 1
			if reduction > 0 {
				score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1)
			}
			if score > alpha {
				score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1)
			}
			if score > alpha && score < beta {
				score = -t.alphaBeta(-beta, -alpha, newDepth, height+1)
			}
		}

		t.undoMove()
		if t.stopped() {
			return 0
		}

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if rootNode {
				t.rootAssigned = true
				t.rootScore = score
			}
			if alpha >= beta {
				break
			}
		}
	}

	if !hasLegalMove {
		if isCheck {
			return lossIn(height)
		}
		return valueDraw
	}

	if best >= beta && bestMove != MoveEmpty {
		historyContext.Update(quietsSearched, capturesSearched, bestMove, depth)
		if !bestMove.IsCaptureOrPromotion() {
			t.updateKiller(bestMove, height)
			historyContext.UpdateCounter(t.stack[height].previous, bestMove)
		}
	}

	if options.UseTT {
		var bound int
		switch {
		case best >= beta:
			bound = boundLower
		case best > oldAlpha:
			bound = boundExact
		default:
			bound = boundUpper
		}
		if !(rootNode && (bound == boundUpper || len(t.excluded) != 0)) {
			t.engine.transTable.Update(position.Key(), depth, valueToTT(best, height), bound, bestMove, pvNode)
		}
	}

	return best
}

func (t *thread) quiescence(alpha, beta, height, qply int) int {
	if t.stopped() {
		return 0
	}
	t.clearPV(height)
	var position = t.position
	var options = &t.engine.Options

	if position.IsDraw() || position.IsRepetition() {
		return valueDraw
	}
	var isCheck = position.IsCheck()
	if height >= maxHeight || (!isCheck && qply >= maxQPly) {
		return Clamp(t.evaluate(), alpha, beta)
	}
	t.selDepth = Max(t.selDepth, height+1)

	if !t.takeQNode() {
		if isCheck {
			return alpha
		}
		return Clamp(t.evaluate(), alpha, beta)
	}

	if options.UseTT {
		var _, ttValue, ttBound, _, _, ttHit = t.engine.transTable.Read(position.Key())
		if ttHit {
			ttValue = valueFromTT(ttValue, height)
			if ttBound == boundExact ||
				ttBound == boundLower && ttValue >= beta ||
				ttBound == boundUpper && ttValue <= alpha {
				return ttValue
			}
		}
	}

	var best = -valueInfinity
	var standPat = 0
	if !isCheck {
		standPat = t.evaluate()
		best = standPat
		if standPat > alpha {
			alpha = standPat
			if alpha >= beta {
				return beta
			}
		}
	}

	var mi = moveIteratorQS{
		position: position,
		buffer:   t.stack[height].moveList[:],
	}
	mi.Init()
	var hasLegalMove = false
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if t.qnodeBudgetSpent() {
			break
		}
		if !isCheck {
			if !position.SeeGE(move, 0) {
				continue
			}
			// delta pruning
			if options.UsePruning && move.Promotion() == Empty &&
				standPat+deltaValues[move.CapturedPiece()]+2*pawnValue <= alpha {
				continue
			}
		}
		if !t.doMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, height+1, qply+1)
		t.undoMove()
		if t.stopped() {
			return 0
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				return best
			}
		}
	}

	if isCheck {
		if hasLegalMove {
			return best
		}
		if t.qnodeBudgetSpent() {
			return alpha
		}
		return lossIn(height)
	}

	if position.SupportsDrops() && qply < maxCheckDropPly && standPat+80 > alpha {
		var score = t.searchCheckingDrops(alpha, beta, height, qply)
		if t.stopped() {
			return 0
		}
		best = Max(best, score)
	}
	return best
}

// searchCheckingDrops tries a few drops that give check near the enemy king.
func (t *thread) searchCheckingDrops(alpha, beta, height, qply int) int {
	var position = t.position
	var enemyKing = position.KingSquare(position.SideToMove() ^ 1)
	if enemyKing == SquareNone {
		return -valueInfinity
	}
	var ml = position.GenerateQuiets(t.stack[height].moveList[:])
	var n = 0
	for i := range ml {
		var m = ml[i].Move
		if !m.IsDrop() {
			continue
		}
		var dist = position.SquareDistance(m.To(), enemyKing)
		if !dropNearKing(m, enemyKing, dist) {
			continue
		}
		ml[n] = OrderedMove{Move: m, Key: int32((10-dist)*2 + dropHint(m.MovingPiece()))}
		n++
	}
	sortMoves(ml[:n])

	var best = -valueInfinity
	var searched = 0
	for i := 0; i < n && searched < maxCheckDrops; i++ {
		var move = ml[i].Move
		if t.qnodeBudgetSpent() {
			break
		}
		if !position.GivesCheck(move) {
			continue
		}
		if !t.doMove(move, height) {
			continue
		}
		searched++
		var score = -t.quiescence(-beta, -alpha, height+1, qply+1)
		t.undoMove()
		if t.stopped() {
			return 0
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}
	return best
}

func dropNearKing(m Move, king, dist int) bool {
	var sq = m.To()
	var diagonal = FileDistance(sq, king) == RankDistance(sq, king)
	var straight = File(sq) == File(king) || Rank(sq) == Rank(king)
	switch m.MovingPiece() {
	case Bishop:
		return diagonal
	case Rook:
		return straight
	case Queen:
		return diagonal || straight
	case Knight, Pawn:
		return dist <= 2
	}
	return false
}

func dropHint(piece int) int {
	switch piece {
	case Pawn:
		return 5
	case Knight:
		return 9
	case Bishop:
		return 10
	case Rook:
		return 11
	case Queen:
		return 12
	}
	return 0
}
