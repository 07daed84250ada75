package engine

import (
	"sync"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const historyMax = 1 << 14

const contIndexSize = 2 * PIECE_NB * 64

// historyTables are the per-thread move ordering statistics.
type historyTables struct {
	main         [2][PIECE_NB][64]int16
	capture      [PIECE_NB][64][PIECE_NB]int16
	continuation [contIndexSize][contIndexSize]int16
	counter      [2][PIECE_NB][64]Move
}

type historyContext struct {
	tables     *historyTables
	sideToMove int
	cont1      int
	cont2      int
	counter    Move
}

func (h *historyContext) ReadTotal(m Move) int {
	var tables = h.tables
	var score = int(tables.main[h.sideToMove][m.MovingPiece()][m.To()])
	var pieceToIndex = pieceSquareIndex(h.sideToMove, m)
	if h.cont1 != -1 {
		score += int(tables.continuation[h.cont1][pieceToIndex])
	}
	if h.cont2 != -1 {
		score += int(tables.continuation[h.cont2][pieceToIndex])
	}
	return score
}

func (h *historyContext) ReadCapture(m Move) int {
	return int(h.tables.capture[m.MovingPiece()][m.To()][m.CapturedPiece()])
}

// Update rewards the cutoff move and penalizes the moves of the same kind
// tried before it.
func (h *historyContext) Update(quietsSearched, capturesSearched []Move, bestMove Move, depth int) {
	var bonus = Min(depth*depth, 400)
	var tables = h.tables

	if !bestMove.IsCaptureOrPromotion() {
		for _, m := range quietsSearched {
			var good = m == bestMove
			updateHistory(&tables.main[h.sideToMove][m.MovingPiece()][m.To()], bonus, good)
			var pieceToIndex = pieceSquareIndex(h.sideToMove, m)
			if h.cont1 != -1 {
				updateHistory(&tables.continuation[h.cont1][pieceToIndex], bonus, good)
			}
			if h.cont2 != -1 {
				updateHistory(&tables.continuation[h.cont2][pieceToIndex], bonus, good)
			}
			if good {
				break
			}
		}
	}

	for _, m := range capturesSearched {
		var good = m == bestMove
		if m.IsCapture() {
			updateHistory(&tables.capture[m.MovingPiece()][m.To()][m.CapturedPiece()], bonus, good)
		}
		if good {
			break
		}
	}
}

func (h *historyContext) UpdateCounter(prev, bestMove Move) {
	if prev == MoveEmpty {
		return
	}
	h.tables.counter[h.sideToMove^1][prev.MovingPiece()][prev.To()] = bestMove
}

// Exponential moving average
func updateHistory(v *int16, bonus int, good bool) {
	var newVal int
	if good {
		newVal = historyMax
	} else {
		newVal = -historyMax
	}
	*v += int16((newVal - int(*v)) * bonus / 512)
}

func (h *historyTables) Clear() {
	*h = historyTables{}
}

// Decay halves every statistic. Called once per search.
func (h *historyTables) Decay() {
	for side := range h.main {
		for piece := range h.main[side] {
			for sq := range h.main[side][piece] {
				h.main[side][piece][sq] /= 2
			}
		}
	}
	for piece := range h.capture {
		for sq := range h.capture[piece] {
			for captured := range h.capture[piece][sq] {
				h.capture[piece][sq][captured] /= 2
			}
		}
	}
	for i := range h.continuation {
		for j := range h.continuation[i] {
			h.continuation[i][j] /= 2
		}
	}
}

func (t *thread) getHistoryContext(height int) historyContext {
	var sideToMove = t.position.SideToMove()
	var cont1 = -1
	var counter = MoveEmpty
	var prev1 = t.stack[height].previous
	if prev1 != MoveEmpty {
		cont1 = pieceSquareIndex(sideToMove^1, prev1)
		counter = t.history.counter[sideToMove^1][prev1.MovingPiece()][prev1.To()]
	}
	var cont2 = -1
	if height > 0 {
		var prev2 = t.stack[height-1].previous
		if prev2 != MoveEmpty {
			cont2 = pieceSquareIndex(sideToMove, prev2)
		}
	}
	return historyContext{
		tables:     t.history,
		sideToMove: sideToMove,
		cont1:      cont1,
		cont2:      cont2,
		counter:    counter,
	}
}

func pieceSquareIndex(side int, move Move) int {
	return side*PIECE_NB*64 + move.MovingPiece()<<6 | move.To()
}

// sharedHistory lets threads pool their quiet and capture statistics.
// Merging is best effort: a thread that finds the lock taken skips it.
type sharedHistory struct {
	mu      sync.Mutex
	main    [2][PIECE_NB][64]int16
	capture [PIECE_NB][64][PIECE_NB]int16
}

func (s *sharedHistory) tryMerge(local *historyTables) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	for side := range local.main {
		for piece := range local.main[side] {
			for sq := range local.main[side][piece] {
				var avg = (int(s.main[side][piece][sq]) + int(local.main[side][piece][sq])) / 2
				s.main[side][piece][sq] = int16(avg)
				local.main[side][piece][sq] = int16(avg)
			}
		}
	}
	for piece := range local.capture {
		for sq := range local.capture[piece] {
			for captured := range local.capture[piece][sq] {
				var avg = (int(s.capture[piece][sq][captured]) + int(local.capture[piece][sq][captured])) / 2
				s.capture[piece][sq][captured] = int16(avg)
				local.capture[piece][sq][captured] = int16(avg)
			}
		}
	}
	return true
}

func (s *sharedHistory) clear() {
	s.mu.Lock()
	s.main = [2][PIECE_NB][64]int16{}
	s.capture = [PIECE_NB][64][PIECE_NB]int16{}
	s.mu.Unlock()
}
