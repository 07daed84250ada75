package engine

import (
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	stackSize     = 128
	maxHeight     = stackSize - 1
	valueDraw     = 0
	valueMate     = 30000
	valueInfinity = valueMate + 1
	valueWin      = valueMate - 2*maxHeight
	valueLoss     = -valueWin
)

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

// valueToTT makes a mate score relative to the node it is stored from.
// The result never leaves [-valueMate, valueMate].
func valueToTT(v, height int) int {
	if v >= valueWin {
		return Min(v+height, valueMate)
	}
	if v <= valueLoss {
		return Max(v-height, -valueMate)
	}
	return v
}

func valueFromTT(v, height int) int {
	if v >= valueWin {
		return v - height
	}
	if v <= valueLoss {
		return v + height
	}
	return v
}

func isMateScore(v int) bool {
	return v >= valueWin || v <= valueLoss
}

// clampEval keeps a static evaluation out of the mate range.
func clampEval(v int) int {
	return Clamp(v, valueLoss+1, valueWin-1)
}

func newUciScore(v int) UciScore {
	if v >= valueWin {
		return UciScore{Mate: (valueMate - v + 1) / 2}
	} else if v <= valueLoss {
		var mate = (-valueMate - v) / 2
		return UciScore{Mate: mate, Mated: mate == 0}
	} else {
		return UciScore{Centipawns: v}
	}
}

func isPawnAdvance(move Move, side int) bool {
	if move.MovingPiece() != Pawn || move.IsDrop() {
		return false
	}
	var rank = Rank(move.To())
	if side == SideWhite {
		return rank >= Rank6
	}
	return rank <= Rank3
}

func isRecapture(prev, move Move) bool {
	return prev != MoveEmpty && prev.IsCaptureOrPromotion() && move.To() == prev.To()
}

// decDepth is depth-r saturated at zero.
func decDepth(depth, r int) int {
	return SaturatingSub(depth, r, 0)
}

type pv struct {
	items [stackSize]Move
	size  int
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		var n = Min(child.size, len(pv.items)-1)
		copy(pv.items[1:], child.items[:n])
		pv.size += n
	}
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

func findMoveIndex(ml []Move, move Move) int {
	for i := range ml {
		if ml[i] == move {
			return i
		}
	}
	return -1
}

func moveToBegin(ml []Move, index int) {
	if index <= 0 {
		return
	}
	var item = ml[index]
	copy(ml[1:index+1], ml[:index])
	ml[0] = item
}

func cloneMoves(ml []Move) []Move {
	var result = make([]Move, len(ml))
	copy(result, ml)
	return result
}
