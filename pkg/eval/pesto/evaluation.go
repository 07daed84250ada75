package eval

import (
	"github.com/ChizhovVadim/lazysmp/pkg/board"
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	minorPhase = 4
	rookPhase  = 6
	queenPhase = 12
	totalPhase = 2 * (4*minorPhase + 2*rookPhase + queenPhase)
)

const (
	darkSquares = uint64(0xAA55AA55AA55AA55)
)

// PeSTO material values; square tables are built from simple rules.
var (
	materialMiddle = [King + 1]int{Pawn: 82, Knight: 337, Bishop: 365, Rook: 477, Queen: 1025}
	materialEnd    = [King + 1]int{Pawn: 94, Knight: 281, Bishop: 297, Rook: 512, Queen: 936}
)

const (
	bishopPairMiddle = 30
	bishopPairEnd    = 50
	handBonusMiddle  = 15
	handBonusEnd     = 5
)

type EvaluationService struct {
	pstMiddle  [2][King + 1][64]int
	pstEnd     [2][King + 1][64]int
	pieceCount [2][King + 1]int
	force      [2]int
}

func NewEvaluationService() *EvaluationService {
	var es = &EvaluationService{}
	es.init()
	return es
}

func (e *EvaluationService) init() {
	for piece := Pawn; piece <= King; piece++ {
		for sq := 0; sq < 64; sq++ {
			var mg, eg = squareBonus(piece, sq)
			e.pstMiddle[SideWhite][piece][sq] = materialMiddle[piece] + mg
			e.pstEnd[SideWhite][piece][sq] = materialEnd[piece] + eg
			e.pstMiddle[SideBlack][piece][FlipSquare(sq)] = -(materialMiddle[piece] + mg)
			e.pstEnd[SideBlack][piece][FlipSquare(sq)] = -(materialEnd[piece] + eg)
		}
	}
}

// squareBonus is the positional bonus of a white piece on sq.
func squareBonus(piece, sq int) (mg, eg int) {
	var file, rank = File(sq), Rank(sq)
	var centerFile = Min(file, FileH-file)
	var centerRank = Min(rank, Rank8-rank)
	var center = centerFile + centerRank
	switch piece {
	case Pawn:
		if rank == Rank1 || rank == Rank8 {
			return 0, 0
		}
		return 4*(rank-Rank2) + 3*centerFile, 10 * (rank - Rank2)
	case Knight:
		return 8*center - 20, 6*center - 15
	case Bishop:
		return 4*center - 8, 4*center - 8
	case Rook:
		if rank == Rank7 {
			return 15, 10
		}
		return 2 * centerFile, 0
	case Queen:
		return 2*center - 4, 4*center - 8
	case King:
		if rank == Rank1 && (file <= FileC || file >= FileG) {
			return 20, 5*center - 30
		}
		return -10*centerRank - 4*centerFile, 5*center - 30
	}
	return 0, 0
}

func (e *EvaluationService) Evaluate(pos IPosition) int {
	var p = board.Unwrap(pos)
	var (
		x      uint64
		sq     int
		piece  int
		middle int
		end    int
	)

	for piece = Pawn; piece <= King; piece++ {
		e.pieceCount[SideWhite][piece] = 0
		e.pieceCount[SideBlack][piece] = 0
	}

	for x = p.White; x != 0; x &= x - 1 {
		sq = board.FirstOne(x)
		piece = p.WhatPiece(sq)
		middle += e.pstMiddle[SideWhite][piece][sq]
		end += e.pstEnd[SideWhite][piece][sq]
		e.pieceCount[SideWhite][piece]++
	}

	for x = p.Black; x != 0; x &= x - 1 {
		sq = board.FirstOne(x)
		piece = p.WhatPiece(sq)
		middle += e.pstMiddle[SideBlack][piece][sq]
		end += e.pstEnd[SideBlack][piece][sq]
		e.pieceCount[SideBlack][piece]++
	}

	if p.Drops {
		for piece = Pawn; piece < King; piece++ {
			var diff = p.Hands[SideWhite][piece] - p.Hands[SideBlack][piece]
			middle += diff * (materialMiddle[piece] + handBonusMiddle)
			end += diff * (materialEnd[piece] + handBonusEnd)
			e.pieceCount[SideWhite][piece] += p.Hands[SideWhite][piece]
			e.pieceCount[SideBlack][piece] += p.Hands[SideBlack][piece]
		}
	}

	e.force[SideWhite] = minorPhase*(e.pieceCount[SideWhite][Knight]+e.pieceCount[SideWhite][Bishop]) +
		rookPhase*e.pieceCount[SideWhite][Rook] + queenPhase*e.pieceCount[SideWhite][Queen]
	e.force[SideBlack] = minorPhase*(e.pieceCount[SideBlack][Knight]+e.pieceCount[SideBlack][Bishop]) +
		rookPhase*e.pieceCount[SideBlack][Rook] + queenPhase*e.pieceCount[SideBlack][Queen]

	if e.pieceCount[SideWhite][Bishop] >= 2 {
		middle += bishopPairMiddle
		end += bishopPairEnd
	}
	if e.pieceCount[SideBlack][Bishop] >= 2 {
		middle -= bishopPairMiddle
		end -= bishopPairEnd
	}

	// mix score

	var phase = Min(e.force[SideWhite]+e.force[SideBlack], totalPhase)
	var result = (middle*phase + end*(totalPhase-phase)) / totalPhase

	var ocb = !p.Drops &&
		e.force[SideWhite] == minorPhase &&
		e.force[SideBlack] == minorPhase &&
		(p.Bishops&darkSquares) != 0 &&
		(p.Bishops & ^darkSquares) != 0

	if !p.Drops {
		if result > 0 {
			result = result * computeFactor(e, SideWhite, ocb) / scaleNormal
		} else {
			result = result * computeFactor(e, SideBlack, ocb) / scaleNormal
		}
	}

	if !p.WhiteMove {
		result = -result
	}

	return result
}

const (
	scaleHard   = 1
	scaleNormal = 2
)

func computeFactor(e *EvaluationService, side int, ocb bool) int {
	if e.force[side] >= queenPhase+rookPhase {
		return scaleNormal
	}
	if e.pieceCount[side][Pawn] == 0 {
		if e.force[side] <= minorPhase {
			return scaleHard
		}
		if e.force[side] == 2*minorPhase && e.pieceCount[side][Knight] == 2 && e.pieceCount[side^1][Pawn] == 0 {
			return scaleHard
		}
		if e.force[side]-e.force[side^1] <= minorPhase {
			return scaleHard
		}
	} else if e.pieceCount[side][Pawn] == 1 {
		if e.force[side] <= minorPhase && e.pieceCount[side^1][Knight]+e.pieceCount[side^1][Bishop] != 0 {
			return scaleHard
		}
		if e.force[side] == e.force[side^1] && e.pieceCount[side^1][Knight]+e.pieceCount[side^1][Bishop] != 0 {
			return scaleHard
		}
	} else if ocb && e.pieceCount[side][Pawn]-e.pieceCount[side^1][Pawn] <= 2 {
		return scaleHard
	}
	return scaleNormal
}
