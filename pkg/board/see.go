package board

import . "github.com/ChizhovVadim/lazysmp/pkg/common"

var pieceValuesSEE = [PIECE_NB]int{Pawn: 100, Knight: 400, Bishop: 400, Rook: 600, Queen: 1200, King: 12000}

func SeeValue(pieceType int) int {
	return pieceValuesSEE[pieceType]
}

func (p *Position) seeOccupancy(move Move) uint64 {
	var from = move.From()
	var to = move.To()
	var occupied = p.AllPieces()&^SquareMask[from] | SquareMask[to]
	if move.MovingPiece() == Pawn && to == p.EpSquare && !move.IsDrop() {
		occupied &^= SquareMask[to+Let(p.WhiteMove, -8, 8)]
	}
	return occupied
}

// SeeGE reports whether the static exchange on the target square gains at
// least threshold. A drop has from == to, so it starts the exchange with
// nothing captured.
func (p *Position) SeeGE(move Move, threshold int) bool {
	var to = move.To()
	var capturedPiece = move.CapturedPiece()
	var promotionPiece = move.Promotion()

	var nextVictim = move.MovingPiece()
	var balance = pieceValuesSEE[capturedPiece]
	if promotionPiece != Empty {
		nextVictim = promotionPiece
		balance += pieceValuesSEE[promotionPiece] - pieceValuesSEE[Pawn]
	}
	balance -= threshold
	if balance < 0 {
		return false
	}
	balance -= pieceValuesSEE[nextVictim]
	if balance >= 0 {
		return true
	}

	var occupied = p.seeOccupancy(move)
	var attackers = p.attackersTo(to, occupied) & occupied
	var bishops = p.Bishops | p.Queens
	var rooks = p.Rooks | p.Queens

	var us = sideIndex(p.WhiteMove)
	var side = us ^ 1
	for {
		var myAttackers = attackers & p.Colours(side)
		if myAttackers == 0 {
			break
		}
		var attackerType, attackerFrom = p.leastValuableAttacker(myAttackers)
		occupied &^= SquareMask[attackerFrom]
		if attackerType == Pawn || attackerType == Bishop || attackerType == Queen {
			attackers |= BishopAttacks(to, occupied) & bishops
		}
		if attackerType == Rook || attackerType == Queen {
			attackers |= RookAttacks(to, occupied) & rooks
		}
		attackers &= occupied
		side ^= 1

		balance = -balance - 1 - pieceValuesSEE[attackerType]
		if balance >= 0 {
			if attackerType == King && attackers&p.Colours(side) != 0 {
				side ^= 1
			}
			break
		}
	}
	return side != us
}

// See returns the exact static exchange value of the move using a swap list.
func (p *Position) See(move Move) int {
	var to = move.To()
	var gain [40]int
	var victim = move.MovingPiece()
	gain[0] = pieceValuesSEE[move.CapturedPiece()]
	if move.Promotion() != Empty {
		victim = move.Promotion()
		gain[0] += pieceValuesSEE[victim] - pieceValuesSEE[Pawn]
	}

	var occupied = p.seeOccupancy(move)
	var attackers = p.attackersTo(to, occupied) & occupied
	var bishops = p.Bishops | p.Queens
	var rooks = p.Rooks | p.Queens

	var side = sideIndex(!p.WhiteMove)
	var d = 0
	for d+1 < len(gain) {
		var myAttackers = attackers & p.Colours(side)
		if myAttackers == 0 {
			break
		}
		var attackerType, attackerFrom = p.leastValuableAttacker(myAttackers)
		if attackerType == King && attackers&p.Colours(side^1) != 0 {
			break
		}
		d++
		gain[d] = pieceValuesSEE[victim] - gain[d-1]
		occupied &^= SquareMask[attackerFrom]
		if attackerType == Pawn || attackerType == Bishop || attackerType == Queen {
			attackers |= BishopAttacks(to, occupied) & bishops
		}
		if attackerType == Rook || attackerType == Queen {
			attackers |= RookAttacks(to, occupied) & rooks
		}
		attackers &= occupied
		victim = attackerType
		side ^= 1
	}
	for ; d > 0; d-- {
		gain[d-1] = -Max(-gain[d-1], gain[d])
	}
	return gain[0]
}

func (p *Position) leastValuableAttacker(attackers uint64) (attacker, from int) {
	for piece, bb := range [...]uint64{Pawn: p.Pawns, Knight: p.Knights, Bishop: p.Bishops,
		Rook: p.Rooks, Queen: p.Queens, King: p.Kings} {
		if bb&attackers != 0 {
			return piece, FirstOne(bb & attackers)
		}
	}
	return Empty, SquareNone
}
