package board

import . "github.com/ChizhovVadim/lazysmp/pkg/common"

const (
	genCaptures = 1 << iota
	genQuiets
	genAll = genCaptures | genQuiets
)

const (
	f1g1Mask = (uint64(1) << SquareF1) | (uint64(1) << SquareG1)
	b1d1Mask = (uint64(1) << SquareB1) | (uint64(1) << SquareC1) | (uint64(1) << SquareD1)
	f8g8Mask = (uint64(1) << SquareF8) | (uint64(1) << SquareG8)
	b8d8Mask = (uint64(1) << SquareB8) | (uint64(1) << SquareC8) | (uint64(1) << SquareD8)
)

var (
	whiteKingSideCastle  = MakeMove(SquareE1, SquareG1, King, Empty)
	whiteQueenSideCastle = MakeMove(SquareE1, SquareC1, King, Empty)
	blackKingSideCastle  = MakeMove(SquareE8, SquareG8, King, Empty)
	blackQueenSideCastle = MakeMove(SquareE8, SquareC8, King, Empty)
)

// GenerateMoves returns all pseudo-legal moves. In check, non-king moves
// and drops are limited to those that capture or block a single checker.
func (p *Position) GenerateMoves(ml []OrderedMove) []OrderedMove {
	return p.generate(ml, genAll)
}

// GenerateCaptures returns captures, en passant and queen promotions.
func (p *Position) GenerateCaptures(ml []OrderedMove) []OrderedMove {
	return p.generate(ml, genCaptures)
}

// GenerateQuiets returns everything GenerateCaptures does not: quiet
// moves, under-promotions, castling and drops.
func (p *Position) GenerateQuiets(ml []OrderedMove) []OrderedMove {
	return p.generate(ml, genQuiets)
}

func (p *Position) GenerateLegalMoves() []Move {
	var buffer [MaxMoves]OrderedMove
	var child Position
	var result []Move
	for _, m := range p.GenerateMoves(buffer[:]) {
		if p.MakeMove(m.Move, &child) {
			result = append(result, m.Move)
		}
	}
	return result
}

func (p *Position) generate(ml []OrderedMove, mode int) []OrderedMove {
	var count = 0
	var add = func(m Move) {
		ml[count].Move = m
		count++
	}

	var ownPieces = p.PiecesByColor(p.WhiteMove)
	var oppPieces = p.PiecesByColor(!p.WhiteMove)
	var allPieces = p.White | p.Black

	var target uint64
	if mode&genCaptures != 0 {
		target |= oppPieces
	}
	if mode&genQuiets != 0 {
		target |= ^allPieces
	}

	var evasion = ^uint64(0)
	if p.Checkers != 0 {
		if MoreThanOne(p.Checkers) {
			evasion = 0
		} else {
			var kingSq = FirstOne(p.Kings & ownPieces)
			evasion = p.Checkers | betweenMask[FirstOne(p.Checkers)][kingSq]
		}
	}
	var pieceTarget = target & evasion

	var fromBB, toBB uint64
	var from, to int

	// pawns
	var ownPawns = p.Pawns & ownPieces
	var forward, promotionRank = 8, Rank8Mask
	if !p.WhiteMove {
		forward, promotionRank = -8, Rank1Mask
	}
	if mode&genCaptures != 0 && p.EpSquare != SquareNone {
		for fromBB = PawnAttacks(p.EpSquare, !p.WhiteMove) & ownPawns; fromBB != 0; fromBB &= fromBB - 1 {
			add(MakeMove(FirstOne(fromBB), p.EpSquare, Pawn, Pawn))
		}
	}
	for fromBB = ownPawns; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		to = from + forward
		if SquareMask[to]&allPieces == 0 {
			if SquareMask[to]&promotionRank != 0 {
				if SquareMask[to]&evasion != 0 {
					if mode&genCaptures != 0 {
						add(MakePawnMove(from, to, Empty, Queen))
					}
					if mode&genQuiets != 0 {
						add(MakePawnMove(from, to, Empty, Rook))
						add(MakePawnMove(from, to, Empty, Bishop))
						add(MakePawnMove(from, to, Empty, Knight))
					}
				}
			} else if mode&genQuiets != 0 {
				if SquareMask[to]&evasion != 0 {
					add(MakeMove(from, to, Pawn, Empty))
				}
				var startRank = Let(p.WhiteMove, Rank2, Rank7)
				var to2 = to + forward
				if Rank(from) == startRank && SquareMask[to2]&(allPieces|^evasion) == 0 {
					add(MakeMove(from, to2, Pawn, Empty))
				}
			}
		}
		if mode&genCaptures != 0 {
			for toBB = PawnAttacks(from, p.WhiteMove) & oppPieces & evasion; toBB != 0; toBB &= toBB - 1 {
				to = FirstOne(toBB)
				var captured = p.WhatPiece(to)
				if SquareMask[to]&promotionRank != 0 {
					add(MakePawnMove(from, to, captured, Queen))
					add(MakePawnMove(from, to, captured, Rook))
					add(MakePawnMove(from, to, captured, Bishop))
					add(MakePawnMove(from, to, captured, Knight))
				} else {
					add(MakeMove(from, to, Pawn, captured))
				}
			}
		}
	}

	for fromBB = p.Knights & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = KnightAttacks[from] & pieceTarget; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			add(MakeMove(from, to, Knight, p.WhatPiece(to)))
		}
	}

	for fromBB = p.Bishops & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = BishopAttacks(from, allPieces) & pieceTarget; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			add(MakeMove(from, to, Bishop, p.WhatPiece(to)))
		}
	}

	for fromBB = p.Rooks & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = RookAttacks(from, allPieces) & pieceTarget; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			add(MakeMove(from, to, Rook, p.WhatPiece(to)))
		}
	}

	for fromBB = p.Queens & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = QueenAttacks(from, allPieces) & pieceTarget; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			add(MakeMove(from, to, Queen, p.WhatPiece(to)))
		}
	}

	from = FirstOne(p.Kings & ownPieces)
	for toBB = KingAttacks[from] & target; toBB != 0; toBB &= toBB - 1 {
		to = FirstOne(toBB)
		add(MakeMove(from, to, King, p.WhatPiece(to)))
	}

	if mode&genQuiets != 0 && p.Checkers == 0 {
		if p.WhiteMove {
			if p.CastleRights&WhiteKingSide != 0 &&
				allPieces&f1g1Mask == 0 &&
				!p.isAttackedBySide(SquareF1, false) {
				add(whiteKingSideCastle)
			}
			if p.CastleRights&WhiteQueenSide != 0 &&
				allPieces&b1d1Mask == 0 &&
				!p.isAttackedBySide(SquareD1, false) {
				add(whiteQueenSideCastle)
			}
		} else {
			if p.CastleRights&BlackKingSide != 0 &&
				allPieces&f8g8Mask == 0 &&
				!p.isAttackedBySide(SquareF8, true) {
				add(blackKingSideCastle)
			}
			if p.CastleRights&BlackQueenSide != 0 &&
				allPieces&b8d8Mask == 0 &&
				!p.isAttackedBySide(SquareD8, true) {
				add(blackQueenSideCastle)
			}
		}
	}

	if p.Drops && mode&genQuiets != 0 {
		var hand = &p.Hands[sideIndex(p.WhiteMove)]
		var dropTarget = ^allPieces & evasion
		for piece := Pawn; piece < King; piece++ {
			if hand[piece] == 0 {
				continue
			}
			var squares = dropTarget
			if piece == Pawn {
				squares &^= Rank1Mask | Rank8Mask
			}
			for toBB = squares; toBB != 0; toBB &= toBB - 1 {
				add(MakeDrop(piece, FirstOne(toBB)))
			}
		}
	}

	return ml[:count]
}
