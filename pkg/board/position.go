package board

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	WhiteKingSide = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

const (
	InitialPositionFen    = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	CrazyhouseInitialFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR[] w KQkq - 0 1"
)

const maxHandCount = 32

var ErrInvalidFEN = errors.New("invalid fen")

// Position is an 8x8 chess position. With Drops set it follows crazyhouse
// rules: captured pieces go to the capturer's hand and may be dropped
// later; captured promoted pieces return as pawns.
type Position struct {
	Pawns, Knights, Bishops, Rooks, Queens, Kings, White, Black, Checkers uint64
	Promoted                                                              uint64
	Hands                                                                 [2][King]int
	WhiteMove                                                             bool
	Drops                                                                 bool
	CastleRights, Rule50, EpSquare                                        int
	Key                                                                   uint64
	LastMove                                                              Move
}

type coloredPiece struct {
	Type     int
	Side     bool
	Promoted bool
}

var castleMask [64]int

func sideIndex(white bool) int {
	if white {
		return SideWhite
	}
	return SideBlack
}

func NewPositionFromFEN(fen string) (Position, error) {
	var tokens = strings.Fields(fen)
	if len(tokens) < 4 {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, fen)
	}

	var boardPart = tokens[0]
	var holdings string
	var drops bool
	if i := strings.IndexByte(boardPart, '['); i >= 0 {
		var j = strings.IndexByte(boardPart, ']')
		if j < i {
			return Position{}, fmt.Errorf("%w: unclosed holdings %v", ErrInvalidFEN, fen)
		}
		holdings = boardPart[i+1 : j]
		boardPart = boardPart[:i]
		drops = true
	}

	var board [64]coloredPiece
	var i = 0
	for _, ch := range boardPart {
		switch {
		case unicode.IsDigit(ch):
			i += int(ch - '0')
		case ch == '~':
			if i > 0 {
				board[FlipSquare(i-1)].Promoted = true
			}
		case unicode.IsLetter(ch):
			if i >= 64 {
				return Position{}, fmt.Errorf("%w: board overflow %v", ErrInvalidFEN, fen)
			}
			var pt = parsePiece(ch)
			if pt.Type == Empty {
				return Position{}, fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, ch)
			}
			board[FlipSquare(i)] = pt
			i++
		}
	}
	if i != 64 {
		return Position{}, fmt.Errorf("%w: board size %v", ErrInvalidFEN, fen)
	}

	var hands [2][King]int
	for _, ch := range holdings {
		var pt = parsePiece(ch)
		if pt.Type == Empty || pt.Type == King {
			return Position{}, fmt.Errorf("%w: bad holding %q", ErrInvalidFEN, ch)
		}
		var side = sideIndex(pt.Side)
		if hands[side][pt.Type] < maxHandCount {
			hands[side][pt.Type]++
		}
	}

	var whiteMove = tokens[1] == "w"

	var cr = 0
	if strings.Contains(tokens[2], "K") {
		cr |= WhiteKingSide
	}
	if strings.Contains(tokens[2], "Q") {
		cr |= WhiteQueenSide
	}
	if strings.Contains(tokens[2], "k") {
		cr |= BlackKingSide
	}
	if strings.Contains(tokens[2], "q") {
		cr |= BlackQueenSide
	}

	var epSquare, err = ParseSquare(tokens[3])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}

	var rule50 = 0
	if len(tokens) > 4 {
		rule50, _ = strconv.Atoi(tokens[4])
	}

	var p = Position{
		WhiteMove:    whiteMove,
		Drops:        drops,
		Hands:        hands,
		CastleRights: cr,
		EpSquare:     epSquare,
		Rule50:       rule50,
		LastMove:     MoveEmpty,
	}
	for sq, piece := range board {
		if piece.Type != Empty {
			xorPiece(&p, piece.Type, piece.Side, sq)
			if piece.Promoted {
				p.Promoted |= SquareMask[sq]
			}
		}
	}
	if PopCount(p.Kings&p.White) != 1 || PopCount(p.Kings&p.Black) != 1 {
		return Position{}, fmt.Errorf("%w: need one king per side %v", ErrInvalidFEN, fen)
	}
	if p.Pawns&(Rank1Mask|Rank8Mask) != 0 {
		return Position{}, fmt.Errorf("%w: pawn on back rank %v", ErrInvalidFEN, fen)
	}
	p.Key = p.computeKey()
	p.Checkers = p.computeCheckers()
	if !p.isLegal() {
		return Position{}, fmt.Errorf("%w: side not to move is in check %v", ErrInvalidFEN, fen)
	}
	return p, nil
}

func parsePiece(ch rune) coloredPiece {
	var side = unicode.IsUpper(ch)
	var i = strings.IndexRune("pnbrqk", unicode.ToLower(ch))
	if i < 0 {
		return coloredPiece{Type: Empty}
	}
	return coloredPiece{Type: i + Pawn, Side: side}
}

func pieceToChar(pieceType int, side bool) string {
	var result = string(PieceName(pieceType))
	if side {
		result = strings.ToUpper(result)
	}
	return result
}

func (p *Position) String() string {
	var sb strings.Builder

	var emptyCount = 0
	for i := 0; i < 64; i++ {
		var sq = FlipSquare(i)
		var piece, side = p.GetPieceTypeAndSide(sq)
		if piece == Empty {
			emptyCount++
		} else {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			sb.WriteString(pieceToChar(piece, side))
			if p.Promoted&SquareMask[sq] != 0 {
				sb.WriteByte('~')
			}
		}
		if File(sq) == FileH {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			if Rank(sq) != Rank1 {
				sb.WriteString("/")
			}
		}
	}

	if p.Drops {
		sb.WriteByte('[')
		for _, side := range [...]bool{true, false} {
			for piece := Queen; piece >= Pawn; piece-- {
				for n := 0; n < p.Hands[sideIndex(side)][piece]; n++ {
					sb.WriteString(pieceToChar(piece, side))
				}
			}
		}
		sb.WriteByte(']')
	}

	if p.WhiteMove {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if p.CastleRights == 0 {
		sb.WriteString("-")
	} else {
		if p.CastleRights&WhiteKingSide != 0 {
			sb.WriteString("K")
		}
		if p.CastleRights&WhiteQueenSide != 0 {
			sb.WriteString("Q")
		}
		if p.CastleRights&BlackKingSide != 0 {
			sb.WriteString("k")
		}
		if p.CastleRights&BlackQueenSide != 0 {
			sb.WriteString("q")
		}
	}

	fmt.Fprintf(&sb, " %v %v %v", SquareName(p.EpSquare), p.Rule50, p.Rule50/2+1)
	return sb.String()
}

func (p *Position) AllPieces() uint64 {
	return p.White | p.Black
}

func (p *Position) PiecesByColor(white bool) uint64 {
	if white {
		return p.White
	}
	return p.Black
}

func (p *Position) Colours(side int) uint64 {
	if side == SideWhite {
		return p.White
	}
	return p.Black
}

func (p *Position) PiecesByType(pieceType int) uint64 {
	switch pieceType {
	case Pawn:
		return p.Pawns
	case Knight:
		return p.Knights
	case Bishop:
		return p.Bishops
	case Rook:
		return p.Rooks
	case Queen:
		return p.Queens
	case King:
		return p.Kings
	}
	return 0
}

func (p *Position) GetPieceTypeAndSide(sq int) (pieceType int, side bool) {
	var bb = SquareMask[sq]
	if p.White&bb != 0 {
		side = true
	} else if p.Black&bb == 0 {
		return Empty, false
	}
	return p.WhatPiece(sq), side
}

func (p *Position) WhatPiece(sq int) int {
	var bb = SquareMask[sq]
	switch {
	case (p.White|p.Black)&bb == 0:
		return Empty
	case p.Pawns&bb != 0:
		return Pawn
	case p.Knights&bb != 0:
		return Knight
	case p.Bishops&bb != 0:
		return Bishop
	case p.Rooks&bb != 0:
		return Rook
	case p.Queens&bb != 0:
		return Queen
	case p.Kings&bb != 0:
		return King
	}
	panic(fmt.Errorf("wrong piece on %s", SquareName(sq)))
}

func (p *Position) HandCount(white bool, pieceType int) int {
	return p.Hands[sideIndex(white)][pieceType]
}

func (p *Position) IsCheck() bool {
	return p.Checkers != 0
}

// MakeMove copies src into result and applies the move. It returns false
// if the move leaves the mover's king attacked.
func (src *Position) MakeMove(move Move, result *Position) bool {
	*result = *src
	var from = move.From()
	var to = move.To()
	var movingPiece = move.MovingPiece()
	var capturedPiece = move.CapturedPiece()
	var us = sideIndex(src.WhiteMove)

	result.WhiteMove = !src.WhiteMove
	result.Key ^= sideKey

	result.EpSquare = SquareNone
	if src.EpSquare != SquareNone {
		result.Key ^= enpassantKey[File(src.EpSquare)]
	}

	if move.IsDrop() {
		setHand(result, us, movingPiece, src.Hands[us][movingPiece]-1)
		xorPiece(result, movingPiece, src.WhiteMove, to)
		result.Rule50 = 0
	} else {
		result.CastleRights = src.CastleRights & castleMask[from] & castleMask[to]
		result.Key ^= castlingKey[result.CastleRights^src.CastleRights]

		if movingPiece == Pawn || capturedPiece != Empty {
			result.Rule50 = 0
		} else {
			result.Rule50 = src.Rule50 + 1
		}

		if capturedPiece != Empty {
			var capSq = to
			if capturedPiece == Pawn && to == src.EpSquare {
				capSq = to + Let(src.WhiteMove, -8, 8)
			}
			xorPiece(result, capturedPiece, !src.WhiteMove, capSq)
			if src.Drops {
				var handPiece = capturedPiece
				if src.Promoted&SquareMask[capSq] != 0 {
					handPiece = Pawn
				}
				if result.Hands[us][handPiece] < maxHandCount {
					setHand(result, us, handPiece, result.Hands[us][handPiece]+1)
				}
			}
			result.Promoted &^= SquareMask[capSq]
		}

		movePiece(result, movingPiece, src.WhiteMove, from, to)
		if result.Promoted&SquareMask[from] != 0 {
			result.Promoted ^= SquareMask[from] | SquareMask[to]
		}

		if movingPiece == Pawn {
			if to == from+16 || to == from-16 {
				result.EpSquare = (from + to) / 2
				result.Key ^= enpassantKey[File(result.EpSquare)]
			}
			if move.Promotion() != Empty {
				xorPiece(result, Pawn, src.WhiteMove, to)
				xorPiece(result, move.Promotion(), src.WhiteMove, to)
				if src.Drops {
					result.Promoted |= SquareMask[to]
				}
			}
		} else if movingPiece == King {
			switch {
			case from == SquareE1 && to == SquareG1:
				movePiece(result, Rook, true, SquareH1, SquareF1)
			case from == SquareE1 && to == SquareC1:
				movePiece(result, Rook, true, SquareA1, SquareD1)
			case from == SquareE8 && to == SquareG8:
				movePiece(result, Rook, false, SquareH8, SquareF8)
			case from == SquareE8 && to == SquareC8:
				movePiece(result, Rook, false, SquareA8, SquareD8)
			}
		}
	}

	if !result.isLegal() {
		return false
	}
	result.Checkers = result.computeCheckers()
	result.LastMove = move
	return true
}

func (src *Position) MakeNullMove(result *Position) {
	*result = *src
	result.Rule50 = src.Rule50 + 1
	result.WhiteMove = !src.WhiteMove
	result.Key ^= sideKey
	result.EpSquare = SquareNone
	if src.EpSquare != SquareNone {
		result.Key ^= enpassantKey[File(src.EpSquare)]
	}
	result.Checkers = 0
	result.LastMove = MoveEmpty
}

func setHand(p *Position, side, piece, count int) {
	p.Key ^= handKey[side][piece][p.Hands[side][piece]] ^ handKey[side][piece][count]
	p.Hands[side][piece] = count
}

func xorPiece(p *Position, piece int, side bool, square int) {
	var b = SquareMask[square]
	if side {
		p.White ^= b
	} else {
		p.Black ^= b
	}
	xorPieceType(p, piece, b)
	p.Key ^= PieceSquareKey(piece, side, square)
}

func movePiece(p *Position, piece int, side bool, from int, to int) {
	var b = SquareMask[from] ^ SquareMask[to]
	if side {
		p.White ^= b
	} else {
		p.Black ^= b
	}
	xorPieceType(p, piece, b)
	p.Key ^= PieceSquareKey(piece, side, from) ^ PieceSquareKey(piece, side, to)
}

func xorPieceType(p *Position, piece int, b uint64) {
	switch piece {
	case Pawn:
		p.Pawns ^= b
	case Knight:
		p.Knights ^= b
	case Bishop:
		p.Bishops ^= b
	case Rook:
		p.Rooks ^= b
	case Queen:
		p.Queens ^= b
	case King:
		p.Kings ^= b
	}
}

func (p *Position) isAttackedBySide(sq int, side bool) bool {
	var enemy = p.PiecesByColor(side)
	if PawnAttacks(sq, !side)&p.Pawns&enemy != 0 {
		return true
	}
	if KnightAttacks[sq]&p.Knights&enemy != 0 {
		return true
	}
	if KingAttacks[sq]&p.Kings&enemy != 0 {
		return true
	}
	var allPieces = p.White | p.Black
	if BishopAttacks(sq, allPieces)&(p.Bishops|p.Queens)&enemy != 0 {
		return true
	}
	if RookAttacks(sq, allPieces)&(p.Rooks|p.Queens)&enemy != 0 {
		return true
	}
	return false
}

func (p *Position) attackersTo(sq int, occ uint64) uint64 {
	return (PawnAttacks(sq, false) & p.Pawns & p.White) |
		(PawnAttacks(sq, true) & p.Pawns & p.Black) |
		(KnightAttacks[sq] & p.Knights) |
		(BishopAttacks(sq, occ) & (p.Bishops | p.Queens)) |
		(RookAttacks(sq, occ) & (p.Rooks | p.Queens)) |
		(KingAttacks[sq] & p.Kings)
}

func (p *Position) computeCheckers() uint64 {
	var own = p.PiecesByColor(p.WhiteMove)
	return p.attackersTo(FirstOne(p.Kings&own), p.AllPieces()) &^ own
}

func (p *Position) isLegal() bool {
	var kingSq = FirstOne(p.Kings & p.PiecesByColor(!p.WhiteMove))
	return !p.isAttackedBySide(kingSq, p.WhiteMove)
}

func (p *Position) KingSquare(white bool) int {
	return FirstOne(p.Kings & p.PiecesByColor(white))
}

// IsLateEndgame reports positions prone to zugzwang for the side:
// no rooks or queens and at most one minor piece, counting the hand.
func (p *Position) IsLateEndgame(white bool) bool {
	var own = p.PiecesByColor(white)
	var hand = &p.Hands[sideIndex(white)]
	return (p.Rooks|p.Queens)&own == 0 &&
		hand[Rook]+hand[Queen] == 0 &&
		PopCount((p.Knights|p.Bishops)&own)+hand[Knight]+hand[Bishop] <= 1
}

func (p *Position) IsInsufficientMaterial() bool {
	if p.Drops {
		for side := range p.Hands {
			for piece := Pawn; piece < King; piece++ {
				if p.Hands[side][piece] != 0 {
					return false
				}
			}
		}
	}
	return (p.Pawns|p.Rooks|p.Queens) == 0 &&
		!MoreThanOne(p.Knights|p.Bishops)
}

var (
	sideKey        uint64
	enpassantKey   [8]uint64
	castlingKey    [16]uint64
	pieceSquareKey [2][PIECE_NB][64]uint64
	handKey        [2][King][maxHandCount + 1]uint64
)

func PieceSquareKey(piece int, side bool, square int) uint64 {
	return pieceSquareKey[sideIndex(side)][piece][square]
}

func (p *Position) computeKey() uint64 {
	var result = uint64(0)
	if p.WhiteMove {
		result ^= sideKey
	}
	result ^= castlingKey[p.CastleRights]
	if p.EpSquare != SquareNone {
		result ^= enpassantKey[File(p.EpSquare)]
	}
	for sq := 0; sq < 64; sq++ {
		var piece, side = p.GetPieceTypeAndSide(sq)
		if piece != Empty {
			result ^= PieceSquareKey(piece, side, sq)
		}
	}
	for side := range p.Hands {
		for piece := Pawn; piece < King; piece++ {
			result ^= handKey[side][piece][p.Hands[side][piece]]
		}
	}
	return result
}

func initKeys() {
	var r = rand.New(rand.NewSource(0))
	sideKey = r.Uint64()
	for i := range enpassantKey {
		enpassantKey[i] = r.Uint64()
	}
	for side := range pieceSquareKey {
		for piece := range pieceSquareKey[side] {
			for sq := range pieceSquareKey[side][piece] {
				pieceSquareKey[side][piece][sq] = r.Uint64()
			}
		}
	}
	for side := range handKey {
		for piece := range handKey[side] {
			// an empty hand does not change the key
			for n := 1; n <= maxHandCount; n++ {
				handKey[side][piece][n] = r.Uint64()
			}
		}
	}

	var castle [4]uint64
	for i := range castle {
		castle[i] = r.Uint64()
	}
	for i := range castlingKey {
		for j := 0; j < 4; j++ {
			if i&(1<<uint(j)) != 0 {
				castlingKey[i] ^= castle[j]
			}
		}
	}
}

func init() {
	initKeys()
	for i := range castleMask {
		castleMask[i] = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
	}
	castleMask[SquareA1] &^= WhiteQueenSide
	castleMask[SquareE1] &^= WhiteQueenSide | WhiteKingSide
	castleMask[SquareH1] &^= WhiteKingSide
	castleMask[SquareA8] &^= BlackQueenSide
	castleMask[SquareE8] &^= BlackQueenSide | BlackKingSide
	castleMask[SquareH8] &^= BlackKingSide
}
