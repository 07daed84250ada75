package board

import (
	"errors"
	"fmt"
	"strings"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

var ErrIllegalMove = errors.New("illegal move")

// Game is a position with its move history kept as a stack of copies.
// DoMove pushes a child position, UndoMove pops it.
type Game struct {
	stack  []Position
	height int
	root   int
}

func NewGame(p *Position) *Game {
	var stack = make([]Position, 1, 256)
	stack[0] = *p
	return &Game{stack: stack}
}

func NewGameFromFEN(fen string) (*Game, error) {
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return NewGame(&p), nil
}

// Current returns the position on top of the stack. The pointer is valid
// until the next DoMove.
func (g *Game) Current() *Position {
	return &g.stack[g.height]
}

func (g *Game) Key() uint64 {
	return g.stack[g.height].Key
}

func (g *Game) SideToMove() int {
	return sideIndex(g.stack[g.height].WhiteMove)
}

func (g *Game) IsCheck() bool {
	return g.stack[g.height].Checkers != 0
}

func (g *Game) LastMove() Move {
	return g.stack[g.height].LastMove
}

func (g *Game) IsDraw() bool {
	var p = &g.stack[g.height]
	return p.Rule50 > 100 || p.IsInsufficientMaterial()
}

// IsRepetition reports a repeated position: once inside the current search
// (after the root) or twice in the game history before it.
func (g *Game) IsRepetition() bool {
	var p = &g.stack[g.height]
	if p.Rule50 == 0 || p.LastMove == MoveEmpty {
		return false
	}
	var count = 0
	for i := g.height - 1; i >= 0; i-- {
		var temp = &g.stack[i]
		if temp.Key == p.Key {
			if i >= g.root {
				return true
			}
			count++
			if count >= 2 {
				return true
			}
		}
		if temp.Rule50 == 0 || (temp.LastMove == MoveEmpty && i > 0) {
			return false
		}
	}
	return false
}

func (g *Game) push() *Position {
	if g.height+1 == len(g.stack) {
		g.stack = append(g.stack, Position{})
	}
	return &g.stack[g.height+1]
}

func (g *Game) DoMove(m Move) bool {
	var child = g.push()
	if !g.stack[g.height].MakeMove(m, child) {
		return false
	}
	g.height++
	return true
}

func (g *Game) DoNullMove() {
	var child = g.push()
	g.stack[g.height].MakeNullMove(child)
	g.height++
}

func (g *Game) UndoMove() {
	if g.height == 0 {
		panic("board: undo past the first position")
	}
	g.height--
}

// Ply is the number of moves made since the game was created.
func (g *Game) Ply() int {
	return g.height
}

func (g *Game) GenerateMoves(ml []OrderedMove) []OrderedMove {
	return g.stack[g.height].GenerateMoves(ml)
}

func (g *Game) GenerateCaptures(ml []OrderedMove) []OrderedMove {
	return g.stack[g.height].GenerateCaptures(ml)
}

func (g *Game) GenerateQuiets(ml []OrderedMove) []OrderedMove {
	return g.stack[g.height].GenerateQuiets(ml)
}

func (g *Game) GenerateEvasions(ml []OrderedMove) []OrderedMove {
	return g.stack[g.height].GenerateMoves(ml)
}

func (g *Game) See(m Move) int {
	return g.stack[g.height].See(m)
}

func (g *Game) SeeGE(m Move, threshold int) bool {
	return g.stack[g.height].SeeGE(m, threshold)
}

func (g *Game) GivesCheck(m Move) bool {
	var child Position
	return g.stack[g.height].MakeMove(m, &child) && child.Checkers != 0
}

func (g *Game) IsPseudoLegal(m Move) bool {
	return g.stack[g.height].IsPseudoLegal(m)
}

func (g *Game) KingSquare(side int) int {
	return g.stack[g.height].KingSquare(side == SideWhite)
}

func (g *Game) SquareDistance(sq1, sq2 int) int {
	return SquareDistance(sq1, sq2)
}

func (g *Game) IsLateEndgame(side int) bool {
	return g.stack[g.height].IsLateEndgame(side == SideWhite)
}

func (g *Game) SupportsDrops() bool {
	return g.stack[g.height].Drops
}

func (g *Game) Clone() IPosition {
	var stack = make([]Position, g.height+1, g.height+256)
	copy(stack, g.stack[:g.height+1])
	return &Game{
		stack:  stack,
		height: g.height,
		root:   g.height,
	}
}

// Unwrap returns the board under a search position built by this package.
func Unwrap(p IPosition) *Position {
	if g, ok := p.(*Game); ok {
		return g.Current()
	}
	panic(fmt.Errorf("board: unsupported position type %T", p))
}

func (g *Game) String() string {
	return g.stack[g.height].String()
}

// IsPseudoLegal validates a move from an untrusted source such as the
// transposition table against the generated move list.
func (p *Position) IsPseudoLegal(m Move) bool {
	if m == MoveEmpty {
		return false
	}
	if m.IsDrop() {
		if !p.Drops || p.Hands[sideIndex(p.WhiteMove)][m.MovingPiece()] == 0 {
			return false
		}
	} else {
		var own = p.PiecesByColor(p.WhiteMove)
		if own&SquareMask[m.From()] == 0 || p.WhatPiece(m.From()) != m.MovingPiece() {
			return false
		}
	}
	var buffer [MaxMoves]OrderedMove
	for _, om := range p.GenerateMoves(buffer[:]) {
		if om.Move == m {
			return true
		}
	}
	return false
}

// MakeMoveLAN plays a move given in long algebraic notation ("e2e4",
// "e7e8q", "N@f3").
func (g *Game) MakeMoveLAN(lan string) error {
	var m = g.stack[g.height].ParseMoveLAN(lan)
	if m == MoveEmpty || !g.DoMove(m) {
		return fmt.Errorf("%w: %v", ErrIllegalMove, lan)
	}
	return nil
}

func (p *Position) ParseMoveLAN(lan string) Move {
	var buffer [MaxMoves]OrderedMove
	for _, om := range p.GenerateMoves(buffer[:]) {
		if strings.EqualFold(om.Move.String(), lan) {
			return om.Move
		}
	}
	return MoveEmpty
}
