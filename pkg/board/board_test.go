package board

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

// Squares used by tests; common only exports the castling squares.
var (
	SquareD3 = MakeSquare(FileD, Rank3)
	SquareE4 = MakeSquare(FileE, Rank4)
	SquareD5 = MakeSquare(FileD, Rank5)
	SquareE5 = MakeSquare(FileE, Rank5)
	SquareF5 = MakeSquare(FileF, Rank5)
)

func TestSlidingAttacks(t *testing.T) {
	var r = rand.New(rand.NewSource(1))
	var bishopShifts = []func(uint64) uint64{UpRight, UpLeft, DownRight, DownLeft}
	var rookShifts = []func(uint64) uint64{Up, Down, Left, Right}
	for i := 0; i < 2000; i++ {
		var occ = r.Uint64() & r.Uint64()
		var sq = r.Intn(64)
		if got, want := BishopAttacks(sq, occ), slideAttacksSlow(sq, occ, bishopShifts); got != want {
			t.Fatalf("bishop %v occ %x: %x != %x", SquareName(sq), occ, got, want)
		}
		if got, want := RookAttacks(sq, occ), slideAttacksSlow(sq, occ, rookShifts); got != want {
			t.Fatalf("rook %v occ %x: %x != %x", SquareName(sq), occ, got, want)
		}
	}
}

func legalMoveStrings(p *Position) []string {
	var result []string
	for _, m := range p.GenerateLegalMoves() {
		result = append(result, m.String())
	}
	sort.Strings(result)
	return result
}

func oracleMoveStrings(t *testing.T, fen string) []string {
	var opt, err = chess.FEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	var g = chess.NewGame(opt)
	var result []string
	for _, m := range g.ValidMoves() {
		result = append(result, m.String())
	}
	sort.Strings(result)
	return result
}

// Random games checked move by move against an independent move generator.
func TestLegalMovesMatchReference(t *testing.T) {
	is := is.New(t)
	var r = rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		var p, err = NewPositionFromFEN(InitialPositionFen)
		is.NoErr(err)
		for ply := 0; ply < 60; ply++ {
			var moves = p.GenerateLegalMoves()
			is.Equal(legalMoveStrings(&p), oracleMoveStrings(t, p.String()))
			if len(moves) == 0 {
				break
			}
			var child Position
			is.True(p.MakeMove(moves[r.Intn(len(moves))], &child))
			p = child
		}
	}
}

func TestFENRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		InitialPositionFen,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R[NPp] w KQkq - 4 3",
		"4k3/8/8/8/8/8/8/4KQ~1[] b - - 0 1",
	} {
		var p, err = NewPositionFromFEN(fen)
		is.NoErr(err)
		is.Equal(p.String(), fen)
	}
}

func TestInvalidFEN(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBN w KQkq - 0 1",
		"4k3/8/8/8/8/8/8/P3K3 w - - 0 1",
		"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3[Kq] w - - 0 1",
	} {
		var _, err = NewPositionFromFEN(fen)
		is.True(err != nil)
	}
}

func TestDrops(t *testing.T) {
	is := is.New(t)
	var p, err = NewPositionFromFEN("4k3/8/8/8/8/8/8/4K3[Pn] w - - 0 1")
	is.NoErr(err)
	var drops = 0
	for _, m := range p.GenerateLegalMoves() {
		if m.IsDrop() {
			is.Equal(m.MovingPiece(), Pawn)
			is.True(Rank(m.To()) != Rank1 && Rank(m.To()) != Rank8)
			drops++
		}
	}
	is.Equal(drops, 62-14)

	var m = MakeDrop(Pawn, SquareE4)
	is.True(p.IsPseudoLegal(m))
	is.Equal(m.String(), "P@e4")
	is.Equal(p.ParseMoveLAN("P@e4"), m)
	is.Equal(ParseMoveSAN(&p, "@e4"), m)

	var child Position
	is.True(p.MakeMove(m, &child))
	is.Equal(child.HandCount(true, Pawn), 0)
	is.Equal(child.WhatPiece(SquareE4), Pawn)
	is.Equal(child.Key, child.computeKey())
	is.True(!child.IsPseudoLegal(m))
}

func TestCaptureGoesToHand(t *testing.T) {
	is := is.New(t)
	var p, err = NewPositionFromFEN("4k3/8/8/3q~1r2/4P3/8/8/4K3[] w - - 0 1")
	is.NoErr(err)

	var child Position
	is.True(p.MakeMove(MakeMove(SquareE4, SquareD5, Pawn, Queen), &child))
	is.Equal(child.HandCount(true, Pawn), 1)
	is.Equal(child.HandCount(true, Queen), 0)
	is.Equal(child.Promoted, uint64(0))
	is.Equal(child.Key, child.computeKey())

	is.True(p.MakeMove(MakeMove(SquareE4, SquareF5, Pawn, Rook), &child))
	is.Equal(child.HandCount(true, Rook), 1)
	is.Equal(child.Key, child.computeKey())
}

func TestDropBlocksCheck(t *testing.T) {
	is := is.New(t)
	var p, err = NewPositionFromFEN("4r1k1/8/8/8/8/8/8/4K3[N] w - - 0 1")
	is.NoErr(err)
	is.True(p.IsCheck())
	for _, m := range p.GenerateLegalMoves() {
		if m.IsDrop() {
			is.Equal(File(m.To()), FileE)
		}
	}
}

func TestRepetition(t *testing.T) {
	is := is.New(t)
	var g, err = NewGameFromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	is.NoErr(err)
	for _, lan := range []string{"a1a2", "e8d8", "a2a1", "d8e8"} {
		is.NoErr(g.MakeMoveLAN(lan))
	}
	var search = g.Clone()
	// once in game history is not enough
	is.True(!search.IsRepetition())

	var buffer [MaxMoves]OrderedMove
	var played = 0
	for _, lan := range []string{"a1a2", "e8d8", "a2a1", "d8e8"} {
		for _, m := range search.GenerateMoves(buffer[:]) {
			if m.Move.String() == lan {
				is.True(search.DoMove(m.Move))
				played++
			}
		}
	}
	is.Equal(played, 4)
	is.True(search.IsRepetition())
	for i := 0; i < 4; i++ {
		search.UndoMove()
	}
	is.Equal(search.Key(), g.Key())

	is.True(g.MakeMoveLAN("e1e3") != nil)
	is.NoErr(g.MakeMoveLAN("e1e2"))
}

func TestSeeAgreesWithSeeGE(t *testing.T) {
	var fens = []string{
		"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - -",
		"1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - -",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R[NPp] w KQkq - 4 3",
	}
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var buffer [MaxMoves]OrderedMove
		for _, m := range p.GenerateMoves(buffer[:]) {
			var see = p.See(m.Move)
			for threshold := -1300; threshold <= 1300; threshold += 100 {
				if p.SeeGE(m.Move, threshold) != (see >= threshold) {
					t.Errorf("%v %v see %v threshold %v", fen, m.Move, see, threshold)
				}
			}
		}
	}
}

func TestSee(t *testing.T) {
	is := is.New(t)
	var p, err = NewPositionFromFEN("1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - -")
	is.NoErr(err)
	is.Equal(p.See(MakeMove(SquareE1, SquareE5, Rook, Pawn)), 100)

	p, err = NewPositionFromFEN("1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - -")
	is.NoErr(err)
	is.Equal(p.See(MakeMove(SquareD3, SquareE5, Knight, Pawn)), -300)
}

func TestSAN(t *testing.T) {
	is := is.New(t)
	var p, err = NewPositionFromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	is.NoErr(err)
	for _, m := range p.GenerateLegalMoves() {
		is.Equal(ParseMoveSAN(&p, MoveToSAN(&p, m)), m)
	}
	is.Equal(ParseMoveSAN(&p, "O-O").String(), "e1g1")
	is.Equal(ParseMoveSAN(&p, "Qxf6+").String(), "f3f6")
	is.Equal(ParseMoveSAN(&p, "Nxz9"), MoveEmpty)
}
