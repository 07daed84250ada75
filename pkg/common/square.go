package common

import (
	"fmt"
	"strings"
)

const (
	FileA = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	Rank1 = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

const SquareNone = -1

// Squares used by castling and tests. Others are built with MakeSquare.
const (
	SquareA1 = 0
	SquareB1 = 1
	SquareC1 = 2
	SquareD1 = 3
	SquareE1 = 4
	SquareF1 = 5
	SquareG1 = 6
	SquareH1 = 7
	SquareA8 = 56
	SquareB8 = 57
	SquareC8 = 58
	SquareD8 = 59
	SquareE8 = 60
	SquareF8 = 61
	SquareG8 = 62
	SquareH8 = 63
)

func FlipSquare(sq int) int {
	return sq ^ 56
}

func File(sq int) int {
	return sq & 7
}

func Rank(sq int) int {
	return sq >> 3
}

func MakeSquare(file, rank int) int {
	return (rank << 3) | file
}

func FileDistance(sq1, sq2 int) int {
	return Abs(File(sq1) - File(sq2))
}

func RankDistance(sq1, sq2 int) int {
	return Abs(Rank(sq1) - Rank(sq2))
}

// SquareDistance is the Chebyshev (king move) distance.
func SquareDistance(sq1, sq2 int) int {
	return Max(FileDistance(sq1, sq2), RankDistance(sq1, sq2))
}

const (
	fileNames = "abcdefgh"
	rankNames = "12345678"
)

func SquareName(sq int) string {
	if sq == SquareNone {
		return "-"
	}
	return string(fileNames[File(sq)]) + string(rankNames[Rank(sq)])
}

func ParseSquare(s string) (int, error) {
	if s == "-" {
		return SquareNone, nil
	}
	if len(s) != 2 {
		return SquareNone, fmt.Errorf("bad square %q", s)
	}
	var file = strings.IndexByte(fileNames, s[0])
	var rank = strings.IndexByte(rankNames, s[1])
	if file < 0 || rank < 0 {
		return SquareNone, fmt.Errorf("bad square %q", s)
	}
	return MakeSquare(file, rank), nil
}
