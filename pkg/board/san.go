package board

import (
	"strings"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const sanPieceNames = "PNBRQK"

func MoveToSAN(pos *Position, mv Move) string {
	return moveToSAN(pos.GenerateLegalMoves(), mv)
}

func moveToSAN(ml []Move, mv Move) string {
	if mv.IsDrop() {
		return string(sanPieceNames[mv.MovingPiece()-Pawn]) + "@" + SquareName(mv.To())
	}
	if mv == whiteKingSideCastle || mv == blackKingSideCastle {
		return "O-O"
	}
	if mv == whiteQueenSideCastle || mv == blackQueenSideCastle {
		return "O-O-O"
	}
	var strPiece, strCapture, strFrom, strTo, strPromotion string
	if mv.MovingPiece() != Pawn {
		strPiece = string(sanPieceNames[mv.MovingPiece()-Pawn])
	}
	strTo = SquareName(mv.To())
	if mv.CapturedPiece() != Empty {
		strCapture = "x"
		if mv.MovingPiece() == Pawn {
			strFrom = SquareName(mv.From())[:1]
		}
	}
	if mv.Promotion() != Empty {
		strPromotion = "=" + string(sanPieceNames[mv.Promotion()-Pawn])
	}
	var ambiguity = false
	var uniqCol = true
	var uniqRow = true
	for _, mv1 := range ml {
		if mv1.IsDrop() || mv1.From() == mv.From() ||
			mv1.To() != mv.To() || mv1.MovingPiece() != mv.MovingPiece() {
			continue
		}
		ambiguity = true
		if File(mv1.From()) == File(mv.From()) {
			uniqCol = false
		}
		if Rank(mv1.From()) == Rank(mv.From()) {
			uniqRow = false
		}
	}
	if ambiguity && mv.MovingPiece() != Pawn {
		if uniqCol {
			strFrom = SquareName(mv.From())[:1]
		} else if uniqRow {
			strFrom = SquareName(mv.From())[1:2]
		} else {
			strFrom = SquareName(mv.From())
		}
	}
	return strPiece + strFrom + strCapture + strTo + strPromotion
}

// ParseMoveSAN accepts standard algebraic notation with optional check and
// annotation suffixes. Pawn drops may omit the piece letter ("@e4").
func ParseMoveSAN(pos *Position, san string) Move {
	var index = strings.IndexAny(san, "+#?!")
	if index >= 0 {
		san = san[:index]
	}
	if strings.HasPrefix(san, "@") {
		san = "P" + san
	}
	san = strings.ReplaceAll(san, "0", "O")
	var ml = pos.GenerateLegalMoves()
	for _, mv := range ml {
		if san == moveToSAN(ml, mv) {
			return mv
		}
	}
	return MoveEmpty
}
