package common

const (
	Empty = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	PIECE_NB
)

const (
	SideWhite = iota
	SideBlack
)

const MaxMoves = 512

const pieceNames = ".pnbrqk"

// Move packs from(6) to(6) moving(3) captured(3) promotion(3) drop(1).
// A drop has from == to and the dropped piece type as moving piece.
type Move uint32

const MoveEmpty Move = 0

const dropFlag Move = 1 << 21

type OrderedMove struct {
	Move Move
	Key  int32
}

func MakeMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from | to<<6 | movingPiece<<12 | capturedPiece<<15)
}

func MakePawnMove(from, to, capturedPiece, promotion int) Move {
	return Move(from | to<<6 | Pawn<<12 | capturedPiece<<15 | promotion<<18)
}

func MakeDrop(piece, to int) Move {
	return Move(to|to<<6|piece<<12) | dropFlag
}

func (m Move) From() int {
	return int(m & 63)
}

func (m Move) To() int {
	return int((m >> 6) & 63)
}

func (m Move) MovingPiece() int {
	return int((m >> 12) & 7)
}

func (m Move) CapturedPiece() int {
	return int((m >> 15) & 7)
}

func (m Move) Promotion() int {
	return int((m >> 18) & 7)
}

func (m Move) IsDrop() bool {
	return m&dropFlag != 0
}

func (m Move) IsCapture() bool {
	return m.CapturedPiece() != Empty
}

func (m Move) IsCaptureOrPromotion() bool {
	return m.CapturedPiece() != Empty || m.Promotion() != Empty
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	if m.IsDrop() {
		return string(pieceNames[m.MovingPiece()]-'a'+'A') + "@" + SquareName(m.To())
	}
	var sPromotion = ""
	if m.Promotion() != Empty {
		sPromotion = string(pieceNames[m.Promotion()])
	}
	return SquareName(m.From()) + SquareName(m.To()) + sPromotion
}

func PieceName(pieceType int) byte {
	return pieceNames[pieceType]
}
