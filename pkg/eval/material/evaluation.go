package eval

import (
	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
)

var pieceValues = [common.King]int{
	common.Pawn:   100,
	common.Knight: 400,
	common.Bishop: 400,
	common.Rook:   600,
	common.Queen:  1200,
}

// EvaluationService counts material on the board and in hand from the
// side to move's point of view.
type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

func (e *EvaluationService) Evaluate(pos common.IPosition) int {
	var p = board.Unwrap(pos)
	var eval = 0
	for piece := common.Pawn; piece < common.King; piece++ {
		var pieces = p.PiecesByType(piece)
		var count = board.PopCount(pieces&p.White) - board.PopCount(pieces&p.Black) +
			p.Hands[common.SideWhite][piece] - p.Hands[common.SideBlack][piece]
		eval += pieceValues[piece] * count
	}
	if !p.WhiteMove {
		eval = -eval
	}
	return eval
}
