package common

// IPosition is the rules engine seen by the search. Implementations mutate
// in place: every successful DoMove/DoNullMove is paired with one UndoMove.
type IPosition interface {
	Key() uint64
	SideToMove() int
	IsCheck() bool
	LastMove() Move
	IsDraw() bool
	IsRepetition() bool

	// DoMove returns false and leaves the position unchanged if the
	// pseudo-legal move leaves the mover in check.
	DoMove(m Move) bool
	DoNullMove()
	UndoMove()

	GenerateMoves(ml []OrderedMove) []OrderedMove
	GenerateCaptures(ml []OrderedMove) []OrderedMove
	GenerateQuiets(ml []OrderedMove) []OrderedMove
	GenerateEvasions(ml []OrderedMove) []OrderedMove

	See(m Move) int
	SeeGE(m Move, threshold int) bool
	GivesCheck(m Move) bool
	IsPseudoLegal(m Move) bool

	KingSquare(side int) int
	SquareDistance(sq1, sq2 int) int
	IsLateEndgame(side int) bool
	SupportsDrops() bool

	// Clone returns an independent copy whose repetition history treats
	// the current position as the search root.
	Clone() IPosition
	String() string
}
