package engine

import . "github.com/ChizhovVadim/lazysmp/pkg/common"

const (
	stageTT = iota
	stageGenCaptures
	stageGoodCaptures
	stageRefutations
	stageGenQuiets
	stageQuiets
	stageBadCaptures
	stageGenEvasions
	stageEvasions
	stageDone
)

const sortTableKeyImportant = 100000

type moveIteratorQS struct {
	position IPosition
	buffer   []OrderedMove
	count    int
	index    int
}

func (mi *moveIteratorQS) Init() {
	if mi.position.IsCheck() {
		mi.count = len(mi.position.GenerateEvasions(mi.buffer))
	} else {
		mi.count = len(mi.position.GenerateCaptures(mi.buffer))
	}

	for i := 0; i < mi.count; i++ {
		var m = mi.buffer[i].Move
		var score int
		if m.IsCaptureOrPromotion() {
			score = 29000 + mvvlva(m)
		} else {
			score = 0
		}
		mi.buffer[i].Key = int32(score)
	}

	sortMoves(mi.buffer[:mi.count])
}

func (mi *moveIteratorQS) Reset() {
	mi.index = 0
}

func (mi *moveIteratorQS) Next() Move {
	if mi.index >= mi.count {
		return MoveEmpty
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

// moveIterator yields moves in stages: the TT move, captures that do not
// lose material, killers and the counter move, quiets by history, and
// losing captures last. In check all evasions are scored in one stage.
type moveIterator struct {
	position  IPosition
	buffer    []OrderedMove
	history   historyContext
	transMove Move
	killer1   Move
	killer2   Move
	stage     int
	index     int
	goodEnd   int
	badEnd    int
	quietEnd  int
	emitted   [3]Move
	nEmitted  int
}

func (mi *moveIterator) Init() {
	if mi.transMove != MoveEmpty && !mi.position.IsPseudoLegal(mi.transMove) {
		mi.transMove = MoveEmpty
	}
	if mi.position.IsCheck() {
		mi.stage = stageGenEvasions
	} else {
		mi.stage = stageTT
	}
}

func (mi *moveIterator) Next() Move {
	for {
		switch mi.stage {
		case stageTT:
			mi.stage = stageGenCaptures
			if mi.transMove != MoveEmpty {
				return mi.transMove
			}
		case stageGenCaptures:
			mi.genCaptures()
			mi.index = 0
			mi.stage = stageGoodCaptures
		case stageGoodCaptures:
			if mi.index < mi.goodEnd {
				moveToTop(mi.buffer[mi.index:mi.goodEnd])
				var m = mi.buffer[mi.index].Move
				mi.index++
				if m != mi.transMove {
					return m
				}
				continue
			}
			mi.index = 0
			mi.stage = stageRefutations
		case stageRefutations:
			var candidates = [3]Move{mi.killer1, mi.killer2, mi.history.counter}
			for mi.index < len(candidates) {
				var m = candidates[mi.index]
				mi.index++
				if mi.isRefutation(m) {
					mi.emitted[mi.nEmitted] = m
					mi.nEmitted++
					return m
				}
			}
			mi.stage = stageGenQuiets
		case stageGenQuiets:
			var quiets = mi.position.GenerateQuiets(mi.buffer[mi.badEnd:])
			mi.quietEnd = mi.badEnd + len(quiets)
			for i := mi.badEnd; i < mi.quietEnd; i++ {
				var m = mi.buffer[i].Move
				mi.buffer[i].Key = int32(mi.history.ReadTotal(m))
			}
			sortMoves(mi.buffer[mi.badEnd:mi.quietEnd])
			mi.index = mi.badEnd
			mi.stage = stageQuiets
		case stageQuiets:
			if mi.index < mi.quietEnd {
				var m = mi.buffer[mi.index].Move
				mi.index++
				if m != mi.transMove && !mi.wasEmitted(m) {
					return m
				}
				continue
			}
			mi.index = mi.goodEnd
			mi.stage = stageBadCaptures
		case stageBadCaptures:
			if mi.index < mi.badEnd {
				var m = mi.buffer[mi.index].Move
				mi.index++
				if m != mi.transMove {
					return m
				}
				continue
			}
			mi.stage = stageDone
		case stageGenEvasions:
			mi.genEvasions()
			mi.index = 0
			mi.stage = stageEvasions
		case stageEvasions:
			if mi.index < mi.quietEnd {
				if mi.index <= 1 {
					moveToTop(mi.buffer[mi.index:mi.quietEnd])
					if mi.index == 1 {
						sortMoves(mi.buffer[mi.index:mi.quietEnd])
					}
				}
				var m = mi.buffer[mi.index].Move
				mi.index++
				return m
			}
			mi.stage = stageDone
		default:
			return MoveEmpty
		}
	}
}

func (mi *moveIterator) genCaptures() {
	var captures = mi.position.GenerateCaptures(mi.buffer)
	var n = len(captures)
	var good = 0
	for i := 0; i < n; i++ {
		var m = mi.buffer[i].Move
		var key = 1000*mvvlva(m) + mi.history.ReadCapture(m)/32
		mi.buffer[i].Key = int32(key)
		if mi.position.SeeGE(m, 0) {
			mi.buffer[i], mi.buffer[good] = mi.buffer[good], mi.buffer[i]
			good++
		}
	}
	mi.goodEnd = good
	mi.badEnd = n
	sortMoves(mi.buffer[good:n])
}

func (mi *moveIterator) genEvasions() {
	var n = len(mi.position.GenerateEvasions(mi.buffer))
	for i := 0; i < n; i++ {
		var m = mi.buffer[i].Move
		var score int
		if m == mi.transMove {
			score = sortTableKeyImportant + 2000
		} else if m.IsCaptureOrPromotion() {
			score = sortTableKeyImportant + 1000 + mvvlva(m)
		} else if m == mi.killer1 {
			score = sortTableKeyImportant + 1
		} else if m == mi.killer2 {
			score = sortTableKeyImportant
		} else {
			score = mi.history.ReadTotal(m)
		}
		mi.buffer[i].Key = int32(score)
	}
	mi.quietEnd = n
}

func (mi *moveIterator) isRefutation(m Move) bool {
	return m != MoveEmpty &&
		m != mi.transMove &&
		!m.IsCaptureOrPromotion() &&
		!mi.wasEmitted(m) &&
		mi.position.IsPseudoLegal(m)
}

func (mi *moveIterator) wasEmitted(m Move) bool {
	for i := 0; i < mi.nEmitted; i++ {
		if mi.emitted[i] == m {
			return true
		}
	}
	return false
}

var sortPieceValues = [...]int{Empty: 0, Pawn: 1, Knight: 2, Bishop: 3, Rook: 4, Queen: 5, King: 6}

func mvvlva(move Move) int {
	return 8*(sortPieceValues[move.CapturedPiece()]+
		sortPieceValues[move.Promotion()]) -
		sortPieceValues[move.MovingPiece()]
}

func sortMoves(moves []OrderedMove) {
	for i := 1; i < len(moves); i++ {
		j, t := i, moves[i]
		for ; j > 0 && moves[j-1].Key < t.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}

func moveToTop(ml []OrderedMove) {
	var bestIndex = 0
	for i := 1; i < len(ml); i++ {
		if ml[i].Key > ml[bestIndex].Key {
			bestIndex = i
		}
	}
	if bestIndex != 0 {
		ml[0], ml[bestIndex] = ml[bestIndex], ml[0]
	}
}
