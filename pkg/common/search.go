package common

import (
	"time"

	"github.com/google/uuid"
)

type TimeControlKind int

const (
	TimeControlNone TimeControlKind = iota
	FixedTime
	Byoyomi
	Fischer
	Infinite
	Ponder
)

func (k TimeControlKind) String() string {
	switch k {
	case FixedTime:
		return "fixed"
	case Byoyomi:
		return "byoyomi"
	case Fischer:
		return "fischer"
	case Infinite:
		return "infinite"
	case Ponder:
		return "ponder"
	}
	return "none"
}

// TimeControl times are in milliseconds and indexed by side.
type TimeControl struct {
	Kind      TimeControlKind
	MoveTime  int
	MainTime  [2]int
	Increment [2]int
	Byoyomi   int
	Periods   int
	MovesToGo int
}

type LimitsType struct {
	TimeControl TimeControl
	Depth       int
	Nodes       int
	QNodes      int
	Mate        int
	MultiPV     int
}

type TerminationReason int

const (
	TerminationNone TerminationReason = iota
	TerminationDepth
	TerminationTime
	TerminationNodes
	TerminationStopped
	TerminationMate
	TerminationNoMoves
	TerminationSingleMove
)

func (r TerminationReason) String() string {
	switch r {
	case TerminationDepth:
		return "depth"
	case TerminationTime:
		return "time"
	case TerminationNodes:
		return "nodes"
	case TerminationStopped:
		return "stopped"
	case TerminationMate:
		return "mate"
	case TerminationNoMoves:
		return "nomoves"
	case TerminationSingleMove:
		return "singlemove"
	}
	return "none"
}

type SearchLine struct {
	Score    UciScore
	Depth    int
	MainLine []Move
}

type SearchInfo struct {
	Score       UciScore
	Depth       int
	SelDepth    int
	Nodes       int64
	QNodes      int64
	Time        time.Duration
	MainLine    []Move
	MultiPV     int
	Lines       []SearchLine
	HashFull    int
	Termination TerminationReason
	SessionID   uuid.UUID
	// Verified is set when the root verifier replaced the searched move.
	Verified    bool
	VerifyNodes int64
}

type UciScore struct {
	Centipawns int
	Mate       int
	Mated      bool // side to move is checkmated, "mate 0"
}

func (si *SearchInfo) BestMove() Move {
	if len(si.MainLine) == 0 {
		return MoveEmpty
	}
	return si.MainLine[0]
}
