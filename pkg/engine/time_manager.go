package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

type TimeManager interface {
	IsDone() bool
	Done() <-chan struct{}
	Stop(reason TerminationReason)
	Reason() TerminationReason
	Unbounded() bool
	OnNodesChanged(nodes int64)
	OnIterationComplete(depth, score int)
	PonderHit()
	Close()
}

type timeManager struct {
	limits   LimitsType
	side     int
	overhead time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	reason   atomic.Int32

	mu        sync.Mutex
	start     time.Time
	softLimit time.Duration
	unbounded bool
	timer     *time.Timer
}

func newTimeManager(ctx context.Context, start time.Time, limits LimitsType,
	side int, overhead time.Duration) *timeManager {

	var tm = &timeManager{
		limits:   limits,
		side:     side,
		overhead: overhead,
		start:    start,
	}

	var hardLimit time.Duration
	switch limits.TimeControl.Kind {
	case Infinite, Ponder:
		tm.unbounded = true
	default:
		tm.softLimit, hardLimit = calcTimeControl(limits.TimeControl, side, overhead)
	}

	var cancel context.CancelFunc
	if hardLimit != 0 {
		ctx, cancel = context.WithDeadline(ctx, start.Add(hardLimit))
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	tm.ctx = ctx
	tm.cancel = cancel
	return tm
}

func (tm *timeManager) Done() <-chan struct{} {
	return tm.ctx.Done()
}

func (tm *timeManager) IsDone() bool {
	select {
	case <-tm.ctx.Done():
		return true
	default:
		return false
	}
}

// Stop ends the search. The first reason recorded wins.
func (tm *timeManager) Stop(reason TerminationReason) {
	tm.reason.CompareAndSwap(int32(TerminationNone), int32(reason))
	tm.cancel()
}

func (tm *timeManager) Reason() TerminationReason {
	if r := TerminationReason(tm.reason.Load()); r != TerminationNone {
		return r
	}
	switch tm.ctx.Err() {
	case context.DeadlineExceeded:
		return TerminationTime
	case context.Canceled:
		return TerminationStopped
	}
	return TerminationNone
}

// Unbounded reports an infinite search or a ponder search before ponderhit.
func (tm *timeManager) Unbounded() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.unbounded
}

func (tm *timeManager) OnNodesChanged(nodes int64) {
	if tm.limits.Nodes > 0 && nodes >= int64(tm.limits.Nodes) {
		tm.Stop(TerminationNodes)
	}
}

func (tm *timeManager) OnIterationComplete(depth, score int) {
	if tm.limits.Mate > 0 && score >= winIn(2*tm.limits.Mate) {
		tm.Stop(TerminationMate)
		return
	}

	tm.mu.Lock()
	var unbounded, start, softLimit = tm.unbounded, tm.start, tm.softLimit
	tm.mu.Unlock()

	if unbounded {
		return
	}
	if tm.limits.Depth != 0 && depth >= tm.limits.Depth {
		tm.Stop(TerminationDepth)
		return
	}
	if tm.timed() &&
		(score >= winIn(depth-5) || score <= lossIn(depth-5)) {
		tm.Stop(TerminationMate)
		return
	}
	if softLimit != 0 && time.Since(start) >= softLimit {
		tm.Stop(TerminationTime)
		return
	}
}

func (tm *timeManager) timed() bool {
	switch tm.limits.TimeControl.Kind {
	case FixedTime, Byoyomi, Fischer, Ponder:
		return true
	}
	return false
}

// PonderHit turns a ponder search into a timed search using the clocks
// sent with the ponder command. Limits count from the ponderhit.
func (tm *timeManager) PonderHit() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.limits.TimeControl.Kind != Ponder || !tm.unbounded {
		return
	}
	var tc = tm.limits.TimeControl
	switch {
	case tc.Byoyomi > 0:
		tc.Kind = Byoyomi
	case tc.MainTime[tm.side] > 0 || tc.Increment[tm.side] > 0:
		tc.Kind = Fischer
	case tc.MoveTime > 0:
		tc.Kind = FixedTime
	default:
		tc.Kind = Fischer
	}
	var softLimit, hardLimit = calcTimeControl(tc, tm.side, tm.overhead)
	tm.unbounded = false
	tm.start = time.Now()
	tm.softLimit = softLimit
	if hardLimit != 0 {
		tm.timer = time.AfterFunc(hardLimit, func() {
			tm.Stop(TerminationTime)
		})
	}
}

func (tm *timeManager) Close() {
	tm.mu.Lock()
	if tm.timer != nil {
		tm.timer.Stop()
	}
	tm.mu.Unlock()
	tm.cancel()
}

func calcTimeControl(tc TimeControl, side int, overhead time.Duration) (soft, hard time.Duration) {
	var main = time.Duration(tc.MainTime[side]) * time.Millisecond
	var inc = time.Duration(tc.Increment[side]) * time.Millisecond
	switch tc.Kind {
	case FixedTime:
		hard = Max(minTimeLimit, time.Duration(tc.MoveTime)*time.Millisecond)
	case Fischer:
		soft, hard = calcLimits(main, inc, tc.MovesToGo, overhead)
	case Byoyomi:
		soft, hard = calcByoyomiLimits(main, time.Duration(tc.Byoyomi)*time.Millisecond, overhead)
	}
	return
}

const minTimeLimit = 1 * time.Millisecond

func calcLimits(main, inc time.Duration, moves int, overhead time.Duration) (soft, hard time.Duration) {
	const DefaultMovesToGo = 40

	main -= overhead
	if main < minTimeLimit {
		main = minTimeLimit
	}

	if moves == 0 {
		var ideal = main/35 + inc/2
		soft = ideal * 7 / 10
		hard = ideal * 21 / 10
	} else {
		moves = Min(moves, DefaultMovesToGo)
		soft = (main/time.Duration(moves+1) + inc) * 7 / 10
		hard = (main/time.Duration(moves+1) + inc) * 21 / 10
	}

	hard = Clamp(hard, minTimeLimit, main)
	soft = Clamp(soft, minTimeLimit, main)
	return
}

// calcByoyomiLimits spends a share of the main time on top of the byoyomi
// period. Without main time the whole period is the hard limit.
func calcByoyomiLimits(main, byoyomi, overhead time.Duration) (soft, hard time.Duration) {
	if main <= 0 {
		return 0, Max(minTimeLimit, byoyomi-overhead)
	}
	var ideal = main/35 + byoyomi
	var maxLimit = Max(minTimeLimit, main+byoyomi-overhead)
	soft = Clamp(ideal*7/10, minTimeLimit, maxLimit)
	hard = Clamp(ideal*21/10, minTimeLimit, maxLimit)
	return
}
