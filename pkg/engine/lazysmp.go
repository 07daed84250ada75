package engine

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const parkPollInterval = 5 * time.Millisecond

// lazySmp runs all threads on the same root. Thread 0 drives iterative
// deepening and ends the search; helpers search ahead and share results
// through the transposition table and the published snapshot.
func lazySmp(e *Engine) error {
	var g errgroup.Group
	for i := range e.threads {
		var t = e.threads[i]
		g.Go(t.run)
	}
	return g.Wait()
}

func (t *thread) run() (err error) {
	var e = t.engine
	defer func() {
		if r := recover(); r != nil {
			t.faulted = true
			err = fmt.Errorf("search thread %v: %v", t.id, r)
			e.Options.Logger.Warn().
				Int("thread", t.id).
				Interface("panic", r).
				Msg("search-thread-failed")
			if t.id == 0 {
				e.shared.stop()
			}
		}
		t.flush()
	}()
	if t.id == 0 {
		defer e.shared.stop()
		t.iterativeDeepening()
	} else {
		t.helperLoop()
	}
	return nil
}

func (t *thread) iterativeDeepening() {
	var e = t.engine
	var maxDepth = e.maxDepth()
	var multiPV = e.multiPV(len(t.rootMoves))
	for depth := 1; depth <= maxDepth; depth++ {
		t.setRootDepth(depth)
		t.excluded = t.excluded[:0]
		var lines = make([]SearchLine, 0, multiPV)
		var score int
		for pvIndex := 0; pvIndex < multiPV; pvIndex++ {
			t.rootAssigned = false
			var lineScore int
			if pvIndex == 0 {
				lineScore = t.aspirationWindow(depth)
			} else {
				lineScore = t.searchRoot(-valueInfinity, valueInfinity, depth)
			}
			if t.stopped() {
				if pvIndex == 0 && multiPV == 1 && t.rootAssigned {
					e.shared.publish(&snapshot{
						threadID: t.id,
						depth:    depth,
						selDepth: t.selDepth,
						score:    t.rootScore,
						mainLine: t.mainLine(),
					})
				}
				return
			}
			var mainLine = t.mainLine()
			if pvIndex == 0 {
				score = lineScore
			}
			lines = append(lines, SearchLine{
				Score:    newUciScore(lineScore),
				Depth:    depth,
				MainLine: mainLine,
			})
			t.excluded = append(t.excluded, mainLine[0])
		}
		t.excluded = t.excluded[:0]
		t.orderRootMoves(lines)
		t.scoreHistory = append(t.scoreHistory, score)
		t.flush()
		var snap = &snapshot{
			threadID: t.id,
			depth:    depth,
			selDepth: t.selDepth,
			score:    score,
			complete: true,
			mainLine: lines[0].MainLine,
			lines:    lines,
		}
		e.shared.publish(snap)
		if e.Options.ShareHistory {
			e.sharedHistory.tryMerge(t.history)
		}
		e.onIterationComplete(snap)
		if t.stopped() {
			return
		}
	}
	if e.timeManager.Unbounded() {
		e.park(true)
		return
	}
	e.timeManager.Stop(TerminationDepth)
}

// helperLoop deepens on a shuffled root. Helpers search a single line, so
// their results are published only when one line is requested.
func (t *thread) helperLoop() {
	var e = t.engine
	var maxDepth = e.maxDepth()
	var publish = e.multiPV(len(t.rootMoves)) == 1
	if len(t.rootMoves) > 2 {
		var tail = t.rootMoves[1:]
		frand.Shuffle(len(tail), func(i, j int) {
			tail[i], tail[j] = tail[j], tail[i]
		})
	}
	for depth := 1 + ((t.id-1)%3 + 1); !t.stopped(); depth++ {
		if depth > maxDepth {
			e.park(false)
			return
		}
		t.setRootDepth(depth)
		t.rootAssigned = false
		var score = t.aspirationWindow(depth)
		if t.stopped() {
			return
		}
		var mainLine = t.mainLine()
		moveToBegin(t.rootMoves, findMoveIndex(t.rootMoves, mainLine[0]))
		t.scoreHistory = append(t.scoreHistory, score)
		t.flush()
		if publish {
			e.shared.publish(&snapshot{
				threadID: t.id,
				depth:    depth,
				selDepth: t.selDepth,
				score:    score,
				complete: true,
				mainLine: mainLine,
			})
		}
		if e.Options.ShareHistory {
			e.sharedHistory.tryMerge(t.history)
		}
	}
}

// orderRootMoves puts the best move of every line first, in line order.
func (t *thread) orderRootMoves(lines []SearchLine) {
	for i := len(lines) - 1; i >= 0; i-- {
		moveToBegin(t.rootMoves, findMoveIndex(t.rootMoves, lines[i].MainLine[0]))
	}
}

// park blocks a thread that has nothing left to search until the search
// stops. The main thread also returns once an unbounded search becomes
// bounded after ponderhit.
func (e *Engine) park(main bool) {
	var ticker = time.NewTicker(parkPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.shared.stopCh:
			return
		case <-e.timeManager.Done():
			e.shared.stop()
			return
		case <-ticker.C:
			if e.stopFlag != nil && e.stopFlag.Load() {
				e.timeManager.Stop(TerminationStopped)
				e.shared.stop()
				return
			}
			if main && !e.timeManager.Unbounded() {
				e.timeManager.Stop(TerminationDepth)
				return
			}
		}
	}
}
