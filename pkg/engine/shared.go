package engine

import (
	"sync"
	"sync/atomic"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

// snapshot is a root result published by one thread. Snapshots are never
// modified after publishing.
type snapshot struct {
	generation uint64
	threadID   int
	depth      int
	selDepth   int
	score      int
	complete   bool
	mainLine   []Move
	lines      []SearchLine
}

// better reports whether s should replace cur as the search result.
func (s *snapshot) better(cur *snapshot) bool {
	if s.depth != cur.depth {
		return s.depth > cur.depth
	}
	if s.complete != cur.complete {
		return s.complete
	}
	return s.threadID == 0 && cur.threadID != 0
}

// sharedState is the per-search data all threads read and write.
type sharedState struct {
	generation uint64
	best       atomic.Pointer[snapshot]
	nodes      atomic.Int64
	qnodes     atomic.Int64
	qnodeLimit int64
	stopped    atomic.Bool
	stopCh     chan struct{}
	stopOnce   *sync.Once
}

func (s *sharedState) reset(qnodeLimit int64) {
	s.generation++
	s.best.Store(nil)
	s.nodes.Store(0)
	s.qnodes.Store(0)
	s.qnodeLimit = qnodeLimit
	s.stopped.Store(false)
	s.stopCh = make(chan struct{})
	s.stopOnce = &sync.Once{}
}

func (s *sharedState) stop() {
	s.stopped.Store(true)
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// publish offers a snapshot and returns true if it became the result.
func (s *sharedState) publish(snap *snapshot) bool {
	snap.generation = s.generation
	for {
		var cur = s.best.Load()
		if cur != nil && cur.generation == snap.generation && !snap.better(cur) {
			return false
		}
		if s.best.CompareAndSwap(cur, snap) {
			return true
		}
	}
}

func (s *sharedState) result() *snapshot {
	var cur = s.best.Load()
	if cur == nil || cur.generation != s.generation {
		return nil
	}
	return cur
}
